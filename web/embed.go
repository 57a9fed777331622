// 包 web：内置的地图页面，UI_DIST 未配置时由服务直接提供
package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var files embed.FS

// FS 页面静态文件
func FS() fs.FS { return files }
