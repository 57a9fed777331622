package borders

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// 文档注释：按扩展名选择解析器加载边界文件
// 背景：数据目录可放置 TopoJSON（默认 data/borders-topo.json）、GeoJSON 或 Shapefile，服务启动与热重载走同一入口。
// 约束：.json/.topojson 先嗅探 "Topology" 类型再决定按拓扑还是 GeoJSON 解析；.shp 需同目录存在同名 .dbf。
func Load(path, object string) (*Collection, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return LoadShapefile(path)
	case ".geojson":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadGeoJSON(bufio.NewReader(f))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isTopology(b) {
		c, err := LoadTopoJSON(bytes.NewReader(b), object)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return c, nil
	}
	c, err := LoadGeoJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// 只看文件头部，避免为了判断类型把整份几何解析两遍
func isTopology(b []byte) bool {
	head := b
	if len(head) > 4096 {
		head = head[:4096]
	}
	compact := bytes.Join(bytes.Fields(head), nil)
	return bytes.Contains(compact, []byte(`"type":"Topology"`))
}

// FileSource 从本地文件加载边界
type FileSource struct {
	Path   string
	Object string
}

func (s FileSource) Load(ctx context.Context) (*Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.Path, s.Object)
}
