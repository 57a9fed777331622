// 包 geoip：按访问者 IP 判断所在国家，用于自动选择纹理高亮的国家
package geoip

import (
	"errors"
	"net"
	"strings"
	"time"

	"copyright-map/internal/logger"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

var ErrDisabled = errors.New("geoip: database not configured")

// Resolver：IP → ISO alpha-2 国家编码
type Resolver interface {
	Country(ip string) (string, bool)
}

// DB 包装 MaxMind 国家/城市库
type DB struct {
	r *geoip2.Reader
}

// 文档注释：打开 mmdb 数据库
// 背景：GeoLite2-Country 与 GeoLite2-City 均可使用，只读取国家字段；打开时记录库类型与构建时间便于排查过期数据。
// 约束：path 为空返回 ErrDisabled，调用方据此关闭自动纹理而不是退出。
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, ErrDisabled
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	logMetadata(path, r.Metadata())
	return &DB{r: r}, nil
}

func logMetadata(path string, md maxminddb.Metadata) {
	logger.L().Info("geoip_open_ok",
		"path", path,
		"type", md.DatabaseType,
		"ip_version", md.IPVersion,
		"nodes", md.NodeCount,
		"built", time.Unix(int64(md.BuildEpoch), 0).UTC().Format(time.RFC3339),
	)
}

// Country 解析失败、私有地址或库中无记录时返回 false
func (d *DB) Country(ip string) (string, bool) {
	if d == nil || d.r == nil {
		return "", false
	}
	p := parseIP(ip)
	if p == nil {
		return "", false
	}
	rec, err := d.r.Country(p)
	if err != nil {
		logger.L().Debug("geoip_lookup_error", "ip", ip, "err", err)
		return "", false
	}
	code := rec.Country.IsoCode
	if code == "" {
		code = rec.RegisteredCountry.IsoCode
	}
	return code, code != ""
}

func (d *DB) Close() error {
	if d == nil || d.r == nil {
		return nil
	}
	return d.r.Close()
}

// 兼容 "ip:port" 与带方括号的 IPv6
func parseIP(s string) net.IP {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.Trim(s, "[]")
	return net.ParseIP(s)
}

// Static 固定映射，测试与离线渲染使用
type Static map[string]string

func (s Static) Country(ip string) (string, bool) {
	p := parseIP(ip)
	if p == nil {
		return "", false
	}
	c, ok := s[p.String()]
	return c, ok
}
