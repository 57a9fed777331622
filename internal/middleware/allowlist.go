package middleware

import (
	"net"
	"net/http"
	"os"
	"strings"

	"copyright-map/internal/logger"
)

// 文档注释：管理端点来源白名单（IP/CIDR）
// 背景：/reload 与 /metrics 面向运维，部署在公网时只允许内网或指定调试 IP 访问；令牌校验仍由 API 自身完成。
// 约束：
// 1) 白名单为空时不做限制；
// 2) 支持 IPv4/IPv6 单 IP 与 CIDR；
// 3) 来源 IP 以 RemoteAddr 为准，配置 header 时取该头的首个有效 IP。
type Allowlist struct {
	ips    map[string]struct{}
	cidrs  []*net.IPNet
	header string
}

// NewAllowlist 解析逗号分隔的 IP/CIDR 列表，非法项被忽略并记录日志
func NewAllowlist(list, header string) *Allowlist {
	a := &Allowlist{ips: map[string]struct{}{}, header: strings.TrimSpace(header)}
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			if _, n, err := net.ParseCIDR(p); err == nil {
				a.cidrs = append(a.cidrs, n)
				continue
			}
		} else if ip := net.ParseIP(p); ip != nil {
			a.ips[ip.String()] = struct{}{}
			continue
		}
		logger.L().Warn("allowlist_entry_invalid", "entry", p)
	}
	return a
}

// AllowlistFromEnv：ADMIN_ALLOW 列表，ADMIN_REAL_IP_HEADER 指定上游真实 IP 头
func AllowlistFromEnv() *Allowlist {
	return NewAllowlist(os.Getenv("ADMIN_ALLOW"), os.Getenv("ADMIN_REAL_IP_HEADER"))
}

func (a *Allowlist) Empty() bool { return len(a.ips) == 0 && len(a.cidrs) == 0 }

// Guard 包装受保护的处理器，不在白名单内返回 403
func (a *Allowlist) Guard(next http.Handler) http.Handler {
	if a.Empty() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := a.extractIP(r)
		if ip == nil || !a.allowed(ip) {
			logger.L().Debug("allowlist_block", "path", r.URL.Path, "remote", r.RemoteAddr)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Allowlist) allowed(ip net.IP) bool {
	if _, ok := a.ips[ip.String()]; ok {
		return true
	}
	for _, n := range a.cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func (a *Allowlist) extractIP(r *http.Request) net.IP {
	if a.header != "" {
		if raw := r.Header.Get(a.header); raw != "" {
			first := strings.TrimSpace(strings.Split(raw, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip
			}
		}
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return net.ParseIP(host)
}
