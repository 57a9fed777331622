package middleware

import (
	"net/http"
	"os"
	"strconv"

	"copyright-map/internal/logger"

	"golang.org/x/time/rate"
)

// 文档注释：全局限流中间件（每秒）
// 背景：每次窗口缩放都会触发整图重绘，前端虽已节流，仍需在入口限速，避免渲染与缓存被过载。
// 约束：不排队，超限直接返回 429；突发容量与每秒速率相同。
func RateLimit(qps int, next http.Handler) http.Handler {
	if qps <= 0 {
		return next
	}
	lim := rate.NewLimiter(rate.Limit(qps), qps)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !lim.Allow() {
			logger.L().Debug("rate_limited", "path", r.URL.Path, "ip", r.RemoteAddr)
			w.Header().Set("retry-after", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Wrap 按环境变量装配入口中间件：RATE_LIMIT_ENABLED=true 时启用，速率取 RATE_LIMIT_QPS（默认 200）
func Wrap(next http.Handler) http.Handler {
	if os.Getenv("RATE_LIMIT_ENABLED") != "true" {
		return next
	}
	qps := 200
	if s := os.Getenv("RATE_LIMIT_QPS"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			qps = n
		}
	}
	logger.L().Info("rate_limit_enabled", "qps", qps)
	return RateLimit(qps, next)
}
