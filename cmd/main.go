// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"copyright-map/internal/api"
	"copyright-map/internal/borders"
	"copyright-map/internal/dataset"
	"copyright-map/internal/geoip"
	"copyright-map/internal/logger"
	"copyright-map/internal/metrics"
	"copyright-map/internal/middleware"
	"copyright-map/internal/migrate"
	"copyright-map/internal/render"
	"copyright-map/internal/store"
	"copyright-map/internal/terms"
	"copyright-map/internal/utils"
	"copyright-map/internal/version"
	"copyright-map/web"

	"github.com/joho/godotenv"
)

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok", "commit", version.Commit)
	apiBase := strings.TrimSuffix(envOr("API_BASE", "/api"), "/")
	l.Debug("config_api_base", "base", apiBase)
	ui := os.Getenv("UI_DIST")
	l.Debug("config_ui_dir", "dir", ui)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	th := render.DefaultTheme()
	if p := os.Getenv("THEME_PATH"); p != "" {
		t, err := render.LoadTheme(p)
		if err != nil {
			l.Error("theme_load_error", "path", p, "err", err)
			os.Exit(1)
		}
		th = t
		l.Info("theme_load_ok", "path", p)
	}

	// 背景：Postgres 为可选依赖；未配置时统计接口关闭，保护期数据只能来自 CSV
	var st *store.Store
	if utils.PostgresConfigured() {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		l.Info("db_open_ok")
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
			if err := migrate.EnsureSchema(ctx, db); err != nil {
				l.Error("schema_error", "err", err)
				os.Exit(1)
			}
			st = store.AttachDB(db)
		}
	} else {
		l.Info("db_disabled")
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		defer rc.Close()
	}

	var geo geoip.Resolver
	if gdb, err := geoip.Open(os.Getenv("GEOIP_PATH")); err == nil {
		defer gdb.Close()
		geo = gdb
	} else if errors.Is(err, geoip.ErrDisabled) {
		l.Info("geoip_disabled")
	} else {
		l.Error("geoip_open_error", "err", err)
	}

	bordersPath := envOr("BORDERS_PATH", filepath.Join("data", "borders-topo.json"))
	termsPath := envOr("TERMS_PATH", filepath.Join("data", "copyright-terms.csv"))
	watched := []string{bordersPath}
	var ts terms.Source
	switch src := envOr("TERMS_SOURCE", "csv"); src {
	case "postgres":
		if st == nil {
			l.Error("terms_source_error", "source", src, "err", "postgres not available")
			os.Exit(1)
		}
		ts = st
	case "csv":
		ts = terms.CSVSource{Path: termsPath}
		watched = append(watched, termsPath)
	default:
		l.Error("terms_source_error", "source", src, "err", "unknown source")
		os.Exit(1)
	}
	l.Debug("config_data", "borders", bordersPath, "terms", termsPath)

	// 文档注释：首次加载
	// 背景：加载失败不退出，保留服务以便修正数据文件后由监视器或 /reload 恢复；此前地图接口返回 503。
	holder := &dataset.Holder{}
	reloader := &dataset.Reloader{
		Holder:  holder,
		Borders: borders.FileSource{Path: bordersPath, Object: os.Getenv("BORDERS_OBJECT")},
		Terms:   ts,
	}
	_, _ = reloader.Reload(ctx)
	if os.Getenv("WATCH_DATA") != "false" {
		if w, err := dataset.WatchReloader(ctx, reloader, watched); err == nil {
			defer w.Close()
			l.Info("dataset_watch_ok", "files", watched)
		} else {
			l.Error("dataset_watch_error", "err", err)
		}
	}

	ttl := time.Hour
	if s := os.Getenv("SVG_CACHE_TTL_S"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			ttl = time.Duration(n) * time.Second
		}
	}

	mux := http.NewServeMux()
	// 文档注释：构建路由
	apiMux := api.BuildRoutes(api.Deps{
		Holder:         holder,
		Reloader:       reloader,
		Store:          st,
		Redis:          rc,
		GeoIP:          geo,
		Theme:          &th,
		TextureCountry: os.Getenv("TEXTURE_COUNTRY"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		CacheTTL:       ttl,
	})
	// 背景：/reload 与 /metrics 额外受来源白名单保护（ADMIN_ALLOW 为空时不限制）
	admin := middleware.AllowlistFromEnv()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/reload", admin.Guard(http.StripPrefix(apiBase, apiMux)))
	mux.Handle(apiBase+"/metrics", admin.Guard(metrics.Handler()))

	var static fs.FS = web.FS()
	if ui != "" {
		static = os.DirFS(ui)
	}
	mux.Handle("/", http.FileServerFS(static))

	// NOTE: 向前端暴露 API 基础路径，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + apiBase + "'"))
		_, _ = w.Write([]byte("\n"))
		_, _ = w.Write([]byte("window.__TEXTURE__=" + strconv.Quote(os.Getenv("TEXTURE_COUNTRY"))))
		_, _ = w.Write([]byte("\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'"))
	})

	addr := envOr("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
		l.Info("server_shutdown")
	}()

	var err error
	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := envOr("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := envOr("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if e := utils.EnsureSelfSignedCert(certPath, keyPath, "copyright-map.local"); e != nil {
			l.Error("tls_cert_error", "err", e)
		}
		// 可选：启动HTTP重定向到HTTPS（不改变HTTPS运行端口）
		if os.Getenv("TLS_REDIRECT_ENABLE") == "true" {
			go serveRedirect(envOr("TLS_REDIRECT_ADDR", ":80"), addr)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		err = s.ListenAndServeTLS(certPath, keyPath)
	} else {
		l.Info("listening", "addr", addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
}

func serveRedirect(redirAddr, httpsAddr string) {
	l := logger.L()
	httpRedir := http.NewServeMux()
	httpRedir.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// 替换目标端口为HTTPS服务端口
		httpsPort := strings.TrimPrefix(httpsAddr, ":")
		baseHost := r.Host
		if i := strings.LastIndex(baseHost, ":"); i != -1 {
			baseHost = baseHost[:i]
		}
		targetHost := baseHost
		if httpsPort != "" {
			targetHost = baseHost + ":" + httpsPort
		}
		target := "https://" + targetHost + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		l.Debug("http_redirect", "from", r.Host, "to", target)
	})
	l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+httpsAddr)
	_ = http.ListenAndServe(redirAddr, logger.AccessMiddleware(l)(httpRedir))
}
