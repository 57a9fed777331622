package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"copyright-map/internal/classify"
	"copyright-map/internal/dataset"
	"copyright-map/internal/logger"
	"copyright-map/internal/metrics"
	"copyright-map/internal/render"
	"copyright-map/internal/terms"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

var errBadWidth = errors.New("width must be a positive integer")

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 /api 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	if d.CacheTTL <= 0 {
		d.CacheTTL = time.Hour
	}
	th := render.DefaultTheme()
	if d.Theme != nil {
		th = *d.Theme
	}
	h := &handler{d: d, theme: themeKey(th)}
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /map.svg", h.mapSVG)
	apiMux.HandleFunc("GET /map.png", h.mapPNG)
	apiMux.HandleFunc("GET /classes", h.classes)
	apiMux.HandleFunc("GET /terms/{code}", h.term)

	apiMux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		if d.Store == nil {
			writeJSON(w, http.StatusNotFound, errorResult{Error: "stats disabled"})
			return
		}
		t, err := d.Store.GetTotals(r.Context())
		if err != nil {
			logger.L().Error("stats_query_error", "err", err)
			writeJSON(w, http.StatusInternalServerError, errorResult{Error: "stats unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": t.Total, "today": t.Today})
	})

	apiMux.HandleFunc("POST /reload", func(w http.ResponseWriter, r *http.Request) {
		tok := r.Header.Get("x-admin-token")
		if d.AdminToken == "" || tok != d.AdminToken {
			writeJSON(w, http.StatusForbidden, errorResult{Error: "forbidden"})
			return
		}
		if d.Reloader == nil {
			writeJSON(w, http.StatusNotFound, errorResult{Error: "reload disabled"})
			return
		}
		ds, err := d.Reloader.Reload(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResult{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, reloadResult{
			Fingerprint: ds.Fingerprint,
			Features:    len(ds.Borders.Features),
			Terms:       ds.Terms.Len(),
		})
	})

	return apiMux
}

type handler struct {
	d     Deps
	theme string
	sf    singleflight.Group
}

// 未加载完成时统一返回 503
func (h *handler) current(w http.ResponseWriter) *dataset.Dataset {
	ds := h.d.Holder.Get()
	if ds == nil {
		w.Header().Set("retry-after", "5")
		writeJSON(w, http.StatusServiceUnavailable, errorResult{Error: "map data not loaded"})
	}
	return ds
}

// 文档注释：SVG 地图
// 背景：同一数据指纹、宽度与纹理国家的输出逐字节相同，先查 Redis，未命中时以 singleflight 合并并发渲染再回填。
// 约束：Redis 不可用时直接渲染，不影响可用性；ETag 由缓存键派生，命中 If-None-Match 返回 304。
func (h *handler) mapSVG(w http.ResponseWriter, r *http.Request) {
	ds := h.current(w)
	if ds == nil {
		return
	}
	width, err := parseWidth(r.URL.Query().Get("width"))
	if err != nil {
		metrics.RendersTotal.WithLabelValues("svg", "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorResult{Error: err.Error()})
		return
	}
	texture := h.resolveTexture(r, ds)
	key := cacheKey(ds.Fingerprint, h.theme, width, texture)
	etag := `"` + strings.TrimPrefix(key, "map:svg:") + `"`
	if match := r.Header.Get("if-none-match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	ctx := r.Context()
	body, err := h.cachedSVG(ctx, key, func() ([]byte, error) {
		return renderBytes("svg", ds, render.Options{Width: width, TextureID: texture, Theme: h.d.Theme})
	})
	if err != nil {
		logger.L().Error("render_error", "format", "svg", "width", width, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResult{Error: "render failed"})
		return
	}
	h.countRender(ctx)
	w.Header().Set("content-type", "image/svg+xml; charset=utf-8")
	w.Header().Set("cache-control", "no-cache")
	w.Header().Set("etag", etag)
	_, _ = w.Write(body)
}

// PNG 渲染较重，只在进程内合并并发请求，不回填 Redis
func (h *handler) mapPNG(w http.ResponseWriter, r *http.Request) {
	ds := h.current(w)
	if ds == nil {
		return
	}
	width, err := parseWidth(r.URL.Query().Get("width"))
	if err != nil {
		metrics.RendersTotal.WithLabelValues("png", "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorResult{Error: err.Error()})
		return
	}
	texture := h.resolveTexture(r, ds)
	key := "map:png:" + ds.Fingerprint + ":" + h.theme + ":" + strconv.Itoa(width) + ":" + texture
	v, err, _ := h.sf.Do(key, func() (any, error) {
		return renderBytes("png", ds, render.Options{Width: width, TextureID: texture, Theme: h.d.Theme})
	})
	if err != nil {
		logger.L().Error("render_error", "format", "png", "width", width, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResult{Error: "render failed"})
		return
	}
	h.countRender(r.Context())
	w.Header().Set("content-type", "image/png")
	w.Header().Set("cache-control", "no-cache")
	_, _ = w.Write(v.([]byte))
}

func (h *handler) classes(w http.ResponseWriter, r *http.Request) {
	ds := h.current(w)
	if ds == nil {
		return
	}
	assign := classify.Assign(ds.Borders, ds.Terms)
	res := classesResult{
		Fingerprint: ds.Fingerprint,
		LoadedAt:    ds.LoadedAt,
		Classes:     make(map[string]string, len(assign)),
		Counts:      map[string]int{},
	}
	for id, c := range assign {
		res.Classes[id] = string(c)
	}
	for c, n := range classify.Counts(assign) {
		k := string(c)
		if c == classify.Unclassified {
			k = "unclassified"
		}
		res.Counts[k] = n
	}
	for _, c := range classify.Classes {
		res.Legend = append(res.Legend, legendEntry{Class: string(c), Label: c.Label()})
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) term(w http.ResponseWriter, r *http.Request) {
	ds := h.current(w)
	if ds == nil {
		return
	}
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	rec, ok := ds.Terms.Find(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResult{Error: "no term recorded for " + code})
		return
	}
	res := termResult{Code: rec.Code, Term: rec.Term, Class: string(classify.Feature(rec.Code, ds.Terms))}
	if y, err := terms.ParseYears(rec.Term); err == nil {
		res.Years = &y
	}
	if f, ok := ds.Borders.ByID(rec.Code); ok {
		res.Name = f.Name
	}
	writeJSON(w, http.StatusOK, res)
}

// 文档注释：确定纹理国家
// 背景：texture 参数优先；缺省时取 TEXTURE_COUNTRY；值为 auto 时按访问者 IP 查 GeoIP，再把 alpha-2 映射到要素编码。
// 约束：只返回数据集中存在的要素编码；none、未知编码或任何环节失败都返回空串（不叠加纹理），不会让请求失败。
func (h *handler) resolveTexture(r *http.Request, ds *dataset.Dataset) string {
	q := r.URL.Query()
	t := strings.TrimSpace(q.Get("texture"))
	if !q.Has("texture") {
		t = h.d.TextureCountry
	}
	switch strings.ToLower(t) {
	case "", TextureNone:
		return ""
	case TextureAuto:
		if h.d.GeoIP == nil {
			return ""
		}
		a2, ok := h.d.GeoIP.Country(getClientIP(r))
		if !ok {
			return ""
		}
		if f, ok := ds.Borders.ByAlpha2(a2); ok {
			return f.ID
		}
		return ""
	}
	if f, ok := ds.Borders.ByID(t); ok {
		return f.ID
	}
	return ""
}

func (h *handler) cachedSVG(ctx context.Context, key string, build func() ([]byte, error)) ([]byte, error) {
	rc := h.d.Redis
	if rc != nil {
		b, err := rc.Get(ctx, key).Bytes()
		if err == nil {
			metrics.CacheHitsTotal.Inc()
			return b, nil
		}
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("redis_get_error", "key", key, "err", err)
		}
		metrics.CacheMissesTotal.Inc()
	}
	v, err, _ := h.sf.Do(key, func() (any, error) {
		b, err := build()
		if err != nil {
			return nil, err
		}
		if rc != nil {
			if err := rc.Set(context.WithoutCancel(ctx), key, b, h.d.CacheTTL).Err(); err != nil {
				logger.L().Warn("redis_set_error", "key", key, "err", err)
			}
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (h *handler) countRender(ctx context.Context) {
	if h.d.Store == nil {
		return
	}
	if err := h.d.Store.IncrRenders(ctx); err != nil {
		logger.L().Warn("stats_incr_error", "err", err)
	}
}

func renderBytes(format string, ds *dataset.Dataset, opts render.Options) ([]byte, error) {
	start := time.Now()
	var buf bytes.Buffer
	var err error
	if format == "png" {
		_, err = render.RenderPNG(&buf, ds.RenderData(), opts)
	} else {
		_, err = render.Render(&buf, ds.RenderData(), opts)
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RendersTotal.WithLabelValues(format, status).Inc()
	metrics.RenderDurationMs.WithLabelValues(format).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// 缺省为 DefaultWidth；非数字、非正数或超过 MaxWidth 视为非法
func parseWidth(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return render.DefaultWidth, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errBadWidth
	}
	if n > MaxWidth {
		return 0, fmt.Errorf("width must not exceed %d", MaxWidth)
	}
	return n, nil
}

func cacheKey(fingerprint, theme string, width int, texture string) string {
	return fmt.Sprintf("map:svg:%s:%s:%d:%s", fingerprint, theme, width, texture)
}

// themeKey 主题的短摘要，主题变更后缓存键与 ETag 随之变化
func themeKey(th render.Theme) string {
	b, err := yaml.Marshal(th)
	if err != nil {
		b = []byte(fmt.Sprintf("%#v", th))
	}
	return strconv.FormatUint(xxhash.Sum64(b), 16)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
