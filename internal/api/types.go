package api

import (
	"time"

	"copyright-map/internal/dataset"
	"copyright-map/internal/geoip"
	"copyright-map/internal/render"
	"copyright-map/internal/store"

	"github.com/redis/go-redis/v9"
)

// MaxWidth 宽度上限，超出视为非法请求
const MaxWidth = 4096

// TextureAuto 按访问者 IP 选择纹理国家；TextureNone 显式关闭纹理
const (
	TextureAuto = "auto"
	TextureNone = "none"
)

// Deps：路由依赖；除 Holder 外均可为空，对应能力随之关闭
type Deps struct {
	Holder   *dataset.Holder
	Reloader *dataset.Reloader
	Store    *store.Store
	Redis    *redis.Client
	GeoIP    geoip.Resolver
	Theme    *render.Theme

	// TextureCountry 未指定 texture 参数时使用，可为要素编码或 "auto"
	TextureCountry string
	AdminToken     string
	CacheTTL       time.Duration
}

type classesResult struct {
	Fingerprint string            `json:"fingerprint"`
	LoadedAt    time.Time         `json:"loaded_at"`
	Classes     map[string]string `json:"classes"`
	Counts      map[string]int    `json:"counts"`
	Legend      []legendEntry     `json:"legend"`
}

type legendEntry struct {
	Class string `json:"class"`
	Label string `json:"label"`
}

type termResult struct {
	Code  string `json:"ccode"`
	Name  string `json:"name,omitempty"`
	Term  string `json:"term"`
	Years *int   `json:"years"`
	Class string `json:"class"`
}

type reloadResult struct {
	Fingerprint string `json:"fingerprint"`
	Features    int    `json:"features"`
	Terms       int    `json:"terms"`
}

type errorResult struct {
	Error string `json:"error"`
}
