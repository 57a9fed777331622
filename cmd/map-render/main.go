package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"copyright-map/internal/borders"
	"copyright-map/internal/dataset"
	"copyright-map/internal/logger"
	"copyright-map/internal/render"
	"copyright-map/internal/terms"

	"github.com/joho/godotenv"
)

// 文档注释：离线渲染一张地图
// 背景：用于生成静态图片（文章配图、预览图）或排查数据问题，不依赖数据库、缓存与 HTTP 服务。
// 约束：RENDER_OUT 扩展名决定格式（.png 为栅格，其余为 SVG）；RENDER_WIDTH 缺省 940；纹理国家取 TEXTURE_COUNTRY。
func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	bordersPath := os.Getenv("BORDERS_PATH")
	if bordersPath == "" {
		bordersPath = filepath.Join("data", "borders-topo.json")
	}
	termsPath := os.Getenv("TERMS_PATH")
	if termsPath == "" {
		termsPath = filepath.Join("data", "copyright-terms.csv")
	}
	out := os.Getenv("RENDER_OUT")
	if out == "" {
		out = "map.svg"
	}
	width := render.DefaultWidth
	if s := os.Getenv("RENDER_WIDTH"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			l.Error("render_width_invalid", "value", s)
			os.Exit(1)
		}
		width = n
	}
	opts := render.Options{Width: width, TextureID: os.Getenv("TEXTURE_COUNTRY")}
	if p := os.Getenv("THEME_PATH"); p != "" {
		th, err := render.LoadTheme(p)
		if err != nil {
			l.Error("theme_load_error", "path", p, "err", err)
			os.Exit(1)
		}
		opts.Theme = &th
	}

	ds, err := dataset.Load(context.Background(),
		borders.FileSource{Path: bordersPath, Object: os.Getenv("BORDERS_OBJECT")},
		terms.CSVSource{Path: termsPath})
	if err != nil {
		l.Error("dataset_load_error", "err", err)
		os.Exit(1)
	}

	f, err := os.Create(out)
	if err != nil {
		l.Error("render_out_error", "path", out, "err", err)
		os.Exit(1)
	}
	var v render.ViewState
	if strings.EqualFold(filepath.Ext(out), ".png") {
		v, err = render.RenderPNG(f, ds.RenderData(), opts)
	} else {
		v, err = render.Render(f, ds.RenderData(), opts)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		l.Error("render_error", "path", out, "err", err)
		os.Exit(1)
	}
	l.Info("render_ok", "path", out, "width", v.Width, "height", v.Height, "mobile", v.Mobile, "fingerprint", ds.Fingerprint)
}
