package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// 文档注释：渲染 PNG
// 背景：供不便嵌入 SVG 的场景（邮件、社交卡片）使用；先按内联颜色生成 SVG，再用 oksvg/rasterx 光栅化。
// 约束：光栅化器不支持 CSS 与图案填充，纹理以半透明纯色近似；文字不绘制。背景为白色。
func RenderPNG(w io.Writer, d Data, opts Options) (ViewState, error) {
	opts.InlineFills = true
	var buf bytes.Buffer
	v, err := Render(&buf, d, opts)
	if err != nil {
		return v, err
	}
	img, err := rasterize(&buf, v)
	if err != nil {
		return v, err
	}
	if err := png.Encode(w, img); err != nil {
		return v, fmt.Errorf("encode png: %w", err)
	}
	return v, nil
}

func rasterize(r io.Reader, v ViewState) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(r, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	wpx, hpx := v.Width, int(v.Height+0.5)
	if hpx <= 0 {
		hpx = 1
	}
	icon.SetTarget(0, 0, float64(wpx), float64(hpx))
	img := image.NewRGBA(image.Rect(0, 0, wpx, hpx))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(wpx, hpx, img, img.Bounds())
	dasher := rasterx.NewDasher(wpx, hpx, scanner)
	icon.Draw(dasher, 1.0)
	return img, nil
}
