// 包 render：把边界与分类结果绘制为 SVG（以及基于 SVG 的 PNG）
package render

import (
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	"copyright-map/internal/borders"
	"copyright-map/internal/classify"
	"copyright-map/internal/terms"

	svg "github.com/ajstarks/svgo"
)

const textureID = "texture-lines"

var ErrNoBorders = errors.New("render: no border data")

// Data：一次渲染所需的只读输入
type Data struct {
	Borders *borders.Collection
	Terms   *terms.Table
}

// Options：渲染参数
// TextureID 为叠加斜线纹理的要素编码，空串表示不叠加；InlineFills 把颜色写成属性，供不解析 CSS 的光栅化器使用。
type Options struct {
	Width       int
	TextureID   string
	InlineFills bool
	Theme       *Theme
}

// 文档注释：完整重绘一张地图
// 背景：每次调用从零构建文档（分类、投影、路径全部重新计算），相同输入得到逐字节相同的输出，便于上层缓存。
// 约束：要素按加载顺序输出；未匹配到记录的要素写 class=""；无几何的要素仍输出 d="" 的 path（光栅化时跳过）；纹理要素不存在时静默忽略。
// 脚注 y 为高度的 0.99 倍，不取整。
func Render(w io.Writer, d Data, opts Options) (ViewState, error) {
	if d.Borders == nil {
		return ViewState{}, ErrNoBorders
	}
	th := DefaultTheme()
	if opts.Theme != nil {
		th = *opts.Theme
	}
	v := NewViewState(opts.Width)
	proj := newProjection(v, th.parallel())
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	rootClass := "map"
	if v.Mobile {
		rootClass += " mobile"
	}
	h := int(math.Round(v.Height))
	canvas.Start(v.Width, h,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, v.Width, h),
		fmt.Sprintf(`class="%s"`, rootClass),
	)
	textured, hasTexture := findTexture(d.Borders, opts.TextureID)
	if !opts.InlineFills {
		fmt.Fprintf(canvas.Writer, "<style>\n%s</style>\n", cssSafe(th.stylesheet()))
		if hasTexture {
			writePattern(canvas, th.Texture)
		}
	}

	canvas.Group(`class="borders"`)
	for i := range d.Borders.Features {
		f := &d.Borders.Features[i]
		pd := proj.pathData(f)
		if pd == "" && opts.InlineFills {
			continue
		}
		cls := classify.Feature(f.ID, d.Terms)
		attrs := []string{
			attr("id", f.ID),
			attr("class", string(cls)),
		}
		if opts.InlineFills {
			attrs = append(attrs,
				attr("fill", th.fill(cls)),
				attr("stroke", th.Stroke),
				fmt.Sprintf(`stroke-width="%g"`, th.StrokeWidth),
			)
		}
		canvas.Path(pd, attrs...)
	}
	canvas.Gend()

	if hasTexture {
		if pd := proj.pathData(textured); pd != "" {
			canvas.Group(`class="texture"`)
			if opts.InlineFills {
				canvas.Path(pd, attr("fill", th.Texture.Color), `fill-opacity="0.35"`, `stroke="none"`)
			} else {
				canvas.Path(pd, attr("data-id", textured.ID))
			}
			canvas.Gend()
		}
	}

	fmt.Fprintf(canvas.Writer, `<text x="0" y="%s" id="footer">%s</text>`+"\n",
		strconv.FormatFloat(v.Height*0.99, 'f', -1, 64), html.EscapeString(th.Caption))
	canvas.End()
	if ew.err != nil {
		return v, fmt.Errorf("write svg: %w", ew.err)
	}
	return v, nil
}

func findTexture(c *borders.Collection, id string) (*borders.Feature, bool) {
	if id == "" {
		return nil, false
	}
	return c.ByID(id)
}

// 斜线纹理：单位格内一条竖线，整体按角度旋转后平铺
func writePattern(canvas *svg.SVG, t TextureStyle) {
	spacing := t.Spacing
	if spacing <= 0 {
		spacing = 4
	}
	canvas.Def()
	canvas.Pattern(textureID, 0, 0, spacing, spacing, "user",
		fmt.Sprintf(`patternTransform="rotate(%g)"`, t.Angle))
	canvas.Line(0, 0, 0, spacing, attr("stroke", t.Color), fmt.Sprintf(`stroke-width="%g"`, t.Width))
	canvas.PatternEnd()
	canvas.DefEnd()
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

var cssReplacer = strings.NewReplacer("<", "", ">", "", "&", "")

func cssSafe(s string) string { return cssReplacer.Replace(s) }

// errWriter 记录第一次写错误；svgo 本身不返回错误
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
