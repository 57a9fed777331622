package render

import (
	"fmt"
	"os"
	"strings"

	"copyright-map/internal/classify"

	"gopkg.in/yaml.v3"
)

// 文档注释：地图配色与说明文字
// 背景：样式与代码分离，运营侧可通过 THEME_PATH 指向 YAML 文件调整配色与脚注，无需重新构建。
// 约束：文件中缺省的字段沿用 DefaultTheme；fills 的键为类名（term-less 等），未知键忽略。
type Theme struct {
	Fills        map[string]string `yaml:"fills"`
	Unclassified string            `yaml:"unclassified"`
	Stroke       string            `yaml:"stroke"`
	StrokeWidth  float64           `yaml:"stroke_width"`
	Texture      TextureStyle      `yaml:"texture"`
	Caption      string            `yaml:"caption"`
	CaptionColor string            `yaml:"caption_color"`
	// Parallel 投影标准纬线（度）；缺省为 DefaultParallel，0 表示赤道
	Parallel     *float64          `yaml:"parallel,omitempty"`
}

// TextureStyle 斜线纹理
type TextureStyle struct {
	Color   string  `yaml:"color"`
	Spacing int     `yaml:"spacing"`
	Width   float64 `yaml:"width"`
	Angle   float64 `yaml:"angle"`
}

func DefaultTheme() Theme {
	return Theme{
		Fills: map[string]string{
			string(classify.Less):    "#eff3ff",
			string(classify.Fifty):   "#bdd7e7",
			string(classify.Middle):  "#6baed6",
			string(classify.Seventy): "#3182bd",
			string(classify.More):    "#08519c",
		},
		Unclassified: "#dddddd",
		Stroke:       "#ffffff",
		StrokeWidth:  0.5,
		Texture: TextureStyle{
			Color:   "#333333",
			Spacing: 4,
			Width:   1,
			Angle:   45,
		},
		Caption:      "Copyright term: life of the author plus the number of years shown.",
		CaptionColor: "#666666",
	}
}

// LoadTheme 读取 YAML 并覆盖默认值
func LoadTheme(path string) (Theme, error) {
	th := DefaultTheme()
	b, err := os.ReadFile(path)
	if err != nil {
		return th, err
	}
	var in Theme
	if err := yaml.Unmarshal(b, &in); err != nil {
		return th, fmt.Errorf("parse theme %s: %w", path, err)
	}
	for k, v := range in.Fills {
		if _, known := th.Fills[k]; known && v != "" {
			th.Fills[k] = v
		}
	}
	if in.Unclassified != "" {
		th.Unclassified = in.Unclassified
	}
	if in.Stroke != "" {
		th.Stroke = in.Stroke
	}
	if in.StrokeWidth > 0 {
		th.StrokeWidth = in.StrokeWidth
	}
	if in.Texture.Color != "" {
		th.Texture.Color = in.Texture.Color
	}
	if in.Texture.Spacing > 0 {
		th.Texture.Spacing = in.Texture.Spacing
	}
	if in.Texture.Width > 0 {
		th.Texture.Width = in.Texture.Width
	}
	if in.Texture.Angle != 0 {
		th.Texture.Angle = in.Texture.Angle
	}
	if in.Caption != "" {
		th.Caption = in.Caption
	}
	if in.CaptionColor != "" {
		th.CaptionColor = in.CaptionColor
	}
	if in.Parallel != nil {
		v := *in.Parallel
		th.Parallel = &v
	}
	return th, nil
}

func (t Theme) parallel() float64 {
	if t.Parallel == nil {
		return DefaultParallel
	}
	return *t.Parallel
}

// fill 返回类对应的颜色
func (t Theme) fill(c classify.Class) string {
	if c == classify.Unclassified {
		return t.Unclassified
	}
	if v, ok := t.Fills[string(c)]; ok {
		return v
	}
	return t.Unclassified
}

// stylesheet 生成嵌入 SVG 的样式表
// 约束：内容不得包含 < 或 &，以便直接作为 style 元素文本写出。
func (t Theme) stylesheet() string {
	var b strings.Builder
	fmt.Fprintf(&b, ".borders path { fill: %s; stroke: %s; stroke-width: %g; }\n", t.Unclassified, t.Stroke, t.StrokeWidth)
	for _, c := range classify.Classes {
		fmt.Fprintf(&b, ".borders path.%s { fill: %s; }\n", c, t.fill(c))
	}
	fmt.Fprintf(&b, ".texture path { fill: url(#%s); stroke: none; pointer-events: none; }\n", textureID)
	fmt.Fprintf(&b, "#footer { font: 12px sans-serif; fill: %s; }\n", t.CaptionColor)
	b.WriteString(".map.mobile #footer { font-size: 10px; }\n")
	return b.String()
}
