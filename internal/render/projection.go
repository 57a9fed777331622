package render

import (
	"math"
	"strconv"
	"strings"

	"copyright-map/internal/borders"
)

// 等积圆柱投影参数：标准纬线 38.58° 时世界地图宽高比约为 2:1，与 5:2 画布相配
const (
	DefaultParallel = 38.58
	defaultScale    = 175.0
	coordPrecision  = 100.0 // 路径坐标保留两位小数
)

// projection：等积圆柱投影 + 缩放 + 平移，中心固定在 [0,0]
type projection struct {
	scale  float64
	tx     float64
	ty     float64
	cosPar float64
}

// newProjection parallelDeg 为标准纬线（度），0 即 Lambert 等积圆柱投影
func newProjection(v ViewState, parallelDeg float64) projection {
	factor := float64(v.Width) / DefaultWidth
	return projection{
		scale:  defaultScale * factor,
		tx:     float64(v.Width) / 2,
		ty:     v.Height / 2,
		cosPar: math.Cos(parallelDeg * math.Pi / 180),
	}
}

// project 经纬度（度）→ 屏幕坐标（像素，y 轴向下）
func (p projection) project(pt borders.Point) (float64, float64) {
	lambda := pt.Lon * math.Pi / 180
	phi := pt.Lat * math.Pi / 180
	x := lambda * p.cosPar
	y := math.Sin(phi) / p.cosPar
	return p.tx + p.scale*x, p.ty - p.scale*y
}

// 文档注释：把要素的全部多边形写成 SVG path 数据
// 背景：每个环输出 M…L…Z；首尾重复点由 Z 闭合，不再重复输出。
// 约束：少于两个点的环跳过；无可绘制环时返回空串，调用方据此不输出 path。
func (p projection) pathData(f *borders.Feature) string {
	var b strings.Builder
	for _, poly := range f.Polys {
		for _, ring := range poly.Rings {
			n := len(ring)
			if n > 1 && ring[0] == ring[n-1] {
				n--
			}
			if n < 2 {
				continue
			}
			for i := 0; i < n; i++ {
				x, y := p.project(ring[i])
				if i == 0 {
					b.WriteByte('M')
				} else {
					b.WriteByte('L')
				}
				b.WriteString(formatCoord(x))
				b.WriteByte(',')
				b.WriteString(formatCoord(y))
			}
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func formatCoord(v float64) string {
	r := math.Round(v*coordPrecision) / coordPrecision
	if r == 0 {
		r = 0 // 去掉 -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
