package borders

import (
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"
)

// 文档注释：读取 Natural Earth 形式的 Shapefile（.shp + .dbf）
// 背景：Natural Earth 原始发布为 Shapefile，直接读取可省去拓扑转换步骤；属性表字段与 GeoJSON 属性同名。
// 约束：仅处理 Polygon 形状；Shapefile 外环为顺时针、洞为逆时针，据此把平铺的环重新分组为多面。
func LoadShapefile(path string) (*Collection, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	c := &Collection{}
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		props := make(map[string]any, len(fields))
		for i, f := range fields {
			props[strings.TrimRight(f.String(), "\x00 ")] = strings.TrimRight(r.ReadAttribute(idx, i), "\x00 ")
		}
		polys := groupRings(splitParts(poly))
		id, a2, name := identify(nil, props)
		c.Features = append(c.Features, Feature{ID: id, Alpha2: a2, Name: name, Polys: polys, BBox: computeBBox(polys)})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	return c, nil
}

func splitParts(poly *shp.Polygon) [][]Point {
	n := len(poly.Parts)
	rings := make([][]Point, 0, n)
	for p := 0; p < n; p++ {
		start := poly.Parts[p]
		end := int32(len(poly.Points))
		if p+1 < n {
			end = poly.Parts[p+1]
		}
		ring := make([]Point, 0, end-start)
		for i := start; i < end; i++ {
			pt := poly.Points[i]
			ring = append(ring, Point{Lon: pt.X, Lat: pt.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}

// 顺时针环开启新多边形，逆时针环作为前一个多边形的洞；首环若为逆时针也按外环处理
func groupRings(rings [][]Point) []Polygon {
	var out []Polygon
	for _, r := range rings {
		if len(out) == 0 || signedArea(r) <= 0 {
			out = append(out, Polygon{Rings: [][]Point{r}})
			continue
		}
		last := &out[len(out)-1]
		last.Rings = append(last.Rings, r)
	}
	return out
}

// 鞋带公式；经纬度平面上逆时针为正
func signedArea(ring []Point) float64 {
	var s float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		s += ring[i].Lon*ring[j].Lat - ring[j].Lon*ring[i].Lat
	}
	return s / 2
}
