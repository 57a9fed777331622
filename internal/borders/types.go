package borders

// 文档注释：国家边界要素的最小数据结构
// 背景：统一承载 TopoJSON/GeoJSON/Shapefile 三种来源转换后的几何，加载一次后只读，供分类与渲染共享。
// 约束：几何仅保留 Polygon/MultiPolygon；多面与洞以环列表表达，第一环为外环，其余为洞。
type Feature struct {
	ID     string
	Name   string
	Alpha2 string
	Polys  []Polygon
	BBox   [4]float64 // minLon, minLat, maxLon, maxLat
}

// Polygon：按 GeoJSON 约定的环集合，第一环是外环，其后为洞
type Polygon struct {
	Rings [][]Point
}

// 点坐标（经纬度，WGS84）
type Point struct {
	Lon float64
	Lat float64
}

// Collection：一次加载得到的要素集合
type Collection struct {
	Features []Feature
}

// IDs 按加载顺序返回要素编码
func (c *Collection) IDs() []string {
	out := make([]string, 0, len(c.Features))
	for _, f := range c.Features {
		out = append(out, f.ID)
	}
	return out
}

// ByAlpha2 查找 ISO alpha-2 编码匹配的第一个要素
func (c *Collection) ByAlpha2(a2 string) (*Feature, bool) {
	if a2 == "" {
		return nil, false
	}
	for i := range c.Features {
		if equalFoldASCII(c.Features[i].Alpha2, a2) {
			return &c.Features[i], true
		}
	}
	return nil, false
}

// ByID 查找编码匹配的第一个要素
func (c *Collection) ByID(id string) (*Feature, bool) {
	for i := range c.Features {
		if c.Features[i].ID == id {
			return &c.Features[i], true
		}
	}
	return nil, false
}

func computeBBox(polys []Polygon) [4]float64 {
	b := [4]float64{180, 90, -180, -90}
	for _, p := range polys {
		for _, r := range p.Rings {
			for _, pt := range r {
				if pt.Lon < b[0] {
					b[0] = pt.Lon
				}
				if pt.Lat < b[1] {
					b[1] = pt.Lat
				}
				if pt.Lon > b[2] {
					b[2] = pt.Lon
				}
				if pt.Lat > b[3] {
					b[3] = pt.Lat
				}
			}
		}
	}
	return b
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 32
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 32
		}
		if ca != cb {
			return false
		}
	}
	return true
}
