package borders

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type geoFeature struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id"`
	Properties map[string]any  `json:"properties"`
	Geometry   *geoGeometry    `json:"geometry"`
	Features   []geoFeature    `json:"features"`
}

type geoGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// 文档注释：读取 GeoJSON（FeatureCollection 或单个 Feature）
// 背景：便于直接使用已展开的边界文件，不必先生成拓扑；编码与属性规则与 TopoJSON 一致。
// 约束：无几何或非面几何的要素跳过。
func LoadGeoJSON(r io.Reader) (*Collection, error) {
	var root geoFeature
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	c := &Collection{}
	switch strings.ToLower(root.Type) {
	case "featurecollection":
		for _, f := range root.Features {
			if err := addGeoFeature(c, f); err != nil {
				return nil, err
			}
		}
	case "feature":
		if err := addGeoFeature(c, root); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("decode geojson: unsupported root type %q", root.Type)
	}
	return c, nil
}

func addGeoFeature(c *Collection, f geoFeature) error {
	if f.Geometry == nil {
		return nil
	}
	var polys []Polygon
	switch strings.ToLower(f.Geometry.Type) {
	case "polygon":
		var rings [][][]float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &rings); err != nil {
			return fmt.Errorf("decode polygon: %w", err)
		}
		polys = append(polys, toPolygon(rings))
	case "multipolygon":
		var parts [][][][]float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &parts); err != nil {
			return fmt.Errorf("decode multipolygon: %w", err)
		}
		for _, rings := range parts {
			polys = append(polys, toPolygon(rings))
		}
	default:
		return nil
	}
	id, a2, name := identify(f.ID, f.Properties)
	c.Features = append(c.Features, Feature{ID: id, Alpha2: a2, Name: name, Polys: polys, BBox: computeBBox(polys)})
	return nil
}

func toPolygon(rings [][][]float64) Polygon {
	var poly Polygon
	for _, ring := range rings {
		rr := make([]Point, 0, len(ring))
		for _, p := range ring {
			if len(p) >= 2 {
				rr = append(rr, Point{Lon: p[0], Lat: p[1]})
			}
		}
		poly.Rings = append(poly.Rings, rr)
	}
	return poly
}
