package borders

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultObject 是 Natural Earth 1:110m 国家边界在拓扑文件中的对象名
const DefaultObject = "ne_110m_admin_0_countries"

var (
	ErrNotTopology    = errors.New("borders: not a topology")
	ErrObjectNotFound = errors.New("borders: topology object not found")
)

type topology struct {
	Type      string                     `json:"type"`
	Transform *topoTransform             `json:"transform"`
	Objects   map[string]json.RawMessage `json:"objects"`
	Arcs      [][][]float64              `json:"arcs"`
}

type topoTransform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

type topoGeometry struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id"`
	Properties map[string]any  `json:"properties"`
	Arcs       json.RawMessage `json:"arcs"`
	Geometries []topoGeometry  `json:"geometries"`
}

// 文档注释：读取 TopoJSON 并将指定对象转换为独立多边形要素
// 背景：拓扑格式以共享弧段压缩边界，渲染前需一次性还原为每个国家自己的环。
// 约束：仅支持 Polygon/MultiPolygon/GeometryCollection；其它几何（点、线）跳过；object 为空时使用 DefaultObject，文件只有一个对象时直接使用该对象。
func LoadTopoJSON(r io.Reader, object string) (*Collection, error) {
	var topo topology
	if err := json.NewDecoder(r).Decode(&topo); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	if !strings.EqualFold(topo.Type, "Topology") {
		return nil, ErrNotTopology
	}
	explicit := object != ""
	if !explicit {
		object = DefaultObject
	}
	raw, ok := topo.Objects[object]
	if !ok && !explicit && len(topo.Objects) == 1 {
		for name, only := range topo.Objects {
			object, raw, ok = name, only, true
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, object)
	}
	var root topoGeometry
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("decode object %s: %w", object, err)
	}
	arcs := decodeArcs(topo.Arcs, topo.Transform)
	c := &Collection{}
	if err := collectTopo(c, root, arcs); err != nil {
		return nil, err
	}
	return c, nil
}

func collectTopo(c *Collection, g topoGeometry, arcs [][]Point) error {
	switch strings.ToLower(g.Type) {
	case "geometrycollection":
		for _, child := range g.Geometries {
			if err := collectTopo(c, child, arcs); err != nil {
				return err
			}
		}
		return nil
	case "polygon":
		var rings [][]int
		if err := json.Unmarshal(g.Arcs, &rings); err != nil {
			return fmt.Errorf("decode polygon arcs: %w", err)
		}
		poly, err := topoPolygon(rings, arcs)
		if err != nil {
			return err
		}
		c.Features = append(c.Features, newFeature(g, []Polygon{poly}))
		return nil
	case "multipolygon":
		var parts [][][]int
		if err := json.Unmarshal(g.Arcs, &parts); err != nil {
			return fmt.Errorf("decode multipolygon arcs: %w", err)
		}
		polys := make([]Polygon, 0, len(parts))
		for _, rings := range parts {
			poly, err := topoPolygon(rings, arcs)
			if err != nil {
				return err
			}
			polys = append(polys, poly)
		}
		c.Features = append(c.Features, newFeature(g, polys))
		return nil
	}
	return nil
}

func newFeature(g topoGeometry, polys []Polygon) Feature {
	id, a2, name := identify(g.ID, g.Properties)
	return Feature{ID: id, Alpha2: a2, Name: name, Polys: polys, BBox: computeBBox(polys)}
}

func topoPolygon(rings [][]int, arcs [][]Point) (Polygon, error) {
	var poly Polygon
	for _, ring := range rings {
		pts, err := stitchRing(ring, arcs)
		if err != nil {
			return Polygon{}, err
		}
		poly.Rings = append(poly.Rings, pts)
	}
	return poly, nil
}

// 按弧段索引拼接环：负索引 ~i 表示反向使用第 i 条弧；相邻弧共享端点，拼接时去掉重复点
func stitchRing(idx []int, arcs [][]Point) ([]Point, error) {
	var out []Point
	for k, i := range idx {
		rev := i < 0
		if rev {
			i = ^i
		}
		if i >= len(arcs) {
			return nil, fmt.Errorf("arc index %d out of range (%d arcs)", i, len(arcs))
		}
		a := arcs[i]
		if k > 0 && len(out) > 0 {
			out = out[:len(out)-1]
		}
		if rev {
			for j := len(a) - 1; j >= 0; j-- {
				out = append(out, a[j])
			}
		} else {
			out = append(out, a...)
		}
	}
	return out, nil
}

// 量化拓扑的弧段为差分编码，需累加后再乘比例加平移
func decodeArcs(raw [][][]float64, tr *topoTransform) [][]Point {
	out := make([][]Point, len(raw))
	for i, arc := range raw {
		pts := make([]Point, 0, len(arc))
		var x, y float64
		for _, p := range arc {
			if len(p) < 2 {
				continue
			}
			if tr == nil {
				pts = append(pts, Point{Lon: p[0], Lat: p[1]})
				continue
			}
			x += p[0]
			y += p[1]
			pts = append(pts, Point{
				Lon: x*tr.Scale[0] + tr.Translate[0],
				Lat: y*tr.Scale[1] + tr.Translate[1],
			})
		}
		out[i] = pts
	}
	return out
}
