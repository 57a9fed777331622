package borders

import (
	"path/filepath"
	"strings"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTopoJSONDecodesSharedArcs(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "mini-topo.json"), "")
	require.NoError(t, err)
	require.Len(t, c.Features, 2)

	a := c.Features[0]
	assert.Equal(t, "AAA", a.ID)
	assert.Equal(t, "AA", a.Alpha2)
	assert.Equal(t, "Alpha", a.Name)
	require.Len(t, a.Polys, 1)
	assert.Equal(t, []Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}, a.Polys[0].Rings[0])
	assert.Equal(t, [4]float64{0, 0, 10, 10}, a.BBox)

	b := c.Features[1]
	assert.Equal(t, "BBB", b.ID)
	assert.Equal(t, "BB", b.Alpha2)
	assert.Equal(t, "Beta", b.Name)
	assert.Equal(t, []Point{{10, 10}, {20, 10}, {20, 0}, {10, 0}, {10, 10}}, b.Polys[0].Rings[0])
}

func TestLoadTopoJSONMissingObject(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "mini-topo.json"), "countries")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLoadTopoJSONSingleObjectFallback(t *testing.T) {
	topo := `{"type":"Topology","objects":{"countries":{"type":"GeometryCollection","geometries":[
		{"type":"Polygon","id":"CCC","arcs":[[0]]}]}},
		"arcs":[[[0,0],[0,1],[1,1],[0,0]]]}`
	c, err := LoadTopoJSON(strings.NewReader(topo), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"CCC"}, c.IDs())

	_, err = LoadTopoJSON(strings.NewReader(topo), DefaultObject)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLoadTopoJSONRejectsGeoJSON(t *testing.T) {
	_, err := LoadTopoJSON(strings.NewReader(`{"type":"FeatureCollection","features":[]}`), "")
	assert.ErrorIs(t, err, ErrNotTopology)
}

func TestStitchRingReversedArc(t *testing.T) {
	arcs := [][]Point{
		{{0, 0}, {0, 10}, {10, 10}},
		{{10, 10}, {10, 0}},
		{{0, 0}, {10, 0}},
	}
	// ~2 reverses the last arc: (10,0) -> (0,0)
	ring, err := stitchRing([]int{0, 1, ^2}, arcs)
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}, ring)

	_, err = stitchRing([]int{7}, arcs)
	assert.Error(t, err)
}

func TestLoadGeoJSON(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "mini.geojson"), "")
	require.NoError(t, err)
	require.Len(t, c.Features, 2)

	assert.Equal(t, "840", c.Features[0].ID, "numeric ids are kept as text")
	assert.Equal(t, "US", c.Features[0].Alpha2)

	kos := c.Features[1]
	assert.Equal(t, "KOS", kos.ID, "-99 falls back to adm0_a3")
	assert.Len(t, kos.Polys, 2)
	assert.Equal(t, [4]float64{20, 42, 23, 43}, kos.BBox)
}

func TestCollectionLookups(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "mini-topo.json"), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB"}, c.IDs())

	f, ok := c.ByAlpha2("bb")
	require.True(t, ok)
	assert.Equal(t, "BBB", f.ID)

	_, ok = c.ByAlpha2("")
	assert.False(t, ok)

	_, ok = c.ByID("ZZZ")
	assert.False(t, ok)
}

func TestGroupRingsByWinding(t *testing.T) {
	outer := []Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}} // clockwise
	hole := []Point{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}       // counter-clockwise
	island := []Point{{20, 0}, {20, 5}, {25, 5}, {25, 0}, {20, 0}}

	polys := groupRings([][]Point{outer, hole, island})
	require.Len(t, polys, 2)
	assert.Len(t, polys[0].Rings, 2)
	assert.Len(t, polys[1].Rings, 1)
}

func TestLoadShapefileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	parts := [][]shp.Point{
		{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}},
		{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}},
	}
	poly := shp.Polygon(*shp.NewPolyLine(parts))
	w.Write(&poly)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("ISO_A3", 3),
		shp.StringField("ISO_A2", 2),
		shp.StringField("NAME", 16),
	}))
	require.NoError(t, w.WriteAttribute(0, 0, "CCC"))
	require.NoError(t, w.WriteAttribute(0, 1, "CC"))
	require.NoError(t, w.WriteAttribute(0, 2, "Gamma"))
	w.Close()

	c, err := Load(path, "")
	require.NoError(t, err)
	require.Len(t, c.Features, 1)
	f := c.Features[0]
	assert.Equal(t, "CCC", f.ID)
	assert.Equal(t, "CC", f.Alpha2)
	assert.Equal(t, "Gamma", f.Name)
	require.Len(t, f.Polys, 1)
	assert.Len(t, f.Polys[0].Rings, 2)
}
