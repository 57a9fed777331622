package render

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"copyright-map/internal/borders"
	"copyright-map/internal/classify"
	"copyright-map/internal/terms"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(id, a2 string, lon, lat, size float64) borders.Feature {
	ring := []borders.Point{
		{Lon: lon, Lat: lat},
		{Lon: lon, Lat: lat + size},
		{Lon: lon + size, Lat: lat + size},
		{Lon: lon + size, Lat: lat},
		{Lon: lon, Lat: lat},
	}
	return borders.Feature{ID: id, Alpha2: a2, Polys: []borders.Polygon{{Rings: [][]borders.Point{ring}}}}
}

func sampleData() Data {
	return Data{
		Borders: &borders.Collection{Features: []borders.Feature{
			square("USA", "US", -100, 30, 10),
			square("CAN", "CA", -100, 50, 10),
			square("MEX", "MX", -105, 15, 10),
			square("ATA", "AQ", 0, -80, 10),
			{ID: "EMPTY"},
		}},
		Terms: terms.NewTable([]terms.Record{
			{Code: "USA", Term: "70"},
			{Code: "CAN", Term: "50"},
			{Code: "MEX", Term: "100"},
		}),
	}
}

func TestNewViewStateMobileBoundary(t *testing.T) {
	assert.True(t, NewViewState(320).Mobile)
	assert.True(t, NewViewState(600).Mobile)
	assert.False(t, NewViewState(601).Mobile)
	assert.False(t, NewViewState(940).Mobile)

	v := NewViewState(0)
	assert.Equal(t, DefaultWidth, v.Width)
	assert.InDelta(t, 376.0, v.Height, 1e-9)
}

func TestViewStateProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("mobile iff width <= 600", prop.ForAll(
		func(w int) bool {
			return NewViewState(w).Mobile == (w <= MobileThreshold)
		},
		gen.IntRange(1, 4000),
	))
	properties.Property("height keeps the 5:2 aspect", prop.ForAll(
		func(w int) bool {
			v := NewViewState(w)
			return math.Abs(float64(v.Width)/v.Height-AspectRatio) < 1e-9
		},
		gen.IntRange(1, 4000),
	))

	properties.TestingRun(t)
}

func TestProjectionCentresOrigin(t *testing.T) {
	p := newProjection(NewViewState(940), DefaultParallel)
	x, y := p.project(borders.Point{})
	assert.InDelta(t, 470, x, 1e-9)
	assert.InDelta(t, 188, y, 1e-9)

	xe, _ := p.project(borders.Point{Lon: 180})
	assert.InDelta(t, 470+175*math.Pi*math.Cos(DefaultParallel*math.Pi/180), xe, 1e-9)

	_, yn := p.project(borders.Point{Lat: 30})
	assert.Less(t, yn, 188.0, "north is up")
}

func TestProjectionEquatorParallel(t *testing.T) {
	p := newProjection(NewViewState(940), 0)
	xe, _ := p.project(borders.Point{Lon: 180})
	assert.InDelta(t, 470+175*math.Pi, xe, 1e-9)
	_, yn := p.project(borders.Point{Lat: 90})
	assert.InDelta(t, 188-175, yn, 1e-9)
}

func TestThemeParallelChangesPaths(t *testing.T) {
	lambert := DefaultTheme()
	zero := 0.0
	lambert.Parallel = &zero

	var a, b bytes.Buffer
	_, err := Render(&a, sampleData(), Options{Width: 940})
	require.NoError(t, err)
	_, err = Render(&b, sampleData(), Options{Width: 940, Theme: &lambert})
	require.NoError(t, err)
	assert.NotEqual(t, a.String(), b.String())
	assert.Equal(t, DefaultParallel, DefaultTheme().parallel())
	assert.Equal(t, 0.0, lambert.parallel())
}

func TestFormatCoord(t *testing.T) {
	assert.Equal(t, "1.23", formatCoord(1.234))
	assert.Equal(t, "1.5", formatCoord(1.5))
	assert.Equal(t, "0", formatCoord(-0.001))
	assert.Equal(t, "-12", formatCoord(-12))
}

func TestPathDataClosesRings(t *testing.T) {
	p := newProjection(NewViewState(940), DefaultParallel)
	f := square("X", "", 0, 0, 10)
	d := p.pathData(&f)
	assert.True(t, strings.HasPrefix(d, "M470,188L"))
	assert.Equal(t, 1, strings.Count(d, "M"))
	assert.Equal(t, 3, strings.Count(d, "L"), "closing point is replaced by Z")
	assert.True(t, strings.HasSuffix(d, "Z"))

	empty := borders.Feature{ID: "E"}
	assert.Equal(t, "", p.pathData(&empty))
}

func TestRenderClassesAndCaption(t *testing.T) {
	var buf bytes.Buffer
	v, err := Render(&buf, sampleData(), Options{Width: 940})
	require.NoError(t, err)
	assert.False(t, v.Mobile)

	out := buf.String()
	assert.Contains(t, out, `width="940"`)
	assert.Contains(t, out, `height="376"`)
	assert.Contains(t, out, `class="map"`)
	assert.Contains(t, out, `<g class="borders"`)
	assert.Contains(t, out, `id="USA" class="term-70"`)
	assert.Contains(t, out, `id="CAN" class="term-50"`)
	assert.Contains(t, out, `id="MEX" class="term-more"`)
	assert.Contains(t, out, `id="ATA" class=""`)
	assert.Contains(t, out, `<path d="" id="EMPTY" class=""`, "features without geometry keep their element")
	assert.Contains(t, out, `<text x="0" y="372.24" id="footer">`)
	assert.Contains(t, out, DefaultTheme().Caption)
	assert.NotContains(t, out, textureID+`"`, "no pattern without a textured country")
}

func TestRenderMobileAndTexture(t *testing.T) {
	var buf bytes.Buffer
	v, err := Render(&buf, sampleData(), Options{Width: 480, TextureID: "USA"})
	require.NoError(t, err)
	assert.True(t, v.Mobile)

	out := buf.String()
	assert.Contains(t, out, `class="map mobile"`)
	assert.Contains(t, out, `<pattern id="texture-lines"`)
	assert.Contains(t, out, `<g class="texture"`)
	assert.Contains(t, out, `data-id="USA"`)
}

func TestRenderUnknownTextureIgnored(t *testing.T) {
	var buf bytes.Buffer
	_, err := Render(&buf, sampleData(), Options{Width: 700, TextureID: "ZZZ"})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), `class="texture"`)
}

func TestRenderIsIdempotent(t *testing.T) {
	d := sampleData()
	var a, b bytes.Buffer
	_, err := Render(&a, d, Options{Width: 812, TextureID: "CAN"})
	require.NoError(t, err)
	_, err = Render(&b, d, Options{Width: 812, TextureID: "CAN"})
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, classify.Assign(d.Borders, d.Terms), classify.Assign(d.Borders, d.Terms))
}

func TestRenderInlineFills(t *testing.T) {
	var buf bytes.Buffer
	_, err := Render(&buf, sampleData(), Options{Width: 940, InlineFills: true, TextureID: "USA"})
	require.NoError(t, err)
	out := buf.String()
	th := DefaultTheme()
	assert.Contains(t, out, `fill="`+th.Fills[string(classify.Seventy)]+`"`)
	assert.Contains(t, out, `fill="`+th.Unclassified+`"`)
	assert.NotContains(t, out, "<style>")
	assert.NotContains(t, out, "<pattern")
	assert.NotContains(t, out, `id="EMPTY"`, "empty paths are left out of raster input")
}

func TestRenderNoBorders(t *testing.T) {
	_, err := Render(&bytes.Buffer{}, Data{}, Options{})
	assert.ErrorIs(t, err, ErrNoBorders)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRenderReportsWriteError(t *testing.T) {
	_, err := Render(failWriter{}, sampleData(), Options{Width: 940})
	assert.Error(t, err)
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	v, err := RenderPNG(&buf, sampleData(), Options{Width: 500, TextureID: "MEX"})
	require.NoError(t, err)
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
	assert.Equal(t, int(v.Height+0.5), img.Bounds().Dy())
}

func TestLoadThemeOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fills:
  term-70: "#ff0000"
  term-bogus: "#00ff00"
caption: "Source: WIPO"
texture:
  spacing: 6
parallel: 0
`), 0o644))

	th, err := LoadTheme(path)
	require.NoError(t, err)
	def := DefaultTheme()
	assert.Equal(t, "#ff0000", th.Fills["term-70"])
	assert.Equal(t, def.Fills["term-50"], th.Fills["term-50"])
	assert.NotContains(t, th.Fills, "term-bogus")
	assert.Equal(t, "Source: WIPO", th.Caption)
	assert.Equal(t, 6, th.Texture.Spacing)
	assert.Equal(t, def.Texture.Color, th.Texture.Color)
	require.NotNil(t, th.Parallel)
	assert.Equal(t, 0.0, th.parallel())
	assert.Nil(t, def.Parallel)

	_, err = LoadTheme(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStylesheetIsCSSSafe(t *testing.T) {
	th := DefaultTheme()
	th.Unclassified = "#ddd</style><script>"
	css := cssSafe(th.stylesheet())
	assert.NotContains(t, css, "<")
	assert.Contains(t, css, ".borders path.term-more")
}
