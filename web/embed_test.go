package web

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexPage(t *testing.T) {
	b, err := fs.ReadFile(FS(), "index.html")
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, `<div id="map"></div>`)
	assert.Contains(t, s, `config.js`)
	assert.Contains(t, s, `/map.svg?width=`)
	assert.Contains(t, s, `graphic-wrapper`)
	assert.Contains(t, s, `throttle(render, 250)`)
}
