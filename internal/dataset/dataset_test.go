package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"copyright-map/internal/borders"
	"copyright-map/internal/terms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBorders struct {
	c     *borders.Collection
	err   error
	order *[]string
}

func (f fakeBorders) Load(context.Context) (*borders.Collection, error) {
	if f.order != nil {
		*f.order = append(*f.order, "borders")
	}
	return f.c, f.err
}

type fakeTerms struct {
	t     *terms.Table
	err   error
	order *[]string
}

func (f fakeTerms) Load(context.Context) (*terms.Table, error) {
	if f.order != nil {
		*f.order = append(*f.order, "terms")
	}
	return f.t, f.err
}

func sample() (*borders.Collection, *terms.Table) {
	return &borders.Collection{Features: []borders.Feature{{ID: "USA"}, {ID: "CAN"}}},
		terms.NewTable([]terms.Record{{Code: "USA", Term: "70"}})
}

func TestLoadOrderAndFingerprint(t *testing.T) {
	var order []string
	b, tb := sample()
	d, err := Load(context.Background(), fakeBorders{c: b, order: &order}, fakeTerms{t: tb, order: &order})
	require.NoError(t, err)
	assert.Equal(t, []string{"borders", "terms"}, order)
	assert.NotEmpty(t, d.Fingerprint)
	assert.False(t, d.LoadedAt.IsZero())

	again, err := Load(context.Background(), fakeBorders{c: b}, fakeTerms{t: tb})
	require.NoError(t, err)
	assert.Equal(t, d.Fingerprint, again.Fingerprint)

	changed, err := Load(context.Background(), fakeBorders{c: b}, fakeTerms{t: terms.NewTable([]terms.Record{{Code: "USA", Term: "95"}})})
	require.NoError(t, err)
	assert.NotEqual(t, d.Fingerprint, changed.Fingerprint)
}

func TestLoadStopsOnBorderError(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	_, err := Load(context.Background(), fakeBorders{err: boom, order: &order}, fakeTerms{order: &order})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"borders"}, order, "terms are not loaded when borders fail")

	b, _ := sample()
	_, err = Load(context.Background(), fakeBorders{c: b}, fakeTerms{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestHolder(t *testing.T) {
	var h Holder
	assert.Nil(t, h.Get())
	h.Set(nil)
	assert.Nil(t, h.Get())

	b, tb := sample()
	d := &Dataset{Borders: b, Terms: tb}
	h.Set(d)
	assert.Same(t, d, h.Get())
	assert.Equal(t, b, h.Get().RenderData().Borders)
}

func TestReloaderKeepsPreviousOnError(t *testing.T) {
	b, tb := sample()
	h := &Holder{}
	r := &Reloader{Holder: h, Borders: fakeBorders{c: b}, Terms: fakeTerms{t: tb}}
	first, err := r.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, h.Get())

	r.Terms = fakeTerms{err: errors.New("csv gone")}
	_, err = r.Reload(context.Background())
	assert.Error(t, err)
	assert.Same(t, first, h.Get())
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "copyright-terms.csv")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("ccode,term\nUSA,70\n"), 0o644))

	var calls atomic.Int32
	w, err := Watch([]string{path}, 20*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load(), "untracked files do not trigger reloads")

	require.NoError(t, os.WriteFile(path, []byte("ccode,term\nUSA,95\n"), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Close())
}
