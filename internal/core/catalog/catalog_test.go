package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return New("Tel Aviv", "events", []string{"Rock", "Jazz", "Pop"}, []Venue{
		{ID: "barby", Name: "Barby", Domains: []string{"https://Barby.co.il/"}},
		{ID: "zappa", Domains: []string{"zappa-club.co.il"}},
	})
}

func TestIsAllGenres(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name     string
		selected []string
		want     bool
	}{
		{name: "exact vocabulary", selected: []string{"Rock", "Jazz", "Pop"}, want: true},
		{name: "any order with duplicates", selected: []string{"pop", "Jazz", "ROCK", "jazz"}, want: true},
		{name: "superset with unknown label", selected: []string{"Rock", "Jazz", "Pop", "Polka"}, want: true},
		{name: "missing one", selected: []string{"Rock", "Jazz"}, want: false},
		{name: "empty", selected: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsAllGenres(tt.selected))
		})
	}
}

func TestGenreFilterActive(t *testing.T) {
	c := testCatalog()

	assert.False(t, c.GenreFilterActive(nil))
	assert.False(t, c.GenreFilterActive([]string{" ", ""}))
	assert.False(t, c.GenreFilterActive([]string{"Pop", "Rock", "Jazz"}))
	assert.True(t, c.GenreFilterActive([]string{"Jazz"}))
	assert.True(t, c.GenreFilterActive([]string{"Polka"}))
}

func TestVenueLookup(t *testing.T) {
	c := testCatalog()

	v, ok := c.Venue("barby")
	require.True(t, ok)
	assert.Equal(t, "Barby", v.Name)
	assert.Equal(t, "barby.co.il", v.PrimaryDomain())

	v, ok = c.Venue("zappa")
	require.True(t, ok)
	assert.Equal(t, "zappa", v.Name, "missing name falls back to id")

	assert.Equal(t, "Secret Garden", c.VenueDisplayName("Secret Garden"))

	_, ok = c.Venue("unknown")
	assert.False(t, ok)
}

func TestCatalogIsImmutable(t *testing.T) {
	genres := []string{"Rock"}
	c := New("", "", genres, nil)
	genres[0] = "Jazz"

	assert.Equal(t, []string{"Rock"}, c.Genres())

	got := c.Genres()
	got[0] = "Pop"
	assert.Equal(t, []string{"Rock"}, c.Genres())
}

func TestLoader(t *testing.T) {
	t.Run("empty path serves default", func(t *testing.T) {
		l, err := NewLoader("", nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultCity, l.Current().City())
		assert.Len(t, l.Current().Genres(), len(DefaultGenres))
	})

	t.Run("reads yaml file and reloads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
city: Haifa
genres: [Jazz, Blues]
venues:
  - id: syncopa
    name: Syncopa
    domains: [syncopa.co.il]
`), 0o600))

		l, err := NewLoader(path, nil)
		require.NoError(t, err)

		c := l.Current()
		assert.Equal(t, "Haifa", c.City())
		assert.Equal(t, DefaultTopic, c.Topic())
		assert.Equal(t, []string{"Jazz", "Blues"}, c.Genres())
		assert.Equal(t, "Syncopa", c.VenueDisplayName("syncopa"))

		require.NoError(t, os.WriteFile(path, []byte("city: Eilat\n"), 0o600))
		require.NoError(t, l.Reload())

		assert.Equal(t, "Eilat", l.Current().City())
		assert.Equal(t, "Haifa", c.City(), "earlier snapshot is unchanged")
	})

	t.Run("broken file fails initial load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("genres: [unterminated"), 0o600))

		_, err := NewLoader(path, nil)
		require.Error(t, err)
	})
}

func TestLoaderWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("city: Haifa\n"), 0o600))

	l, err := NewLoader(path, nil)
	require.NoError(t, err)

	stop, err := l.Watch()
	require.NoError(t, err)
	t.Cleanup(stop)

	waitForCity := func(city string) {
		t.Helper()

		require.Eventually(t, func() bool {
			return l.Current().City() == city
		}, 5*time.Second, 20*time.Millisecond, "catalog city never became %s", city)
	}

	require.NoError(t, os.WriteFile(path, []byte("city: Eilat\n"), 0o600))
	waitForCity("Eilat")

	tmp := filepath.Join(dir, ".catalog.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("city: Jerusalem\n"), 0o600))
	require.NoError(t, os.Rename(tmp, path))
	waitForCity("Jerusalem")

	require.NoError(t, os.WriteFile(path, []byte("city: Nazareth\n"), 0o600))
	waitForCity("Nazareth")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("city: Akko\n"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "Nazareth", l.Current().City())
}

func TestLoaderWatchWithoutPath(t *testing.T) {
	l, err := NewLoader("", nil)
	require.NoError(t, err)

	stop, err := l.Watch()
	require.NoError(t, err)

	stop()
	stop()
}
