package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a catalog override file.
type File struct {
	City   string   `yaml:"city"`
	Topic  string   `yaml:"topic"`
	Genres []string `yaml:"genres"`
	Venues []Venue  `yaml:"venues"`
}

// Loader serves the current catalog and optionally hot-reloads it from a YAML file.
// Each pipeline run takes a snapshot via Current, so a reload never changes a run midway.
type Loader struct {
	path    string
	logger  *zerolog.Logger
	mu      sync.RWMutex
	current *Catalog
}

// NewLoader creates a Loader. An empty path serves the built-in catalog.
func NewLoader(path string, logger *zerolog.Logger) (*Loader, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	l := &Loader{path: path, logger: logger, current: Default()}
	if path == "" {
		return l, nil
	}

	cat, err := l.load()
	if err != nil {
		return nil, err
	}

	l.current = cat

	return l, nil
}

// Current returns the latest catalog snapshot.
func (l *Loader) Current() *Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.current
}

// Watch reloads the catalog on file changes until stop is called.
// The parent directory is watched so saves that rename a temp file over the
// catalog are seen. A file that fails to parse keeps the previous catalog.
func (l *Loader) Watch() (stop func(), err error) {
	if l.path == "" {
		return func() {}, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("catalog watcher: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()

		return nil, fmt.Errorf("catalog watcher add %s: %w", dir, err)
	}

	name := filepath.Base(l.path)
	done := make(chan struct{})

	go func() {
		defer w.Close()

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}

				if affectsCatalog(ev, name) {
					l.reload()
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}

				l.logger.Warn().Err(werr).Msg("catalog watcher error")
			case <-done:
				return
			}
		}
	}()

	var once sync.Once

	return func() { once.Do(func() { close(done) }) }, nil
}

// configMapDataDir is the symlink Kubernetes swaps when a mounted ConfigMap changes.
const configMapDataDir = "..data"

func affectsCatalog(ev fsnotify.Event, name string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(ev.Name)

	return base == name || base == configMapDataDir
}

// Reload forces an immediate re-read of the catalog file.
func (l *Loader) Reload() error {
	if l.path == "" {
		return nil
	}

	cat, err := l.load()
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.current = cat
	l.mu.Unlock()

	return nil
}

func (l *Loader) reload() {
	if err := l.Reload(); err != nil {
		l.logger.Warn().Err(err).Str("path", l.path).Msg("catalog reload failed, keeping previous")
		return
	}

	l.logger.Info().Str("path", l.path).Msg("catalog reloaded")
}

func (l *Loader) load() (*Catalog, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", l.path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", l.path, err)
	}

	if f.City == "" {
		f.City = DefaultCity
	}

	if f.Topic == "" {
		f.Topic = DefaultTopic
	}

	if len(f.Genres) == 0 {
		f.Genres = DefaultGenres
	}

	if len(f.Venues) == 0 {
		f.Venues = DefaultVenues
	}

	return New(f.City, f.Topic, f.Genres, f.Venues), nil
}
