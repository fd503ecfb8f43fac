// Package history persists playback positions so sources can be resumed.
package history

import (
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/minplayer/minplayer/filesystem"
	"github.com/minplayer/minplayer/where"
	"github.com/samber/mo"
)

// Finished is the watched fraction from which an entry starts over.
const Finished = 0.95

// Entry is the saved position of one source.
type Entry struct {
	Path     string    `json:"path"`
	Position float64   `json:"position"`
	Duration float64   `json:"duration"`
	Backend  string    `json:"backend,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// Progress is the watched fraction, 0 when the duration is unknown.
func (e *Entry) Progress() float64 {
	if e.Duration <= 0 {
		return 0
	}
	return e.Position / e.Duration
}

var (
	cacher = gache.New[map[string]*Entry](
		&gache.Options{
			Path:       where.History(),
			FileSystem: &filesystem.GacheFs{},
		},
	)
	mu sync.Mutex
)

// Get returns every saved entry keyed by path.
func Get() (map[string]*Entry, error) {
	mu.Lock()
	defer mu.Unlock()

	return get()
}

func get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Position returns where path was left, None when there is nothing to resume.
func Position(path string) mo.Option[float64] {
	saved, err := Get()
	if err != nil {
		return mo.None[float64]()
	}

	entry, ok := saved[path]
	if !ok || entry.Position <= 0 {
		return mo.None[float64]()
	}
	return mo.Some(entry.Position)
}

// Save records position for path. Sources watched to the end are saved at 0 so the
// next run starts over.
func Save(path, backend string, position, duration float64) error {
	mu.Lock()
	defer mu.Unlock()

	saved, err := get()
	if err != nil {
		return err
	}

	entry := &Entry{
		Path:     path,
		Position: max(position, 0),
		Duration: max(duration, 0),
		Backend:  backend,
		SavedAt:  time.Now(),
	}
	if entry.Progress() >= Finished {
		entry.Position = 0
	}

	saved[path] = entry
	return cacher.Set(saved)
}

// Remove forgets path.
func Remove(path string) error {
	mu.Lock()
	defer mu.Unlock()

	saved, err := get()
	if err != nil {
		return err
	}

	delete(saved, path)
	return cacher.Set(saved)
}
