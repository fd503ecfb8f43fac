// Package probe answers what the runtime can play: which player binaries are installed and
// what a remote source really is. Results are side-effect free to consult once taken.
package probe

import (
	"bufio"
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/minplayer/minplayer/filesystem"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/where"
	"github.com/samber/lo"
)

// CacheLifetime is how long a binary probe is trusted.
const CacheLifetime = 24 * time.Hour

const versionTimeout = 3 * time.Second

// Capability describes one probed binary.
type Capability struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Version   string    `json:"version,omitempty"`
	Available bool      `json:"available"`
	CheckedAt time.Time `json:"checked_at"`
}

// Snapshot is a set of capabilities taken at one point in time, keyed by binary name.
type Snapshot map[string]Capability

// Has reports whether the named binary is available.
func (s Snapshot) Has(name string) bool {
	return s[name].Available
}

// HasAny reports whether any of the named binaries is available.
func (s Snapshot) HasAny(names ...string) bool {
	return lo.SomeBy(names, s.Has)
}

// versioned lists binaries that print a version without opening a window.
var versioned = map[string]bool{
	"mpv":        true,
	"yt-dlp":     true,
	"youtube-dl": true,
}

// lookPath and readVersion are replaced in tests.
var (
	lookPath    = exec.LookPath
	readVersion = func(ctx context.Context, path string) string {
		out, err := exec.CommandContext(ctx, path, "--version").Output()
		if err != nil {
			return ""
		}
		line, _, _ := bufio.NewReader(strings.NewReader(string(out))).ReadLine()
		return strings.TrimSpace(string(line))
	}
)

var (
	cacher = gache.New[Snapshot](&gache.Options{
		Path:       where.Capabilities(),
		Lifetime:   CacheLifetime,
		FileSystem: &filesystem.GacheFs{},
	})
	cacheMu sync.Mutex
)

// Binary probes name, answering from the cache while it is fresh.
func Binary(name string) Capability {
	return Take(name)[name]
}

// Take probes every name and returns the snapshot. Fresh cached entries are reused,
// the rest is probed and written back.
func Take(names ...string) Snapshot {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	cached, expired, err := cacher.Get()
	if err != nil {
		log.Warnf("capability cache: %v", err)
	}
	if expired || cached == nil {
		cached = make(Snapshot)
	}

	snapshot := make(Snapshot, len(names))
	dirty := false
	for _, name := range lo.Uniq(names) {
		if c, ok := cached[name]; ok && time.Since(c.CheckedAt) < CacheLifetime {
			snapshot[name] = c
			continue
		}

		c := probe(name)
		cached[name] = c
		snapshot[name] = c
		dirty = true
	}

	if dirty {
		if err := cacher.Set(cached); err != nil {
			log.Warnf("capability cache: %v", err)
		}
	}

	return snapshot
}

// Forget drops every cached probe, the next Take probes again.
func Forget() error {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	return cacher.Set(make(Snapshot))
}

func probe(name string) Capability {
	c := Capability{Name: name, CheckedAt: time.Now()}

	path, err := lookPath(name)
	if err != nil {
		log.Debugf("probe %s: %v", name, err)
		return c
	}

	c.Path = path
	c.Available = true

	if versioned[name] {
		ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
		defer cancel()
		c.Version = readVersion(ctx, path)
	}

	log.Debugf("probe %s: %s %s", name, c.Path, c.Version)
	return c
}
