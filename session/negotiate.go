package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/minplayer/minplayer/backend"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/probe"
)

// ErrNoPlayableSource is returned when no backend can play any candidate.
var ErrNoPlayableSource = errors.New("no playable source")

// Describe builds descriptors for raws. Remote candidates whose type cannot be told from
// their URL are sniffed when sniff is set, and a forced backend id overrides negotiation.
func Describe(ctx context.Context, backends *backend.Registry, raws []any, forced string, sniff bool) ([]*media.File, error) {
	if forced != "" {
		if _, ok := backends.Lookup(forced); !ok {
			return nil, fmt.Errorf("%w: %q", backend.ErrUnknownBackend, forced)
		}
	}

	files := backends.Describe(raws...)
	for i, f := range files {
		if sniff && f.Kind == media.Unknown && f.Remote() {
			files[i] = sniffed(ctx, backends, f)
		}
		if forced != "" {
			files[i] = files[i].WithBackend(forced, backends)
		}
	}

	return files, nil
}

func sniffed(ctx context.Context, backends *backend.Registry, f *media.File) *media.File {
	mimetype, err := probe.ContentType(ctx, f.Path)
	if err != nil {
		log.Warnf("sniff %s: %v", f.Path, err)
		return f
	}

	m, ok := mimetype.Get()
	if !ok {
		return f
	}

	log.Debugf("sniffed %s as %s", f.Path, m)
	return f.WithMimeType(m, backends)
}

// Negotiate describes raws and picks the best playable one.
func Negotiate(ctx context.Context, backends *backend.Registry, raws []any, opts Options) (*media.File, []*media.File, error) {
	files, err := Describe(ctx, backends, raws, opts.Backend, opts.Sniff)
	if err != nil {
		return nil, nil, err
	}

	best, ok := backends.SelectBest(files)
	if !ok {
		return nil, files, ErrNoPlayableSource
	}
	return best, files, nil
}
