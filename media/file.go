package media

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Resolver answers the backend questions a descriptor needs during construction.
// backend.Registry implements it.
type Resolver interface {
	// SelectBackend returns the id of the best backend able to play f.
	SelectBackend(f *File) (string, bool)

	// BackendPriority returns the static priority of a backend, 0 if unknown.
	BackendPriority(id string) int
}

// File describes one playable candidate source. It is built once by New and must be
// treated as read-only afterwards; use WithBackend to derive a re-targeted copy.
type File struct {
	Path      string  `json:"path"`
	MimeType  string  `json:"mimetype"`
	Kind      Kind    `json:"type"`
	Codec     string  `json:"codecs,omitempty"`
	StreamID  string  `json:"stream,omitempty"`
	BackendID string  `json:"player,omitempty"`
	Priority  int     `json:"priority"`
	StartTime float64 `json:"start,omitempty"`

	forcedBackend  bool
	forcedPriority bool
	wrapped        bool
}

var hosted = []struct {
	pattern  *regexp.Regexp
	mimetype string
}{
	{regexp.MustCompile(`(?i)^(https?://)?(www\.|m\.)?(youtube\.com|youtu\.be)/`), MimeYouTube},
	{regexp.MustCompile(`(?i)^(https?://)?(www\.|player\.)?vimeo\.com/`), MimeVimeo},
	{regexp.MustCompile(`(?i)^(https?://)?(www\.)?(dailymotion\.com|dai\.ly)/`), MimeDailymotion},
}

// New builds a descriptor from raw, which may be a path string, a *File or File, or a
// map with the keys path, mimetype, type, codecs, stream, player and priority.
//
// A *File that has already been through New is returned unchanged. Missing fields are
// derived in a fixed order: extension, mimetype, kind. The backend is resolved through r
// unless the caller forced one, and the priority is backend priority times mimetype weight
// unless the caller supplied one. A nil r leaves the backend unresolved.
func New(raw any, r Resolver) *File {
	var f *File

	switch v := raw.(type) {
	case *File:
		if v == nil {
			return &File{Kind: Unknown}
		}
		if v.wrapped {
			return v
		}
		copied := *v
		f = &copied
		f.forcedBackend = f.forcedBackend || f.BackendID != ""
		f.forcedPriority = f.forcedPriority || f.Priority != 0
	case File:
		if v.wrapped {
			return &v
		}
		f = &v
		f.forcedBackend = f.forcedBackend || f.BackendID != ""
		f.forcedPriority = f.forcedPriority || f.Priority != 0
	case string:
		f = &File{Path: v}
	case map[string]any:
		f = fromMap(v)
	case map[string]string:
		f = fromMap(lo.MapValues(v, func(s string, _ string) any { return s }))
	default:
		f = &File{}
	}

	f.Path = strings.TrimSpace(f.Path)
	f.derive()

	if f.StartTime == 0 {
		f.StartTime = startOffset(f.Path)
	}

	if r != nil && !f.forcedBackend {
		if id, ok := r.SelectBackend(f); ok {
			f.BackendID = id
		}
	}

	if !f.forcedPriority {
		prio := 0
		if r != nil && f.BackendID != "" {
			prio = r.BackendPriority(f.BackendID)
		}
		f.Priority = prio * Weight(f.MimeType)
	}

	f.wrapped = true
	return f
}

// List builds descriptors for every raw candidate, preserving order.
func List(raws []any, r Resolver) []*File {
	return lo.Map(raws, func(raw any, _ int) *File {
		return New(raw, r)
	})
}

// WithBackend returns a copy of f forced onto backend id, with its priority recomputed.
func (f *File) WithBackend(id string, r Resolver) *File {
	copied := *f
	copied.wrapped = false
	copied.BackendID = id
	copied.forcedBackend = id != ""
	if !copied.forcedPriority {
		copied.Priority = 0
	}
	return New(&copied, r)
}

// WithMimeType returns a copy of f with its mimetype replaced and its kind derived again.
// A backend or priority the caller forced is kept; anything else is negotiated again.
func (f *File) WithMimeType(mimetype string, r Resolver) *File {
	copied := *f
	copied.wrapped = false
	copied.MimeType = mimetype
	copied.Kind = ""
	if !copied.forcedBackend {
		copied.BackendID = ""
	}
	if !copied.forcedPriority {
		copied.Priority = 0
	}
	return New(&copied, r)
}

// Playable reports whether the descriptor names a source and a backend able to play it.
func (f *File) Playable() bool {
	return f != nil && f.Path != "" && f.BackendID != ""
}

// Remote reports whether the path is an http(s) URL.
func (f *File) Remote() bool {
	u, err := url.Parse(f.Path)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Extension returns the lower-case extension of the path without the dot.
func (f *File) Extension() string {
	return extensionOf(f.Path)
}

// Same reports whether f and other point at the same source.
func (f *File) Same(other *File) bool {
	return f != nil && other != nil && f.Path == other.Path && f.StreamID == other.StreamID
}

func (f *File) String() string {
	return fmt.Sprintf("%s (%s, %s, backend=%q, priority=%d)", f.Path, f.MimeType, f.Kind, f.BackendID, f.Priority)
}

func (f *File) derive() {
	if f.MimeType == "" {
		f.MimeType = hostedMimeType(f.Path)
	}
	if f.MimeType == "" {
		f.MimeType = MimeTypeOf(f.Path)
	}
	f.MimeType = strings.ToLower(f.MimeType)

	// a kind supplied by the caller wins only while it agrees with the mimetype
	derived := KindOf(f.MimeType)
	if f.Kind == "" || f.Kind == Unknown || (derived != Unknown && f.Kind != derived) {
		f.Kind = derived
	}
}

func hostedMimeType(p string) string {
	for _, h := range hosted {
		if h.pattern.MatchString(p) {
			return h.mimetype
		}
	}
	return ""
}

func fromMap(m map[string]any) *File {
	str := func(k string) string {
		if s, ok := m[k].(string); ok {
			return s
		}
		return ""
	}

	f := &File{
		Path:      str("path"),
		MimeType:  str("mimetype"),
		Kind:      Kind(strings.ToLower(str("type"))),
		Codec:     str("codecs"),
		StreamID:  str("stream"),
		BackendID: str("player"),
	}
	f.forcedBackend = f.BackendID != ""

	switch p := m["priority"].(type) {
	case int:
		f.Priority, f.forcedPriority = p, true
	case float64:
		f.Priority, f.forcedPriority = int(p), true
	case string:
		if n, err := strconv.Atoi(p); err == nil {
			f.Priority, f.forcedPriority = n, true
		}
	}

	switch s := m["start"].(type) {
	case int:
		f.StartTime = float64(s)
	case float64:
		f.StartTime = s
	case string:
		f.StartTime = parseOffset(s)
	}

	return f
}
