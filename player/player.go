// Package player implements the lifecycle every playback backend goes through and the
// drivers that connect it to concrete media players.
// The architecture composes one shared lifecycle (Base) with a backend-specific Driver; the primary
// driver targets 'mpv' via its JSON-IPC interface.
package player

import (
	"errors"

	"github.com/minplayer/minplayer/media"
	"github.com/samber/mo"
)

var (
	// ErrUnsupported is returned by drivers for commands their player cannot perform.
	ErrUnsupported = errors.New("not supported by this backend")

	// ErrDestroyed is returned by commands issued after Destroy.
	ErrDestroyed = errors.New("player destroyed")
)

// Getter asks the native player for a numeric value. The answer is delivered on the
// lifecycle's scheduler; None means the player does not know and the cached value applies.
type Getter func(answer func(mo.Option[float64]))

// Driver encapsulates the capabilities a playback backend must provide.
// Drivers report native events by calling the On* hooks of the Base they were constructed
// with, always from the Base's scheduler (see Base.Post).
type Driver interface {
	// Construct starts or locates the native player for b.File and subscribes to its events.
	Construct(b *Base) error

	// Load replaces the current source.
	Load(f *media.File) error

	// Play resumes or starts playback.
	Play() error

	// Pause suspends playback.
	Pause() error

	// Stop halts playback.
	Stop() error

	// Seek moves playback to an absolute native position in seconds.
	Seek(position float64) error

	// SetVolume sets the volume in the range 0..1.
	SetVolume(volume float64) error

	// Volume answers the current volume in the range 0..1.
	Volume(answer func(mo.Option[float64]))

	// CurrentTime answers the native playback position in seconds.
	CurrentTime(answer func(mo.Option[float64]))

	// Duration answers the native duration in seconds.
	Duration(answer func(mo.Option[float64]))

	// BytesLoaded answers how many bytes of the source have been buffered.
	BytesLoaded(answer func(mo.Option[float64]))

	// BytesTotal answers the size of the source in bytes.
	BytesTotal(answer func(mo.Option[float64]))

	// BytesStart answers the byte offset buffering started from.
	BytesStart(answer func(mo.Option[float64]))

	// Destroy terminates the native player and releases all associated resources.
	Destroy() error
}

// State of a player lifecycle.
type State int

const (
	Constructed State = iota
	Ready
	Loading
	Waiting
	Playing
	Paused
	Ended
	Destroyed
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Ready:
		return "ready"
	case Loading:
		return "loading"
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event names published on a player's bus.
const (
	EventReady          = "ready"
	EventLoadStart      = "loadstart"
	EventWaiting        = "waiting"
	EventLoadedData     = "loadeddata"
	EventPlaying        = "playing"
	EventPause          = "pause"
	EventStop           = "stop"
	EventEnded          = "ended"
	EventError          = "error"
	EventTimeUpdate     = "timeupdate"
	EventDurationChange = "durationchange"
	EventProgress       = "progress"
	EventVolumeUpdate   = "volumeupdate"
	EventDestroyed      = "destroyed"
)

// PluginName is the name every lifecycle registers its bus under.
const PluginName = "media"

// TimeUpdate is the payload of EventTimeUpdate. Both values are on the exposed timeline,
// that is relative to the configured range.
type TimeUpdate struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

// Progress is the payload of EventProgress.
type Progress struct {
	Loaded float64 `json:"loaded"`
	Total  float64 `json:"total"`
	Start  float64 `json:"start"`
}

// Complete reports whether every byte is buffered.
func (p Progress) Complete() bool {
	return p.Total > 0 && p.Loaded >= p.Total
}

// DurationChange is the payload of EventDurationChange.
type DurationChange struct {
	Duration float64 `json:"duration"`
}
