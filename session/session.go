// Package session ties negotiation, a player lifecycle and playback history together
// for one source.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/minplayer/minplayer/backend"
	"github.com/minplayer/minplayer/event"
	"github.com/minplayer/minplayer/flagset"
	"github.com/minplayer/minplayer/history"
	"github.com/minplayer/minplayer/key"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/player"
	"github.com/minplayer/minplayer/sched"
	"github.com/minplayer/minplayer/util"
	"github.com/spf13/viper"
)

// Busy flag owners.
const (
	OwnerLoading = "loading"
	OwnerWaiting = "waiting"
	OwnerBigPlay = "bigplay"
)

const (
	seekStep   = 10.0
	volumeStep = 0.05
)

// Deps are the collaborators a session runs on.
type Deps struct {
	Backends  *backend.Registry
	Events    *event.Registry
	Scheduler sched.Scheduler
}

// Options configure a session.
type Options struct {
	Player player.Options

	// Backend forces a backend id, bypassing negotiation.
	Backend string
	// Sniff asks remote servers for the type of sources with no recognizable extension.
	Sniff bool
	// Resume starts from the position saved in history.
	Resume bool
	// Save records the position in history on pause, end and close.
	Save bool
}

// OptionsFromConfig reads session options from the configuration.
func OptionsFromConfig() (Options, error) {
	playerOpts, err := player.OptionsFromConfig()
	if err != nil {
		return Options{}, err
	}

	return Options{
		Player:  playerOpts,
		Backend: viper.GetString(key.Player),
		Sniff:   viper.GetBool(key.SniffRemote),
		Resume:  viper.GetBool(key.SessionResume),
		Save:    viper.GetBool(key.HistorySave),
	}, nil
}

// Session plays one negotiated source. Except for Post and Done, its methods must be
// called from the scheduler in Deps.
type Session struct {
	File   *media.File
	Files  []*media.File
	Player *player.Base
	Busy   *flagset.FlagSet

	deps Deps
	opts Options

	position float64
	duration float64
	played   bool
	err      error

	done     chan struct{}
	doneOnce sync.Once
}

// Open negotiates raws and starts the best source.
func Open(ctx context.Context, deps Deps, raws []any, opts Options) (*Session, error) {
	best, files, err := Negotiate(ctx, deps.Backends, raws, opts)
	if err != nil {
		return nil, err
	}

	s := &Session{
		File:  best,
		Files: files,
		Busy:  flagset.New(),
		deps:  deps,
		opts:  opts,
		done:  make(chan struct{}),
	}

	if err := s.start(best, s.resumeAt(best)); err != nil {
		return nil, err
	}
	return s, nil
}

// resumeAt picks the first position: an explicit start wins over history.
func (s *Session) resumeAt(f *media.File) float64 {
	if s.opts.Player.Start > 0 {
		return s.opts.Player.Start
	}
	if !s.opts.Resume {
		return 0
	}
	return history.Position(f.Path).OrElse(0)
}

func (s *Session) start(f *media.File, at float64) error {
	opts := s.opts.Player
	opts.Start = at

	b, err := s.deps.Backends.Instantiate(f, s.deps.Events, s.deps.Scheduler, opts)
	if err != nil {
		if b != nil {
			_ = b.Destroy()
		}
		return fmt.Errorf("start %s: %w", f.BackendID, err)
	}

	s.File = f
	s.Player = b
	s.position = at
	s.Busy.SetFlag(OwnerBigPlay, !s.played)
	s.bind(b)

	return nil
}

// bind derives the busy flags and the recorded position from the player's events.
func (s *Session) bind(b *player.Base) {
	b.Bind(player.EventLoadStart, func(event.Event) {
		s.Busy.SetFlag(OwnerLoading, true)
	})
	b.Bind(player.EventLoadedData, func(event.Event) {
		s.Busy.SetFlag(OwnerLoading, false)
	})
	b.Bind(player.EventWaiting, func(event.Event) {
		s.Busy.SetFlag(OwnerWaiting, true)
	})
	b.Bind(player.EventPlaying, func(event.Event) {
		s.played = true
		s.Busy.SetFlag(OwnerLoading, false)
		s.Busy.SetFlag(OwnerWaiting, false)
		s.Busy.SetFlag(OwnerBigPlay, false)
	})
	b.Bind(player.EventTimeUpdate, func(e event.Event) {
		if t, ok := e.Data.(player.TimeUpdate); ok {
			s.position, s.duration = t.CurrentTime, t.Duration
		}
	})
	b.Bind(player.EventDurationChange, func(e event.Event) {
		if d, ok := e.Data.(player.DurationChange); ok {
			s.duration = d.Duration
		}
	})
	b.Bind(player.EventPause, func(event.Event) {
		s.Busy.SetFlag(OwnerWaiting, false)
		s.save()
	})
	b.Bind(player.EventEnded, func(event.Event) {
		s.Busy.SetFlag(OwnerWaiting, false)
		if s.duration > 0 {
			s.position = s.duration
		}
		s.save()
		if !s.opts.Player.Loop {
			s.finish(nil)
		}
	})
	b.Bind(player.EventError, func(e event.Event) {
		s.Busy.SetFlag(OwnerLoading, false)
		s.Busy.SetFlag(OwnerWaiting, false)

		err, ok := e.Data.(error)
		if !ok {
			err = fmt.Errorf("%v", e.Data)
		}
		s.err = err

		// a source that never played cannot recover
		if !s.played {
			s.finish(err)
		}
	})
}

// Err returns the last error the player reported.
func (s *Session) Err() error {
	return s.err
}

// Done is closed when playback has ended, failed before starting, or the session was closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) finish(err error) {
	s.doneOnce.Do(func() {
		if err != nil {
			log.Errorf("%s: %v", s.File.Path, err)
		}
		close(s.done)
	})
}

// When binds handler to the named event on every player this session runs, including
// players created later by Switch.
func (s *Session) When(name string, handler event.Handler) bool {
	return s.deps.Events.When(s.Player.Options.ID, player.PluginName, name, handler)
}

// Post runs fn on the session's scheduler.
func (s *Session) Post(fn func()) {
	s.deps.Scheduler.Post(fn)
}

// Position returns the last known position and duration on the exposed timeline.
func (s *Session) Position() (position, duration float64) {
	return s.position, s.duration
}

// Start plays the source unless autoplay already does.
func (s *Session) Start() error {
	if s.opts.Player.Autoplay {
		return nil
	}
	return s.Player.Play()
}

// Toggle pauses while playing and plays otherwise.
func (s *Session) Toggle() error {
	if s.Player.State() == player.Playing {
		return s.Player.Pause()
	}
	return s.Player.Play()
}

// SeekBy moves playback by delta seconds.
func (s *Session) SeekBy(delta float64) error {
	target := max(s.position+delta, 0)
	if s.duration > 0 {
		target = min(target, s.duration)
	}
	s.position = target
	return s.Player.Seek(target)
}

// SeekForward and SeekBackward move by a fixed step.
func (s *Session) SeekForward() error  { return s.SeekBy(seekStep) }
func (s *Session) SeekBackward() error { return s.SeekBy(-seekStep) }

// ChangeVolume adjusts the volume by delta, answering once the current volume is known.
func (s *Session) ChangeVolume(delta float64) {
	s.Player.GetVolume(func(volume float64) {
		_ = s.Player.SetVolume(util.Clamp(volume+delta, 0, 1))
	})
}

// VolumeUp and VolumeDown change the volume by a fixed step.
func (s *Session) VolumeUp()   { s.ChangeVolume(volumeStep) }
func (s *Session) VolumeDown() { s.ChangeVolume(-volumeStep) }

// Switch moves playback to backend id, keeping the position. The new player registers
// under the same id, so bindings queued on the event registry follow it.
func (s *Session) Switch(id string) error {
	if id == s.File.BackendID {
		return nil
	}
	if _, ok := s.deps.Backends.Lookup(id); !ok {
		return fmt.Errorf("%w: %q", backend.ErrUnknownBackend, id)
	}

	s.save()
	at := s.position
	if err := s.Player.Destroy(); err != nil {
		log.Warnf("destroy %s: %v", s.File.BackendID, err)
	}

	log.Infof("switching %s to %s at %s", s.File.Path, id, util.FormatDuration(at))
	return s.start(s.File.WithBackend(id, s.deps.Backends), at)
}

// Close records the position and destroys the player.
func (s *Session) Close() error {
	s.save()
	err := s.Player.Destroy()
	s.finish(nil)
	return err
}

func (s *Session) save() {
	if !s.opts.Save || s.position <= 0 {
		return
	}
	if err := history.Save(s.File.Path, s.File.BackendID, s.position, s.duration); err != nil {
		log.Warnf("save history: %v", err)
	}
}
