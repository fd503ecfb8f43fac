package player

import (
	"errors"
	"fmt"
	"math"

	"github.com/minplayer/minplayer/async"
	"github.com/minplayer/minplayer/event"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/sched"
	"github.com/minplayer/minplayer/util"
	"github.com/samber/mo"
)

// Base is the lifecycle shared by every backend. It owns the event bus, the cached values,
// the polls and the range policy, and delegates everything native to its Driver.
//
// All methods must be called from the scheduler the Base was created with.
type Base struct {
	File    *media.File
	Options Options
	Plugin  *event.Plugin

	driver    Driver
	scheduler sched.Scheduler
	state     State

	// generation increments on every load and on destroy; answers from an older
	// generation are dropped
	generation  int
	constructed bool
	readied     bool
	started     bool
	rangeEnded  bool

	reportedDuration mo.Option[float64]

	volume      *async.Value[float64]
	currentTime *async.Value[float64]
	duration    *async.Value[float64]
	bytesLoaded *async.Value[float64]
	bytesTotal  *async.Value[float64]
	bytesStart  *async.Value[float64]

	progressPoll sched.Timer
	timePoll     sched.Timer
}

// New creates the lifecycle for f on driver and registers its bus on r.
// The native player is constructed right away when opts.Autoload or opts.Autoplay is set,
// otherwise on the first Play.
func New(r *event.Registry, s sched.Scheduler, f *media.File, driver Driver, opts Options) (*Base, error) {
	opts = opts.normalized()

	b := &Base{
		File:        f,
		Options:     opts,
		driver:      driver,
		scheduler:   s,
		volume:      async.New[float64](),
		currentTime: async.New[float64](),
		duration:    async.New[float64](),
		bytesLoaded: async.New[float64](),
		bytesTotal:  async.New[float64](),
		bytesStart:  async.New[float64](),
	}

	b.Plugin = event.New(r, s, opts.ID, PluginName)
	b.Plugin.Debug = opts.Debug

	if opts.Autoload || opts.Autoplay {
		if err := b.construct(); err != nil {
			return b, err
		}
	}

	return b, nil
}

// State returns the current lifecycle state.
func (b *Base) State() State {
	return b.state
}

// Post runs fn on the lifecycle's scheduler. Drivers use it to report events that
// happen on other goroutines.
func (b *Base) Post(fn func()) {
	b.scheduler.Post(fn)
}

// Bind subscribes to an event on the player's bus.
func (b *Base) Bind(name string, handler event.Handler) bool {
	return b.Plugin.Bind(name, handler)
}

// Trigger publishes an event on the player's bus.
func (b *Base) Trigger(name string, data any) {
	b.Plugin.Trigger(name, data)
}

func (b *Base) construct() error {
	if b.constructed {
		return nil
	}

	b.resetValues()
	b.state = Constructed
	b.constructed = true
	b.tracef("construct %s", b.File)

	if err := b.driver.Construct(b); err != nil {
		b.constructed = false
		return b.fail(fmt.Errorf("construct: %w", err))
	}
	return nil
}

// OnReady is called by the driver once the native player accepts commands.
// It runs once per load generation.
func (b *Base) OnReady() {
	if b.state == Destroyed || b.readied {
		return
	}

	b.readied = true
	if b.state == Constructed {
		b.setState(Ready)
	}

	volume := b.Options.Volume / 100
	if b.Options.Muted {
		volume = 0
	}
	if err := b.SetVolume(volume); err != nil {
		log.Warnf("player %s: default volume: %v", b.Options.ID, err)
	}

	b.startProgressPoll()
	b.Plugin.Ready()
	b.Trigger(EventLoadStart, nil)
}

// OnLoaded is called by the driver once enough data is available to start playback.
func (b *Base) OnLoaded() {
	if b.state == Destroyed {
		return
	}

	b.Trigger(EventLoadedData, nil)

	if b.Options.Autoplay && b.state != Playing {
		_ = b.Play()
	}
}

// OnPlaying is called by the driver whenever playback (re)starts. On the first call of a
// generation the start offset is applied before the time poll begins.
func (b *Base) OnPlaying() {
	if b.state == Destroyed || b.state == Playing {
		return
	}

	if !b.started {
		b.started = true
		if offset := b.nativeStart(); offset > 0 {
			b.seekNative(offset)
		}
	}

	b.setState(Playing)
	b.startTimePoll()
	b.Trigger(EventPlaying, nil)
}

// OnPaused is called by the driver when playback is suspended.
func (b *Base) OnPaused() {
	switch b.state {
	case Playing, Waiting, Loading:
	default:
		return
	}

	b.stopTimePoll()
	b.setState(Paused)
	b.Trigger(EventPause, nil)
}

// OnWaiting is called by the driver while playback stalls for data. The progress poll keeps running.
func (b *Base) OnWaiting() {
	if b.state == Destroyed || b.state == Ended {
		return
	}

	b.setState(Waiting)
	b.Trigger(EventWaiting, nil)
}

// OnComplete is called by the driver when the source played to its end.
// A playing lifecycle pauses first, so "pause" always precedes "ended".
func (b *Base) OnComplete() {
	if b.state == Destroyed || b.state == Ended {
		return
	}

	if b.state == Playing {
		b.OnPaused()
	}

	b.stopProgressPoll()
	b.stopTimePoll()
	b.setState(Ended)
	b.Trigger(EventEnded, nil)

	if b.Options.Loop && b.state == Ended {
		b.restart()
	}
}

// OnError forwards a native failure to the bus. The payload is not interpreted.
func (b *Base) OnError(err error) {
	if b.state == Destroyed || err == nil {
		return
	}

	log.Errorf("player %s: %v", b.Options.ID, err)
	b.Trigger(EventError, err)
}

// OnDuration is called by the driver when the native duration becomes known or changes.
func (b *Base) OnDuration(native float64) {
	if b.state == Destroyed {
		return
	}

	native = normalizeDuration(native)
	if reported, ok := b.reportedDuration.Get(); ok && reported == native {
		return
	}

	b.reportedDuration = mo.Some(native)
	refresh(b.duration, native)
	b.Trigger(EventDurationChange, DurationChange{Duration: b.exposedDuration(native)})
}

// OnVolume is called by the driver when the native volume changes.
func (b *Base) OnVolume(volume float64) {
	if b.state == Destroyed {
		return
	}

	refresh(b.volume, volume)
	b.Trigger(EventVolumeUpdate, volume)
}

// Load switches to f. Loading the source that is already loaded only re-affirms the
// play intent; any other source starts a new generation.
func (b *Base) Load(f *media.File) error {
	if b.state == Destroyed {
		return ErrDestroyed
	}

	if b.File.Same(f) {
		if b.Options.Autoplay && b.state != Playing {
			return b.Play()
		}
		return nil
	}

	b.tracef("load %s", f)
	b.reset()
	b.File = f

	if !b.constructed {
		if b.Options.Autoload || b.Options.Autoplay {
			return b.construct()
		}
		return nil
	}

	if err := b.driver.Load(f); err != nil {
		return b.fail(fmt.Errorf("load: %w", err))
	}
	return nil
}

// Play starts or resumes playback, constructing the native player if needed.
func (b *Base) Play() error {
	if b.state == Destroyed {
		return ErrDestroyed
	}

	if !b.constructed {
		if err := b.construct(); err != nil {
			return err
		}
	}

	switch b.state {
	case Playing, Waiting:
	case Ended:
		b.rangeEnded = false
		b.seekNative(b.nativeStart())
		b.startProgressPoll()
		b.setState(Loading)
	default:
		b.setState(Loading)
	}

	return b.command("play", b.driver.Play)
}

// Pause suspends playback.
func (b *Base) Pause() error {
	if b.state == Destroyed {
		return ErrDestroyed
	}
	return b.command("pause", b.driver.Pause)
}

// Stop halts playback.
func (b *Base) Stop() error {
	if b.state == Destroyed {
		return ErrDestroyed
	}

	b.stopTimePoll()
	return b.command("stop", b.driver.Stop)
}

// Seek moves to position on the exposed timeline, clamped to the configured range.
func (b *Base) Seek(position float64) error {
	if b.state == Destroyed {
		return ErrDestroyed
	}

	native := b.Options.Range.Min + max(position, 0)
	if b.Options.Range.Max > 0 {
		native = min(native, b.Options.Range.Max)
	}
	if d, ok := b.duration.Peek().Get(); ok && d > 0 {
		native = min(native, d)
	}

	return b.command("seek", func() error {
		return b.driver.Seek(native)
	})
}

// SetVolume sets the volume, clamped to 0..1.
func (b *Base) SetVolume(volume float64) error {
	if b.state == Destroyed {
		return ErrDestroyed
	}

	volume = util.Clamp(volume, 0, 1)
	return b.command("volume", func() error {
		return b.driver.SetVolume(volume)
	})
}

// GetVolume answers the volume in 0..1.
func (b *Base) GetVolume(fn func(float64)) {
	b.query(b.driver.Volume, b.volume, fn)
}

// GetCurrentTime answers the position on the exposed timeline.
func (b *Base) GetCurrentTime(fn func(float64)) {
	b.query(b.driver.Duration, b.duration, func(d float64) {
		b.query(b.driver.CurrentTime, b.currentTime, func(t float64) {
			fn(b.exposedTime(t, normalizeDuration(d)))
		})
	})
}

// GetDuration answers the duration of the exposed timeline. An unbounded native duration reads as 0.
func (b *Base) GetDuration(fn func(float64)) {
	b.query(b.driver.Duration, b.duration, func(d float64) {
		fn(b.exposedDuration(normalizeDuration(d)))
	})
}

// GetBytesLoaded answers how many bytes are buffered.
func (b *Base) GetBytesLoaded(fn func(float64)) {
	b.query(b.driver.BytesLoaded, b.bytesLoaded, fn)
}

// GetBytesTotal answers the size of the source.
func (b *Base) GetBytesTotal(fn func(float64)) {
	b.query(b.driver.BytesTotal, b.bytesTotal, fn)
}

// GetBytesStart answers the byte offset buffering started from.
func (b *Base) GetBytesStart(fn func(float64)) {
	b.query(b.driver.BytesStart, b.bytesStart, fn)
}

// Destroy stops all polls, tears the native player down and unregisters the bus.
// Pending getter callbacks never fire. Destroy is idempotent.
func (b *Base) Destroy() error {
	if b.state == Destroyed {
		return nil
	}

	b.tracef("destroy")
	b.reset()

	var err error
	if b.constructed {
		err = b.driver.Destroy()
	}

	b.Trigger(EventDestroyed, nil)
	b.state = Destroyed
	b.Plugin.Destroy()
	return err
}

// query asks the driver and falls back to the cached value when it has no answer.
// Answers arriving after a reload or destroy are dropped.
func (b *Base) query(get Getter, cached *async.Value[float64], fn func(float64)) {
	if fn == nil || b.state == Destroyed {
		return
	}
	if !b.constructed {
		cached.Get(fn)
		return
	}

	generation := b.generation
	get(func(answer mo.Option[float64]) {
		if generation != b.generation || b.state == Destroyed {
			return
		}
		if value, ok := answer.Get(); ok {
			refresh(cached, value)
			fn(value)
			return
		}
		cached.Get(fn)
	})
}

// sample is query for polls: without an answer or a cached value the tick is skipped
// instead of queueing behind the cached value.
func (b *Base) sample(get Getter, cached *async.Value[float64], fn func(float64)) {
	b.sampleOr(get, cached, mo.None[float64](), fn)
}

// sampleOr is sample with a value to use when nothing is known.
func (b *Base) sampleOr(get Getter, cached *async.Value[float64], fallback mo.Option[float64], fn func(float64)) {
	if b.state == Destroyed || !b.constructed {
		return
	}

	generation := b.generation
	get(func(answer mo.Option[float64]) {
		if generation != b.generation || b.state == Destroyed {
			return
		}
		if value, ok := answer.Get(); ok {
			refresh(cached, value)
			fn(value)
			return
		}
		value, ok := cached.Peek().Get()
		if !ok {
			value, ok = fallback.Get()
		}
		if ok {
			fn(value)
		}
	})
}

// command runs a driver command, reporting a failure both to the caller and on the bus.
func (b *Base) command(name string, fn func() error) error {
	b.tracef("%s", name)
	if err := fn(); err != nil {
		return b.fail(fmt.Errorf("%s: %w", name, err))
	}
	return nil
}

// seekNative seeks without going through the range policy. Players that cannot seek
// apply the start offset themselves, so ErrUnsupported is not a failure here.
func (b *Base) seekNative(position float64) {
	b.tracef("seek to %.2f", position)
	if err := b.driver.Seek(position); err != nil && !errors.Is(err, ErrUnsupported) {
		b.fail(fmt.Errorf("seek: %w", err))
	}
}

func (b *Base) fail(err error) error {
	b.OnError(err)
	return err
}

func (b *Base) restart() {
	b.tracef("loop")
	_ = b.Play()
}

// reset starts a new generation: polls stop and every cached value is forgotten.
func (b *Base) reset() {
	b.stopProgressPoll()
	b.stopTimePoll()
	b.generation++
	b.readied = false
	b.started = false
	b.rangeEnded = false
	b.reportedDuration = mo.None[float64]()
	b.resetValues()
	if b.state != Destroyed {
		b.state = Constructed
	}
}

func (b *Base) resetValues() {
	for _, v := range []*async.Value[float64]{
		b.volume, b.currentTime, b.duration, b.bytesLoaded, b.bytesTotal, b.bytesStart,
	} {
		v.Reset()
	}
}

func (b *Base) setState(s State) {
	if b.state == s {
		return
	}
	b.tracef("%s -> %s", b.state, s)
	b.state = s
}

func (b *Base) tracef(format string, args ...any) {
	if b.Options.Debug {
		log.Debugf("player %s: "+format, append([]any{b.Options.ID}, args...)...)
	}
}

// nativeStart is the native position the first play of a generation begins at.
func (b *Base) nativeStart() float64 {
	start := b.Options.Start
	if b.File != nil && b.File.StartTime > start {
		start = b.File.StartTime
	}
	native := b.Options.Range.Min + start
	if b.Options.Range.Max > 0 && native >= b.Options.Range.Max {
		native = b.Options.Range.Min
	}
	return native
}

// exposedDuration maps a native duration onto the configured range.
func (b *Base) exposedDuration(native float64) float64 {
	if native <= 0 {
		return 0
	}
	end := native
	if b.Options.Range.Max > 0 {
		end = min(end, b.Options.Range.Max)
	}
	return max(end-b.Options.Range.Min, 0)
}

// exposedTime maps a native position onto the configured range.
func (b *Base) exposedTime(native, duration float64) float64 {
	t := max(native-b.Options.Range.Min, 0)
	if d := b.exposedDuration(duration); d > 0 {
		t = min(t, d)
	}
	return t
}

// normalizeDuration treats unbounded or invalid durations as unknown.
func normalizeDuration(d float64) float64 {
	if math.IsInf(d, 0) || math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

// refresh replaces the cached value. A set value has no waiters, so resetting it
// before the new Set drops nothing.
func refresh(v *async.Value[float64], value float64) {
	if !v.Set(value) {
		v.Reset()
		v.Set(value)
	}
}
