package player

import (
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/alessio/shellescape"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/media"
	"github.com/samber/mo"
)

// Process drives a player that offers no control channel: it is started with the source
// on its command line and playback ends when it exits. Position is estimated from the
// wall clock; pause and seek are not supported.
type Process struct {
	// Name identifies the player in logs.
	Name string
	// Command is the executable followed by its fixed arguments.
	Command []string
	// StartFlag formats the start position in seconds, e.g. "--start-time=%.0f".
	// Empty means the player cannot start mid-file.
	StartFlag string
	// VolumeFlag formats the volume in 0..1, e.g. "--volume=%.0f" after scaling by VolumeScale.
	VolumeFlag  string
	VolumeScale float64
	// TargetFirst places the source before the fixed arguments.
	TargetFirst bool
	// Escape rewrites the source for the command's parser, if set.
	Escape func(string) string

	base *Base
	now  func() time.Time

	mu        sync.Mutex
	cmd       *exec.Cmd
	running   bool
	stopping  bool
	startedAt time.Time
	offset    float64
	volume    mo.Option[float64]
}

// NewProcess creates a process driver for command.
func NewProcess(name string, command ...string) *Process {
	return &Process{
		Name:        name,
		Command:     command,
		VolumeScale: 100,
		now:         time.Now,
	}
}

// NewVLC drives VLC, which exits on its own at the end of the file.
func NewVLC() *Process {
	p := NewProcess("vlc", "vlc", "--play-and-exit")
	p.StartFlag = "--start-time=%.0f"
	p.VolumeFlag = "--gain=%.2f"
	p.VolumeScale = 1
	p.TargetFirst = true
	return p
}

// NewCelluloid drives Celluloid, which accepts mpv options prefixed with --mpv-.
func NewCelluloid() *Process {
	p := NewProcess("celluloid", "celluloid", "--new-window")
	p.StartFlag = "--mpv-start=%.0f"
	p.VolumeFlag = "--mpv-volume=%.0f"
	return p
}

// NewFlash drives a standalone Flash projector.
func NewFlash(projector string) *Process {
	return NewProcess("flash", projector)
}

// Construct has nothing native to locate; the player is ready with its data immediately.
func (p *Process) Construct(b *Base) error {
	if len(p.Command) == 0 || p.Command[0] == "" {
		return fmt.Errorf("%s: no command", p.Name)
	}
	if _, err := exec.LookPath(p.Command[0]); err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}

	p.base = b
	if p.now == nil {
		p.now = time.Now
	}

	b.Post(p.announce)
	return nil
}

func (p *Process) announce() {
	p.base.OnReady()
	p.base.OnLoaded()
}

// Load ends the running process, the next Play starts the new source.
func (p *Process) Load(*media.File) error {
	p.kill()
	p.base.Post(p.announce)
	return nil
}

// Play starts the process unless it is already running.
func (p *Process) Play() error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	target, err := sanitizeMediaTarget(p.base.File.Path)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	offset := p.base.nativeStart()
	args := p.arguments(target, offset)
	log.Debugf("starting %s", shellescape.QuoteCommand(append([]string{p.Command[0]}, args...)))

	cmd := exec.Command(p.Command[0], args...)
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Name, err)
	}

	p.mu.Lock()
	p.cmd = cmd
	p.running = true
	p.stopping = false
	p.startedAt = p.now()
	p.offset = offset
	p.mu.Unlock()

	b := p.base
	go func() {
		err := cmd.Wait()

		p.mu.Lock()
		stopping := p.stopping
		current := p.cmd == cmd
		if current {
			p.running = false
		}
		p.mu.Unlock()

		// players exit non-zero when the user closes them, that is not a failure
		if err != nil {
			log.Debugf("%s exited: %v", p.Name, err)
		}
		if current && !stopping {
			b.Post(b.OnComplete)
		}
	}()

	b.OnPlaying()
	return nil
}

func (p *Process) arguments(target string, offset float64) []string {
	var flags []string
	if p.StartFlag != "" && offset > 0 {
		flags = append(flags, fmt.Sprintf(p.StartFlag, offset))
	}
	if v, ok := p.volume.Get(); ok && p.VolumeFlag != "" {
		flags = append(flags, fmt.Sprintf(p.VolumeFlag, v*p.VolumeScale))
	}

	if p.Escape != nil {
		target = p.Escape(target)
	}

	fixed := p.Command[1:]
	if p.TargetFirst {
		return append(append([]string{target}, fixed...), flags...)
	}
	return append(append(append([]string{}, fixed...), flags...), target)
}

func (p *Process) Pause() error {
	return ErrUnsupported
}

// Stop ends the process; the lifecycle completes when it has exited. A Play issued
// before the exit starts a new process and the old exit is ignored.
func (p *Process) Stop() error {
	p.mu.Lock()
	cmd := p.cmd
	running := p.running
	p.running = false
	p.mu.Unlock()

	if !running {
		return nil
	}
	if err := terminateProcess(cmd); err != nil {
		return fmt.Errorf("stop %s: %w", p.Name, err)
	}
	return nil
}

func (p *Process) Seek(float64) error {
	return ErrUnsupported
}

// SetVolume applies to the next start.
func (p *Process) SetVolume(volume float64) error {
	p.mu.Lock()
	p.volume = mo.Some(volume)
	p.mu.Unlock()
	return nil
}

func (p *Process) Volume(answer func(mo.Option[float64])) {
	p.mu.Lock()
	v := p.volume
	p.mu.Unlock()
	p.base.Post(func() { answer(v) })
}

// CurrentTime is estimated from the time the process has been running.
func (p *Process) CurrentTime(answer func(mo.Option[float64])) {
	p.mu.Lock()
	position := mo.None[float64]()
	if p.running {
		position = mo.Some(p.offset + p.now().Sub(p.startedAt).Seconds())
	}
	p.mu.Unlock()
	p.base.Post(func() { answer(position) })
}

func (p *Process) Duration(answer func(mo.Option[float64])) {
	p.none(answer)
}

func (p *Process) BytesLoaded(answer func(mo.Option[float64])) {
	p.none(answer)
}

func (p *Process) BytesTotal(answer func(mo.Option[float64])) {
	p.none(answer)
}

func (p *Process) BytesStart(answer func(mo.Option[float64])) {
	p.none(answer)
}

func (p *Process) none(answer func(mo.Option[float64])) {
	p.base.Post(func() { answer(mo.None[float64]()) })
}

// Destroy kills the process without reporting completion.
func (p *Process) Destroy() error {
	p.kill()
	return nil
}

func (p *Process) kill() {
	p.mu.Lock()
	cmd := p.cmd
	running := p.running
	p.stopping = true
	p.running = false
	p.mu.Unlock()

	if running {
		if err := killProcess(cmd); err != nil {
			log.Warnf("kill %s: %v", p.Name, err)
		}
	}
}
