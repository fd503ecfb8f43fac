package player

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minplayer/minplayer/constant"
	"github.com/minplayer/minplayer/filesystem"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// MPV drives an mpv process through its JSON-IPC socket.
type MPV struct {
	// Path is the mpv executable.
	Path string
	// Args are appended to the generated arguments, before the media target.
	Args []string

	base     *Base
	ipc      *ipcClient
	listener *eventListener
	cmd      *exec.Cmd
	exited   chan struct{}

	mu        sync.Mutex
	destroyed atomic.Bool

	// only touched on the lifecycle's scheduler
	paused bool
}

// NewMPV creates an mpv driver. An empty path means "mpv" from PATH.
func NewMPV(path string, args ...string) *MPV {
	if path == "" {
		path = "mpv"
	}
	return &MPV{
		Path:   path,
		Args:   args,
		exited: make(chan struct{}),
		paused: true,
	}
}

// Construct starts mpv paused on b.File. Readiness is reported once the IPC socket accepts connections.
func (m *MPV) Construct(b *Base) error {
	m.base = b

	target, err := sanitizeMediaTarget(b.File.Path)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	socketPath, err := newSocketPath()
	if err != nil {
		return err
	}
	m.ipc = &ipcClient{socketPath: socketPath}

	args := append(m.arguments(b.Options, b.File), target)
	log.Debugf("starting %s %s", m.Path, strings.Join(args, " "))

	m.mu.Lock()
	m.cmd = exec.Command(m.Path, args...)

	// Detach from parent process group so terminal signals do not reach it.
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("start mpv: %w", err)
	}
	cmd := m.cmd
	m.mu.Unlock()

	// reap the process and report an unexpected exit as completion
	go func() {
		_ = cmd.Wait()
		close(m.exited)
		if !m.destroyed.Load() {
			b.Post(b.OnComplete)
		}
	}()

	go m.attach()
	return nil
}

// attach waits for the socket, starts the listener and reports readiness.
func (m *MPV) attach() {
	if err := m.waitForSocket(); err != nil {
		if !m.destroyed.Load() {
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
			m.base.Post(func() { m.base.OnError(fmt.Errorf("mpv socket not ready: %w", err)) })
		}
		return
	}

	m.listener = newEventListener(m.ipc.socketPath, func(msg ipcMessage) {
		m.base.Post(func() { m.dispatch(msg) })
	})
	if err := m.listener.Start(); err != nil {
		m.base.Post(func() { m.base.OnError(err) })
		return
	}

	m.base.Post(m.base.OnReady)
}

// dispatch maps one mpv event onto the lifecycle. Runs on the scheduler.
func (m *MPV) dispatch(msg ipcMessage) {
	b := m.base

	switch msg.Event {
	case "file-loaded":
		b.OnReady()
		b.OnLoaded()
	case "end-file":
		if msg.Reason == "error" {
			b.OnError(fmt.Errorf("mpv: %s", msg.FileError))
		}
	case "property-change":
		m.propertyChanged(msg.Name, msg.Data)
	}
}

func (m *MPV) propertyChanged(name string, data any) {
	b := m.base

	switch name {
	case "pause":
		paused, _ := data.(bool)
		m.paused = paused
		if paused {
			b.OnPaused()
		} else {
			b.OnPlaying()
		}
	case "paused-for-cache":
		if waiting, _ := data.(bool); waiting {
			b.OnWaiting()
		} else if !m.paused {
			b.OnPlaying()
		}
	case "eof-reached":
		if eof, _ := data.(bool); eof {
			b.OnComplete()
		}
	case "duration":
		if d, ok := data.(float64); ok {
			b.OnDuration(d)
		}
	case "volume":
		if v, ok := data.(float64); ok {
			b.OnVolume(v / 100)
		}
	}
}

// arguments builds the mpv command line. Only what the lifecycle needs is forced,
// everything else is left to the user's mpv.conf.
func (m *MPV) arguments(opts Options, f *media.File) []string {
	title := sanitizeTitle(lo.CoalesceOrEmpty(opts.Attributes["title"], filepath.Base(f.Path)))

	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.ipc.socketPath),
		fmt.Sprintf("--force-media-title=%s", title),
		"--force-window=yes",
		"--idle=yes",
		"--keep-open=yes",
		"--pause=yes",
	}

	switch opts.Preload {
	case "none":
		args = append(args, "--cache=no")
	case "metadata":
		args = append(args, "--demuxer-readahead-secs=0")
	}

	// attributes pass through as mpv options, in a stable order
	names := lo.Keys(lo.OmitByKeys(opts.Attributes, []string{"title"}))
	slices.Sort(names)
	for _, name := range names {
		args = append(args, fmt.Sprintf("--%s=%s", strings.TrimLeft(name, "-"), opts.Attributes[name]))
	}

	return append(args, m.Args...)
}

// Load replaces the current file.
func (m *MPV) Load(f *media.File) error {
	target, err := sanitizeMediaTarget(f.Path)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}
	_, err = m.ipc.call("loadfile", target, "replace")
	return err
}

func (m *MPV) Play() error {
	_, err := m.ipc.call("set_property", "pause", false)
	return err
}

func (m *MPV) Pause() error {
	_, err := m.ipc.call("set_property", "pause", true)
	return err
}

// Stop pauses and keeps the file loaded, so playback can restart from the beginning.
func (m *MPV) Stop() error {
	return m.Pause()
}

func (m *MPV) Seek(position float64) error {
	_, err := m.ipc.call("seek", position, "absolute")
	return err
}

func (m *MPV) SetVolume(volume float64) error {
	_, err := m.ipc.call("set_property", "volume", volume*100)
	return err
}

func (m *MPV) Volume(answer func(mo.Option[float64])) {
	m.property("volume", func(v float64) float64 { return v / 100 }, answer)
}

func (m *MPV) CurrentTime(answer func(mo.Option[float64])) {
	m.property("time-pos", nil, answer)
}

func (m *MPV) Duration(answer func(mo.Option[float64])) {
	m.property("duration", nil, answer)
}

func (m *MPV) BytesLoaded(answer func(mo.Option[float64])) {
	m.property("stream-pos", nil, answer)
}

func (m *MPV) BytesTotal(answer func(mo.Option[float64])) {
	m.property("file-size", nil, answer)
}

// BytesStart is always 0, mpv buffers from the beginning of the stream.
func (m *MPV) BytesStart(answer func(mo.Option[float64])) {
	m.base.Post(func() { answer(mo.Some(0.0)) })
}

// property reads a numeric property off the scheduler and answers on it.
func (m *MPV) property(name string, convert func(float64) float64, answer func(mo.Option[float64])) {
	go func() {
		value, err := m.getFloatProperty(name)
		result := mo.None[float64]()
		switch {
		case err == nil:
			if convert != nil {
				value = convert(value)
			}
			result = mo.Some(value)
		case !errors.Is(err, errPropertyUnavailable) && !m.destroyed.Load():
			log.Debugf("mpv %s: %v", name, err)
		}
		m.base.Post(func() { answer(result) })
	}()
}

func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.ipc.call("get_property", name)
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected number, got %T", name, data)
	}
	return val, nil
}

// Destroy quits mpv, killing it if it does not exit in time, and removes the socket.
func (m *MPV) Destroy() error {
	if m.destroyed.Swap(true) {
		return nil
	}

	if m.listener != nil {
		m.listener.Stop()
	}

	if m.ipc == nil {
		return nil
	}

	// graceful quit first
	_, _ = m.ipc.call("quit")

	select {
	case <-m.exited:
	case <-time.After(quitTimeout):
		m.mu.Lock()
		_ = killProcess(m.cmd)
		m.mu.Unlock()
	}

	if err := filesystem.API().Remove(m.ipc.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove socket: %w", err)
	}
	return nil
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.ipc.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.ipc.socketPath, socketWaitRetries)
}

// newSocketPath returns a random socket path in the application's temp dir.
func newSocketPath() (string, error) {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(where.Temp(), fmt.Sprintf("%s-%x.sock", constant.App, randomBytes)), nil
}

// sanitizeMediaTarget validates that a source is safe to hand to a player process.
// Prevents flag injection from user scripts.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty source")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in source")
	}

	// sources must not look like flags
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("source must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "rtmp", "rtsp", "ytdl":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

// sanitizeTitle flattens a title onto one line.
func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
