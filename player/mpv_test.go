package player

import (
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/minplayer/minplayer/constant"
	"github.com/minplayer/minplayer/event"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/sched"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMPV(t *testing.T) {
	Convey("Given an mpv driver", t, func() {
		m := NewMPV("")
		m.ipc = &ipcClient{socketPath: "/tmp/minplayer-test.sock"}

		Convey("An empty path defaults to mpv from PATH", func() {
			So(m.Path, ShouldEqual, "mpv")
		})

		Convey("Arguments start paused and pass attributes through in order", func() {
			opts := Options{
				Preload: "none",
				Attributes: map[string]string{
					"title":       "Big Buck Bunny",
					"ytdl-format": "best",
					"--hwdec":     "auto",
				},
			}
			m.Args = []string{"--fs"}
			args := m.arguments(opts, media.New("/videos/bunny.mp4", nil))

			So(args, ShouldContain, "--input-ipc-server=/tmp/minplayer-test.sock")
			So(args, ShouldContain, "--force-media-title=Big Buck Bunny")
			So(args, ShouldContain, "--pause=yes")
			So(args, ShouldContain, "--cache=no")
			So(args[len(args)-3:], ShouldResemble, []string{"--hwdec=auto", "--ytdl-format=best", "--fs"})
		})

		Convey("The title defaults to the file name", func() {
			args := m.arguments(Options{}, media.New("/videos/bunny.mp4", nil))
			So(args, ShouldContain, "--force-media-title=bunny.mp4")
		})

		Convey("Property changes drive the lifecycle", func() {
			clock := sched.NewManual()
			b, err := New(event.NewRegistry(), clock, media.New("a.mp4", nil), newFakeDriver(), Options{Autoload: true})
			So(err, ShouldBeNil)
			m.base = b

			var events []string
			for _, name := range []string{EventLoadedData, EventPlaying, EventPause, EventWaiting, EventEnded, EventVolumeUpdate} {
				b.Bind(name, func(e event.Event) { events = append(events, e.Name) })
			}

			m.dispatch(ipcMessage{Event: "file-loaded"})
			m.dispatch(ipcMessage{Event: "property-change", Name: "pause", Data: true})
			m.dispatch(ipcMessage{Event: "property-change", Name: "pause", Data: false})
			m.dispatch(ipcMessage{Event: "property-change", Name: "paused-for-cache", Data: true})
			m.dispatch(ipcMessage{Event: "property-change", Name: "paused-for-cache", Data: false})
			m.dispatch(ipcMessage{Event: "property-change", Name: "volume", Data: 40.0})
			m.dispatch(ipcMessage{Event: "property-change", Name: "duration", Data: 90.0})
			m.dispatch(ipcMessage{Event: "property-change", Name: "eof-reached", Data: true})

			So(events, ShouldResemble, []string{
				EventLoadedData, EventPlaying, EventWaiting, EventPlaying,
				EventVolumeUpdate, EventPause, EventEnded,
			})
			So(b.volume.Peek(), ShouldResemble, mo.Some(0.4))
			So(b.duration.Peek(), ShouldResemble, mo.Some(90.0))
		})

		Convey("Failed files are reported as errors", func() {
			b, _ := New(event.NewRegistry(), sched.NewManual(), media.New("a.mp4", nil), newFakeDriver(), Options{Autoload: true})
			m.base = b

			var payload any
			b.Bind(EventError, func(e event.Event) { payload = e.Data })
			m.dispatch(ipcMessage{Event: "end-file", Reason: "error", FileError: "loading failed"})
			So(payload, ShouldBeError, "mpv: loading failed")
		})
	})
}

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("Media targets are validated", t, func() {
		target, err := sanitizeMediaTarget("  https://example.com/a.mp4 ")
		So(err, ShouldBeNil)
		So(target, ShouldEqual, "https://example.com/a.mp4")

		target, err = sanitizeMediaTarget("videos/../videos/a.mp4")
		So(err, ShouldBeNil)
		So(target, ShouldEqual, "videos/a.mp4")

		_, err = sanitizeMediaTarget("--script=evil.lua")
		So(err, ShouldNotBeNil)

		_, err = sanitizeMediaTarget("file:///etc/passwd")
		So(err, ShouldNotBeNil)

		_, err = sanitizeMediaTarget("a\nb")
		So(err, ShouldNotBeNil)

		_, err = sanitizeMediaTarget("")
		So(err, ShouldNotBeNil)
	})

	Convey("Titles are flattened", t, func() {
		So(sanitizeTitle(" a\nb\tc\x00 "), ShouldEqual, "a b c")
	})
}

func TestProcess(t *testing.T) {
	Convey("Given process drivers", t, func() {
		Convey("VLC puts the source first and formats start and gain", func() {
			p := NewVLC()
			p.volume = mo.Some(0.5)
			So(p.arguments("a.mp4", 90), ShouldResemble, []string{"a.mp4", "--play-and-exit", "--start-time=90", "--gain=0.50"})
		})

		Convey("IINA goes through open with mpv options", func() {
			p := NewIINA()
			So(p.arguments("a.mp4", 0), ShouldResemble, []string{"-W", "-n", "-a", "IINA", "--args", "a.mp4"})
			So(p.arguments("a.mp4", 12), ShouldContain, "--mpv-start=12")
		})

		Convey("The system handler escapes the source for its platform", func() {
			p, err := NewSystem(constant.Windows)
			So(err, ShouldBeNil)
			args := p.arguments("https://example.com/v?a=1&b=2", 30)
			So(args, ShouldResemble, []string{"url.dll,FileProtocolHandler", "https://example.com/v?a=1^&b=2"})

			p, err = NewSystem(constant.Linux)
			So(err, ShouldBeNil)
			So(p.Command, ShouldResemble, []string{"xdg-open"})

			_, err = NewSystem("plan9")
			So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
		})

		Convey("Flash has no start flag", func() {
			p := NewFlash("flashplayer")
			So(p.arguments("a.swf", 30), ShouldResemble, []string{"a.swf"})
		})

		Convey("Position is estimated while running", func() {
			clock := sched.NewManual()
			b, err := New(event.NewRegistry(), clock, media.New("a.mp4", nil), newFakeDriver(), Options{})
			So(err, ShouldBeNil)

			now := time.Unix(1000, 0)
			p := NewVLC()
			p.base = b
			p.now = func() time.Time { return now }

			var answers []mo.Option[float64]
			record := func(o mo.Option[float64]) { answers = append(answers, o) }

			p.CurrentTime(record)
			p.running, p.startedAt, p.offset = true, now, 10
			now = now.Add(5 * time.Second)
			p.CurrentTime(record)
			clock.Flush()

			So(answers, ShouldResemble, []mo.Option[float64]{mo.None[float64](), mo.Some(15.0)})
		})

		Convey("A stopped process no longer counts as running", func() {
			clock := sched.NewManual()
			b, err := New(event.NewRegistry(), clock, media.New("a.mp4", nil), newFakeDriver(), Options{})
			So(err, ShouldBeNil)

			p := NewVLC()
			p.base = b
			p.cmd, p.running = &exec.Cmd{}, true

			So(p.Stop(), ShouldBeNil)
			So(p.running, ShouldBeFalse)

			var answers []mo.Option[float64]
			p.CurrentTime(func(o mo.Option[float64]) { answers = append(answers, o) })
			clock.Flush()
			So(answers, ShouldResemble, []mo.Option[float64]{mo.None[float64]()})
		})

		Convey("Unsupported commands say so", func() {
			p := NewCelluloid()
			So(p.Pause(), ShouldEqual, ErrUnsupported)
			So(p.Seek(3), ShouldEqual, ErrUnsupported)
			So(p.SetVolume(0.2), ShouldBeNil)
		})
	})
}
