package backend

import (
	"errors"
	"testing"

	"github.com/minplayer/minplayer/event"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/player"
	"github.com/minplayer/minplayer/probe"
	"github.com/minplayer/minplayer/sched"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

type stubDriver struct{}

func (stubDriver) Construct(*player.Base) error               { return nil }
func (stubDriver) Load(*media.File) error                     { return nil }
func (stubDriver) Play() error                                { return nil }
func (stubDriver) Pause() error                               { return nil }
func (stubDriver) Stop() error                                { return nil }
func (stubDriver) Seek(float64) error                         { return nil }
func (stubDriver) SetVolume(float64) error                    { return nil }
func (stubDriver) Volume(answer func(mo.Option[float64]))      {}
func (stubDriver) CurrentTime(answer func(mo.Option[float64])) {}
func (stubDriver) Duration(answer func(mo.Option[float64]))    {}
func (stubDriver) BytesLoaded(answer func(mo.Option[float64])) {}
func (stubDriver) BytesTotal(answer func(mo.Option[float64]))  {}
func (stubDriver) BytesStart(answer func(mo.Option[float64]))  {}
func (stubDriver) Destroy() error                             { return nil }

func playing(mimetypes ...string) func(*media.File) bool {
	return func(f *media.File) bool {
		for _, m := range mimetypes {
			if f.MimeType == m {
				return true
			}
		}
		return false
	}
}

func descriptor(id string, priority int, canPlay func(*media.File) bool) *Descriptor {
	return &Descriptor{
		ID:       id,
		Name:     id,
		Priority: static(priority),
		CanPlay:  canPlay,
		New:      func() player.Driver { return stubDriver{} },
	}
}

func TestNegotiation(t *testing.T) {
	Convey("Given a runtime that only plays mp4", t, func() {
		r := NewRegistry(descriptor("native", 10, playing("video/mp4")))

		Convey("The mp4 candidate wins over the heavier webm one", func() {
			files := r.Describe("a.webm", "a.mp4")
			So(files[0].Playable(), ShouldBeFalse)
			So(files[1].BackendID, ShouldEqual, "native")

			best, ok := r.SelectBest(files)
			So(ok, ShouldBeTrue)
			So(best.Path, ShouldEqual, "a.mp4")
			So(best.Priority, ShouldEqual, 90)
		})

		Convey("Nothing playable is reported, not panicked on", func() {
			_, ok := r.SelectBest(r.Describe("a.webm", "b.ogv"))
			So(ok, ShouldBeFalse)

			_, ok = r.SelectBest(nil)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given backends with equal priority", t, func() {
		everything := func(*media.File) bool { return true }
		r := NewRegistry(
			descriptor("first", 5, everything),
			descriptor("second", 5, everything),
			descriptor("weak", 1, everything),
		)
		f := media.New("a.mp4", nil)

		Convey("The backend registered first wins", func() {
			id, ok := r.SelectBackend(f)
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "first")
		})

		Convey("Registering an id again moves it to the end", func() {
			r.Register(descriptor("first", 5, everything))
			So(r.IDs(), ShouldResemble, []string{"second", "weak", "first"})

			id, _ := r.SelectBackend(f)
			So(id, ShouldEqual, "second")
		})

		Convey("A higher priority beats registration order", func() {
			r.Register(descriptor("strong", 6, everything))
			id, _ := r.SelectBackend(f)
			So(id, ShouldEqual, "strong")
		})
	})

	Convey("Given candidates with equal priority", t, func() {
		r := NewRegistry(descriptor("native", 10, playing("video/mp4", "video/mpeg")))
		files := r.Describe("first.mp4", "second.mpeg")
		So(files[0].Priority, ShouldEqual, files[1].Priority)

		Convey("The earliest candidate wins", func() {
			best, _ := r.SelectBest(files)
			So(best.Path, ShouldEqual, "first.mp4")
		})
	})

	Convey("Given a backend with priority 0", t, func() {
		r := NewRegistry(descriptor("manual", 0, func(*media.File) bool { return true }))

		Convey("It is never negotiated", func() {
			_, ok := r.SelectBackend(media.New("a.mp4", nil))
			So(ok, ShouldBeFalse)
			So(r.Describe("a.mp4")[0].Playable(), ShouldBeFalse)
		})

		Convey("It can still be forced", func() {
			f := media.New(map[string]any{"path": "a.mp4", "player": "manual"}, r)
			best, ok := r.SelectBest([]*media.File{f})
			So(ok, ShouldBeTrue)
			So(best.BackendID, ShouldEqual, "manual")
			So(best.Priority, ShouldEqual, 0)
		})
	})

	Convey("Given a registry", t, func() {
		r := NewRegistry(descriptor("native", 10, playing("video/mp4")))

		Convey("Lookups of unknown ids come back empty", func() {
			_, ok := r.Lookup("nope")
			So(ok, ShouldBeFalse)
			So(r.BackendPriority("nope"), ShouldEqual, 0)
		})

		Convey("Forced candidates naming unknown backends are skipped", func() {
			f := media.New(map[string]any{"path": "a.mp4", "player": "nope"}, r)
			_, ok := r.SelectBest([]*media.File{f})
			So(ok, ShouldBeFalse)
		})

		Convey("Instantiation creates a media player on the shared event registry", func() {
			events := event.NewRegistry()
			f := r.Describe("a.mp4")[0]

			b, err := r.Instantiate(f, events, sched.NewManual(), player.Options{ID: "p1"})
			So(err, ShouldBeNil)
			So(b.State(), ShouldEqual, player.Constructed)
			So(events.Get("p1", player.PluginName), ShouldHaveLength, 1)
		})

		Convey("Instantiating an unknown backend fails", func() {
			f := media.New(map[string]any{"path": "a.mp4", "player": "nope"}, r)
			_, err := r.Instantiate(f, event.NewRegistry(), sched.NewManual(), player.Options{})
			So(errors.Is(err, ErrUnknownBackend), ShouldBeTrue)
		})
	})
}

func TestBuiltins(t *testing.T) {
	Convey("Given a linux machine with mpv and yt-dlp", t, func() {
		env := Environment{
			GOOS:    "linux",
			MPVPath: "mpv",
			Binaries: probe.Snapshot{
				"mpv":    {Name: "mpv", Available: true},
				"yt-dlp": {Name: "yt-dlp", Available: true},
				"vlc":    {Name: "vlc"},
			},
		}
		r := NewRegistry(Builtins(env)...)

		Convey("Files go to mpv", func() {
			id, ok := r.SelectBackend(media.New("a.mkv", nil))
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "mpv")
		})

		Convey("Hosted videos go to their backend", func() {
			id, _ := r.SelectBackend(media.New("https://youtu.be/dQw4w9WgXcQ", nil))
			So(id, ShouldEqual, "youtube")

			id, _ = r.SelectBackend(media.New("https://vimeo.com/76979871", nil))
			So(id, ShouldEqual, "vimeo")
		})

		Convey("Flash needs a projector", func() {
			_, ok := r.SelectBackend(media.New("movie.swf", nil))
			So(ok, ShouldBeFalse)
		})

		Convey("The system handler is only used when forced", func() {
			f := r.Describe("a.flac")[0]
			So(f.BackendID, ShouldEqual, "mpv")

			forced := f.WithBackend("system", r)
			So(forced.Playable(), ShouldBeTrue)
			So(forced.BackendID, ShouldEqual, "system")
		})

		Convey("IINA is only offered on macOS", func() {
			d, _ := r.Lookup("iina")
			So(d.CanPlay(media.New("a.mp4", nil)), ShouldBeFalse)
		})
	})

	Convey("Given a machine without mpv", t, func() {
		env := Environment{
			GOOS:      "darwin",
			MPVPath:   "mpv",
			SWFPlayer: "flashplayer",
			Disabled:  []string{"celluloid"},
			Binaries: probe.Snapshot{
				"vlc":         {Name: "vlc", Available: true},
				"celluloid":   {Name: "celluloid", Available: true},
				"flashplayer": {Name: "flashplayer", Available: true},
			},
		}
		r := NewRegistry(Builtins(env)...)

		Convey("Disabled backends are not registered", func() {
			_, ok := r.Lookup("celluloid")
			So(ok, ShouldBeFalse)
		})

		Convey("VLC and IINA tie, VLC is registered first", func() {
			id, _ := r.SelectBackend(media.New("a.mp4", nil))
			So(id, ShouldEqual, "vlc")
		})

		Convey("Hosted videos have no backend", func() {
			_, ok := r.SelectBackend(media.New("https://youtu.be/dQw4w9WgXcQ", nil))
			So(ok, ShouldBeFalse)
		})

		Convey("Flash movies go to the projector", func() {
			id, _ := r.SelectBackend(media.New("movie.swf", nil))
			So(id, ShouldEqual, "flash")
		})
	})
}
