package script

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/minplayer/minplayer/backend"
	"github.com/minplayer/minplayer/filesystem"
	"github.com/minplayer/minplayer/media"
	. "github.com/smartystreets/goconvey/convey"
)

const mplayerScript = `
id = "mplayer"
name = "MPlayer"
command = { "mplayer", "-really-quiet" }
start_flag = "-ss=%.0f"

function priority()
	return 7
end

function can_play(f)
	return f.type == "video" and not f.remote
end
`

func write(dir, name, content string) string {
	path := filepath.Join(dir, name)
	So(filesystem.API().WriteFile(path, []byte(content), 0o644), ShouldBeNil)
	return path
}

func TestLoad(t *testing.T) {
	Convey("Given a backends directory", t, func() {
		filesystem.SetMemMapFs()
		dir := "/backends"
		So(filesystem.API().MkdirAll(dir, 0o755), ShouldBeNil)

		Convey("A complete script loads", func() {
			s, err := Load(write(dir, "mplayer.lua", mplayerScript))
			So(err, ShouldBeNil)
			defer s.Close()

			So(s.ID, ShouldEqual, "mplayer")
			So(s.Name, ShouldEqual, "MPlayer")
			So(s.Priority(), ShouldEqual, 7)
			So(s.Command, ShouldResemble, []string{"mplayer", "-really-quiet"})

			Convey("can_play sees the descriptor", func() {
				So(s.CanPlay(media.New("a.mkv", nil)), ShouldBeTrue)
				So(s.CanPlay(media.New("a.mp3", nil)), ShouldBeFalse)
				So(s.CanPlay(media.New("https://example.com/a.mkv", nil)), ShouldBeFalse)
			})

			Convey("The driver is configured from the globals", func() {
				p := s.Driver()
				So(p.Name, ShouldEqual, "mplayer")
				So(p.StartFlag, ShouldEqual, "-ss=%.0f")
				So(p.Command, ShouldResemble, []string{"mplayer", "-really-quiet"})
			})

			Convey("It negotiates like any other backend", func() {
				r := backend.NewRegistry(s.Descriptor())
				best, ok := r.SelectBest(r.Describe("a.mp3", "a.webm"))
				So(ok, ShouldBeTrue)
				So(best.BackendID, ShouldEqual, "mplayer")
				So(best.Priority, ShouldEqual, 70)
			})
		})

		Convey("The id defaults to the file name and a string command is split", func() {
			s, err := Load(write(dir, "my-player.lua", `
command = "myplayer --fullscreen"
function priority() return 1 end
function can_play(f) return true end
`))
			So(err, ShouldBeNil)
			defer s.Close()

			So(s.ID, ShouldEqual, "my-player")
			So(s.Name, ShouldEqual, "my-player")
			So(s.Command, ShouldResemble, []string{"myplayer", "--fullscreen"})
		})

		Convey("Missing functions are rejected", func() {
			_, err := Load(write(dir, "broken.lua", `command = "x"`))
			So(err, ShouldNotBeNil)
		})

		Convey("A missing command is rejected", func() {
			_, err := Load(write(dir, "nocmd.lua", `
function priority() return 1 end
function can_play(f) return true end
`))
			So(err, ShouldNotBeNil)
		})

		Convey("Syntax errors are rejected", func() {
			_, err := Load(write(dir, "syntax.lua", `function (`))
			So(err, ShouldNotBeNil)
		})

		Convey("Runtime errors in can_play count as not playable", func() {
			s, err := Load(write(dir, "erring.lua", `
command = "x"
function priority() return 1 end
function can_play(f) error("boom") end
`))
			So(err, ShouldBeNil)
			defer s.Close()
			So(s.CanPlay(media.New("a.mp4", nil)), ShouldBeFalse)
		})

		Convey("LoadAll skips broken scripts and other files", func() {
			write(dir, "mplayer.lua", mplayerScript)
			write(dir, "broken.lua", `command = "x"`)
			write(dir, "notes.txt", "not a script")

			scripts, errs := LoadAll(dir)
			So(scripts, ShouldHaveLength, 1)
			So(scripts[0].ID, ShouldEqual, "mplayer")
			So(errs, ShouldHaveLength, 1)
		})

		Convey("A missing directory has no scripts", func() {
			scripts, errs := LoadAll("/nowhere")
			So(scripts, ShouldBeEmpty)
			So(errs, ShouldBeEmpty)
		})
	})
}

func TestGenerate(t *testing.T) {
	Convey("Generated scripts load", t, func() {
		filesystem.SetMemMapFs()
		So(filesystem.API().MkdirAll("/backends", 0o755), ShouldBeNil)

		var buf bytes.Buffer
		So(Generate(&buf, "mplayer", "mplayer", "someone"), ShouldBeNil)
		So(buf.String(), ShouldContainSubstring, "-- @id      mplayer")

		s, err := Load(write("/backends", "mplayer.lua", buf.String()))
		So(err, ShouldBeNil)
		defer s.Close()

		So(s.Priority(), ShouldEqual, 5)
		So(s.CanPlay(media.New("a.mp3", nil)), ShouldBeTrue)
		So(s.CanPlay(media.New("a.txt", nil)), ShouldBeFalse)
	})
}
