package history

import (
	"testing"

	"github.com/minplayer/minplayer/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given a source played half way", t, func() {
		const path = "/videos/bunny.mp4"
		So(Save(path, "mpv", 300, 600), ShouldBeNil)

		Convey("Then it can be resumed", func() {
			So(Position(path).MustGet(), ShouldEqual, 300)

			saved, err := Get()
			So(err, ShouldBeNil)
			So(saved[path].Backend, ShouldEqual, "mpv")
			So(saved[path].Progress(), ShouldEqual, 0.5)
		})

		Convey("When it is watched to the end", func() {
			So(Save(path, "mpv", 590, 600), ShouldBeNil)

			Convey("Then it starts over", func() {
				So(Position(path).IsAbsent(), ShouldBeTrue)
			})
		})

		Convey("When it is removed", func() {
			So(Remove(path), ShouldBeNil)

			Convey("Then there is nothing to resume", func() {
				So(Position(path).IsAbsent(), ShouldBeTrue)
			})
		})

		Convey("Unknown sources have no position", func() {
			So(Position("/videos/other.mp4").IsAbsent(), ShouldBeTrue)
		})

		Convey("Live streams without a duration keep their position", func() {
			So(Save("https://example.com/live.m3u8", "mpv", 42, 0), ShouldBeNil)
			So(Position("https://example.com/live.m3u8").MustGet(), ShouldEqual, 42)
		})
	})
}
