package media

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// stubResolver plays everything whose mimetype has one of the allowed prefixes.
type stubResolver struct {
	id       string
	priority int
	allow    []string
}

func (s stubResolver) SelectBackend(f *File) (string, bool) {
	for _, a := range s.allow {
		if strings.HasPrefix(f.MimeType, a) {
			return s.id, true
		}
	}
	return "", false
}

func (s stubResolver) BackendPriority(id string) int {
	if id == s.id {
		return s.priority
	}
	return 0
}

func TestNew(t *testing.T) {
	Convey("Given a resolver that plays video", t, func() {
		r := stubResolver{id: "native", priority: 10, allow: []string{"video/"}}

		Convey("A plain path derives mimetype, kind, backend and priority", func() {
			f := New("movie.webm", r)
			So(f.MimeType, ShouldEqual, "video/webm")
			So(f.Kind, ShouldEqual, Video)
			So(f.BackendID, ShouldEqual, "native")
			So(f.Priority, ShouldEqual, 100)
			So(f.Playable(), ShouldBeTrue)
		})

		Convey("Higher mimetype weight yields higher priority on the same backend", func() {
			webm := New("a.webm", r)
			mp4 := New("a.mp4", r)
			ogg := New("a.ogv", r)
			mkv := New("a.mkv", r)

			So(webm.Priority, ShouldBeGreaterThan, mp4.Priority)
			So(mp4.Priority, ShouldBeGreaterThan, ogg.Priority)
			So(ogg.Priority, ShouldBeGreaterThan, mkv.Priority)
		})

		Convey("Wrapping an already built descriptor changes nothing", func() {
			f := New("a.mp4", r)
			before := *f
			again := New(f, stubResolver{id: "other", priority: 1, allow: []string{""}})
			So(again, ShouldPointTo, f)
			So(*again, ShouldResemble, before)
		})

		Convey("Caller supplied fields are kept", func() {
			f := New(map[string]any{
				"path":     "stream",
				"mimetype": "video/mp4",
				"codecs":   "avc1",
				"stream":   "live-1",
				"priority": 3,
			}, r)
			So(f.Codec, ShouldEqual, "avc1")
			So(f.StreamID, ShouldEqual, "live-1")
			So(f.Priority, ShouldEqual, 3)
			So(f.BackendID, ShouldEqual, "native")
		})

		Convey("A forced backend is not renegotiated, priority follows it", func() {
			f := New(map[string]string{"path": "a.mp4", "player": "flash"}, r)
			So(f.BackendID, ShouldEqual, "flash")
			So(f.Priority, ShouldEqual, 0)
			So(f.Playable(), ShouldBeTrue)
		})

		Convey("A kind that disagrees with the mimetype is corrected", func() {
			f := New(File{Path: "a.mp3", Kind: Video}, r)
			So(f.Kind, ShouldEqual, Audio)
		})

		Convey("Structural mimetypes fall back to video", func() {
			So(New("live.m3u8", nil).Kind, ShouldEqual, Video)
			So(New("clip.swf", nil).Kind, ShouldEqual, Video)
			So(New("blob.bin", nil).Kind, ShouldEqual, Video)
			So(New("notes.txt", nil).Kind, ShouldEqual, Unknown)
		})

		Convey("Hosted video URLs get pseudo mimetypes", func() {
			So(New("https://www.youtube.com/watch?v=abc", nil).MimeType, ShouldEqual, MimeYouTube)
			So(New("https://youtu.be/abc", nil).MimeType, ShouldEqual, MimeYouTube)
			So(New("https://vimeo.com/123", nil).MimeType, ShouldEqual, MimeVimeo)
			So(New("https://www.dailymotion.com/video/x7", nil).MimeType, ShouldEqual, MimeDailymotion)
		})

		Convey("Sources nothing can play are built but not playable", func() {
			f := New("song.mp3", r)
			So(f.BackendID, ShouldBeEmpty)
			So(f.Priority, ShouldEqual, 0)
			So(f.Playable(), ShouldBeFalse)
		})

		Convey("WithBackend re-targets a copy", func() {
			f := New("a.mp4", r)
			g := f.WithBackend("native", r)
			So(g, ShouldNotPointTo, f)
			So(g.BackendID, ShouldEqual, "native")
			So(g.Priority, ShouldEqual, f.Priority)

			h := f.WithBackend("vlc", r)
			So(h.BackendID, ShouldEqual, "vlc")
			So(h.Priority, ShouldEqual, 0)
			So(f.BackendID, ShouldEqual, "native")
		})

		Convey("WithMimeType negotiates a sniffed source again", func() {
			f := New("https://example.com/stream?id=1", r)
			So(f.Kind, ShouldEqual, Unknown)
			So(f.Playable(), ShouldBeFalse)

			g := f.WithMimeType("video/mp4", r)
			So(g, ShouldNotPointTo, f)
			So(g.Kind, ShouldEqual, Video)
			So(g.BackendID, ShouldEqual, "native")
			So(g.Priority, ShouldEqual, 90)
		})

		Convey("WithMimeType keeps a forced backend and priority", func() {
			f := New(map[string]any{
				"path":     "https://example.com/stream?id=1",
				"player":   "vlc",
				"priority": 7,
			}, r)

			g := f.WithMimeType("video/mp4", r)
			So(g.MimeType, ShouldEqual, "video/mp4")
			So(g.Kind, ShouldEqual, Video)
			So(g.BackendID, ShouldEqual, "vlc")
			So(g.Priority, ShouldEqual, 7)
		})

		Convey("An empty list yields nothing playable", func() {
			So(List(nil, r), ShouldBeEmpty)
			files := List([]any{"a.txt", ""}, r)
			So(files, ShouldHaveLength, 2)
			for _, f := range files {
				So(f.Playable(), ShouldBeFalse)
			}
		})
	})
}

func TestStartOffset(t *testing.T) {
	Convey("Start offsets are read from the source path", t, func() {
		So(New("clip.mp4#t=90", nil).StartTime, ShouldEqual, 90)
		So(New("clip.mp4#t=10,20", nil).StartTime, ShouldEqual, 10)
		So(New("https://youtu.be/abc?t=1m30s", nil).StartTime, ShouldEqual, 90)
		So(New("https://example.com/a.mp4?x=1&start=1:02:03", nil).StartTime, ShouldEqual, 3723)
		So(New("a.mp4", nil).StartTime, ShouldEqual, 0)
		So(New(map[string]any{"path": "a.mp4", "start": "2:30"}, nil).StartTime, ShouldEqual, 150)
	})

	Convey("Malformed offsets read as zero", t, func() {
		So(parseOffset("abc"), ShouldEqual, 0)
		So(parseOffset("1:x"), ShouldEqual, 0)
		So(parseOffset("-5"), ShouldEqual, 0)
		So(parseOffset("2h"), ShouldEqual, 7200)
	})
}
