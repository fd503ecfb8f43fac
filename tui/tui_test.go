package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/minplayer/minplayer/player"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeController struct {
	calls []string
	err   error
}

func (c *fakeController) Post(fn func()) { fn() }

func (c *fakeController) record(name string) error {
	c.calls = append(c.calls, name)
	return c.err
}

func (c *fakeController) Toggle() error       { return c.record("toggle") }
func (c *fakeController) SeekForward() error  { return c.record("forward") }
func (c *fakeController) SeekBackward() error { return c.record("back") }
func (c *fakeController) VolumeUp()           { _ = c.record("up") }
func (c *fakeController) VolumeDown()         { _ = c.record("down") }

func press(m *model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestModel(t *testing.T) {
	Convey("Given a monitor", t, func() {
		c := &fakeController{}
		m := newModel(c, "/videos/a.mp4", "mpv")

		Convey("Keys drive the session", func() {
			cmd := press(m, "space", "right", "left", "l", "h", "+", "-")
			So(cmd, ShouldBeNil)
			So(c.calls, ShouldResemble, []string{"toggle", "forward", "back", "forward", "back", "up", "down"})
		})

		Convey("Failed commands do not stop the monitor", func() {
			c.err = errors.New("not ready")
			So(press(m, "space"), ShouldBeNil)
			So(c.calls, ShouldResemble, []string{"toggle"})
		})

		Convey("q quits", func() {
			So(press(m, "q"), ShouldNotBeNil)
			So(c.calls, ShouldBeEmpty)
		})

		Convey("Events update the view", func() {
			m.Update(eventMsg{name: player.EventPlaying, state: player.Playing})
			m.Update(eventMsg{
				name:  player.EventTimeUpdate,
				data:  player.TimeUpdate{CurrentTime: 90, Duration: 360},
				state: player.Playing,
			})
			m.Update(eventMsg{name: player.EventVolumeUpdate, data: 0.5, state: player.Playing})

			So(m.busy, ShouldBeFalse)
			So(m.percent(), ShouldEqual, 0.25)

			view := m.View()
			So(view, ShouldContainSubstring, "1:30 / 6:00")
			So(view, ShouldContainSubstring, "playing")
			So(view, ShouldContainSubstring, "50%")
			So(view, ShouldContainSubstring, "/videos/a.mp4")
		})

		Convey("An unknown duration shows a live timeline", func() {
			m.Update(eventMsg{name: player.EventTimeUpdate, data: player.TimeUpdate{CurrentTime: 5}})
			So(m.percent(), ShouldEqual, 0)
			So(m.View(), ShouldContainSubstring, "0:05 / live")
		})

		Convey("Busy is shown while buffering", func() {
			m.Update(eventMsg{name: player.EventWaiting, state: player.Waiting, busy: true})
			So(m.View(), ShouldContainSubstring, "buffering")
		})

		Convey("Errors are shown", func() {
			m.Update(eventMsg{name: player.EventError, data: errors.New("decoder failed")})
			So(m.View(), ShouldContainSubstring, "decoder failed")
		})

		Convey("The end of the session quits", func() {
			_, cmd := m.Update(doneMsg{err: errors.New("gone")})
			So(cmd, ShouldNotBeNil)
			So(m.err, ShouldBeError, "gone")
		})

		Convey("Resizing fits the bar to the terminal", func() {
			m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
			So(m.bar.Width, ShouldEqual, 80-paddingWidth*2-timeWidth)
		})
	})
}
