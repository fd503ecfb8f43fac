package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/minplayer/minplayer/color"
	"github.com/minplayer/minplayer/icon"
	"github.com/minplayer/minplayer/player"
	"github.com/minplayer/minplayer/style"
	"github.com/minplayer/minplayer/util"
	"github.com/muesli/reflow/truncate"
)

const (
	paddingWidth = 2
	timeWidth    = 18
)

var paddingStyle = lipgloss.NewStyle().Padding(1, paddingWidth)

func (m *model) View() string {
	lines := []string{
		m.viewHeader(),
		"",
		m.viewSource(),
		m.viewTimeline(),
		m.viewStatus(),
	}

	if m.err != nil {
		lines = append(lines, "", style.Fg(style.ErrorColor)(icon.Get(icon.Fail)+" "+m.err.Error()))
	}

	lines = append(lines, "", m.help.View(m.keymap))
	return paddingStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) viewHeader() string {
	return style.Title("minplayer") + " " + style.Tag(color.New("230"), style.BackendColor)(m.backend)
}

func (m *model) viewSource() string {
	if m.width <= 0 {
		return m.source
	}
	return truncate.StringWithTail(m.source, uint(max(m.width-paddingWidth*2, 1)), "…")
}

func (m *model) viewTimeline() string {
	times := fmt.Sprintf(" %s / %s", util.FormatDuration(m.position), util.FormatDuration(m.duration))
	if m.duration <= 0 {
		times = fmt.Sprintf(" %s / live", util.FormatDuration(m.position))
	}
	return m.bar.ViewAs(m.percent()) + style.Faint(times)
}

func (m *model) viewStatus() string {
	parts := []string{m.viewState()}

	if m.busy {
		parts = append(parts, style.Fg(style.BusyColor)(icon.Get(icon.Busy)+" buffering"))
	}
	if m.hasVol {
		parts = append(parts, fmt.Sprintf("%s %d%%", icon.Get(icon.Volume), int(m.volume*100+0.5)))
	}
	if m.buffered > 0 && m.buffered < 1 {
		parts = append(parts, style.Faint(fmt.Sprintf("buffered %d%%", int(m.buffered*100))))
	}

	return strings.Join(parts, "  ")
}

func (m *model) viewState() string {
	var i icon.Icon
	c := style.IdleColor

	switch m.state {
	case player.Playing:
		i, c = icon.Play, style.PlayingColor
	case player.Paused:
		i, c = icon.Pause, style.PausedColor
	case player.Ended:
		i = icon.Ended
	case player.Destroyed:
		i, c = icon.Stop, style.StoppedColor
	default:
		i = icon.Busy
	}

	return style.Fg(c)(strings.TrimSpace(icon.Get(i) + " " + m.state.String()))
}
