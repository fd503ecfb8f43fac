// Package tui renders a terminal monitor for a playing session. It only listens to the
// player's events and sends commands back through the session.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/minplayer/minplayer/event"
	"github.com/minplayer/minplayer/player"
	"github.com/minplayer/minplayer/session"
)

// monitored are the events the monitor redraws on.
var monitored = []string{
	player.EventLoadStart,
	player.EventLoadedData,
	player.EventWaiting,
	player.EventPlaying,
	player.EventPause,
	player.EventEnded,
	player.EventError,
	player.EventTimeUpdate,
	player.EventDurationChange,
	player.EventProgress,
	player.EventVolumeUpdate,
}

// Run shows the monitor until the user quits or the session is done.
// It must not be called from the session's scheduler.
func Run(s *session.Session) error {
	program := tea.NewProgram(newModel(s, s.File.Path, s.File.BackendID))

	s.Post(func() {
		for _, name := range monitored {
			s.When(name, func(e event.Event) {
				program.Send(eventMsg{
					name:  e.Name,
					data:  e.Data,
					state: s.Player.State(),
					busy:  s.Busy.IsSet(),
				})
			})
		}
	})

	go func() {
		<-s.Done()
		program.Send(doneMsg{err: s.Err()})
	}()

	_, err := program.Run()
	return err
}
