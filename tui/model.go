package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/player"
)

// controller is the part of a session the monitor drives.
type controller interface {
	Post(fn func())
	Toggle() error
	SeekForward() error
	SeekBackward() error
	VolumeUp()
	VolumeDown()
}

type eventMsg struct {
	name  string
	data  any
	state player.State
	busy  bool
}

type doneMsg struct {
	err error
}

type model struct {
	control controller
	keymap  keymap
	help    help.Model
	bar     progress.Model

	source  string
	backend string

	state    player.State
	busy     bool
	position float64
	duration float64
	buffered float64
	volume   float64
	hasVol   bool
	err      error
	width    int
}

func newModel(control controller, source, backend string) *model {
	return &model{
		control: control,
		keymap:  newKeymap(),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		source:  source,
		backend: backend,
		busy:    true,
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-paddingWidth*2-timeWidth, 10)
		m.help.Width = msg.Width
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case eventMsg:
		m.handleEvent(msg)
	case doneMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.quit):
		return tea.Quit
	case key.Matches(msg, m.keymap.toggle):
		m.run(m.control.Toggle)
	case key.Matches(msg, m.keymap.forward):
		m.run(m.control.SeekForward)
	case key.Matches(msg, m.keymap.back):
		m.run(m.control.SeekBackward)
	case key.Matches(msg, m.keymap.volumeUp):
		m.control.Post(m.control.VolumeUp)
	case key.Matches(msg, m.keymap.volumeDown):
		m.control.Post(m.control.VolumeDown)
	}
	return nil
}

// run posts a command to the scheduler. Failures also arrive as error events.
func (m *model) run(command func() error) {
	m.control.Post(func() {
		if err := command(); err != nil {
			log.Debugf("monitor: %v", err)
		}
	})
}

func (m *model) handleEvent(msg eventMsg) {
	m.state = msg.state
	m.busy = msg.busy

	switch data := msg.data.(type) {
	case player.TimeUpdate:
		m.position, m.duration = data.CurrentTime, data.Duration
	case player.DurationChange:
		m.duration = data.Duration
	case player.Progress:
		if data.Total > 0 {
			m.buffered = data.Loaded / data.Total
		}
	case float64:
		if msg.name == player.EventVolumeUpdate {
			m.volume, m.hasVol = data, true
		}
	case error:
		m.err = data
	}
}

// percent is the played fraction, 0 while the duration is unknown.
func (m *model) percent() float64 {
	if m.duration <= 0 {
		return 0
	}
	return min(m.position/m.duration, 1)
}
