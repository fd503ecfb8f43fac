package style

import "github.com/minplayer/minplayer/color"

// Colors of playback states and of the pieces of a source description.
var (
	PlayingColor = color.Green
	PausedColor  = color.Yellow
	BusyColor    = color.Yellow
	IdleColor    = color.White
	StoppedColor = color.Gray
	ErrorColor   = color.Red
	BackendColor = color.Purple
	LabelColor   = color.Blue
	ValueColor   = color.Yellow
)
