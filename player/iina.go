package player

// NewIINA drives IINA through LaunchServices. "open -W" waits for the application to quit,
// so the process lifetime follows the player window. IINA accepts mpv options prefixed
// with --mpv- after the --args separator.
func NewIINA() *Process {
	p := NewProcess("iina", "open", "-W", "-n", "-a", "IINA", "--args")
	p.StartFlag = "--mpv-start=%.0f"
	p.VolumeFlag = "--mpv-volume=%.0f"
	return p
}
