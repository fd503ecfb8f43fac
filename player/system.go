package player

import (
	"fmt"

	"github.com/minplayer/minplayer/open"
)

// NewSystem hands the source to the default handler of goos. Most handlers return once
// the application is launched, so the lifecycle usually ends right after starting.
func NewSystem(goos string) (*Process, error) {
	command, ok := open.Command(goos)
	if !ok {
		return nil, fmt.Errorf("%w: no default handler on %s", ErrUnsupported, goos)
	}

	p := NewProcess("system", command...)
	p.Escape = func(target string) string { return open.Escape(goos, target) }
	return p, nil
}
