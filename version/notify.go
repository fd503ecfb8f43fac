package version

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minplayer/minplayer/color"
	"github.com/minplayer/minplayer/constant"
	"github.com/minplayer/minplayer/key"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/style"
	"github.com/spf13/viper"
)

const checkTimeout = 3 * time.Second

// Notify prints a notice to w when a newer release than constant.Version exists.
func Notify(ctx context.Context, w io.Writer) {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	latest, err := Latest(ctx)
	if err != nil {
		log.Debugf("version check: %v", err)
		return
	}

	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	_, _ = fmt.Fprintf(w, "\n%s New version is available %s %s\n%s\n\n",
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/minplayer/minplayer/releases/tag/v"+latest),
	)
}
