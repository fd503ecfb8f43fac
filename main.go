// Package main is the entry point of minplayer.
package main

import (
	"github.com/minplayer/minplayer/cmd"
	"github.com/minplayer/minplayer/config"
	"github.com/minplayer/minplayer/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
