package cmd

import (
	"fmt"
	"os"

	"github.com/minplayer/minplayer/icon"
	"github.com/minplayer/minplayer/probe"
	"github.com/minplayer/minplayer/util"
	"github.com/minplayer/minplayer/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	clear    func() error
}

func removing(location func() string) func() error {
	return func() error {
		err := util.Delete(location())
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), removing(where.Cache)},
	{"history file", "history", mo.Some("s"), removing(where.History)},
	{"capabilities", "capabilities", mo.Some("p"), probe.Forget},
	{"logs", "logs", mo.Some("l"), removing(where.Logs)},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached data, history or logs",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}

			anyCleared = true
			handleErr(target.clear())
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
