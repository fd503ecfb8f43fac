package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/minplayer/minplayer/color"
	"github.com/minplayer/minplayer/history"
	"github.com/minplayer/minplayer/icon"
	"github.com/minplayer/minplayer/style"
	"github.com/minplayer/minplayer/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolP("json", "j", false, "Print the entries as JSON")
	historyCmd.Flags().StringArrayP("remove", "r", []string{}, "Forget the saved position of a source")
	historyCmd.SetOut(os.Stdout)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the saved playback positions",
	Run: func(cmd *cobra.Command, args []string) {
		if toRemove := lo.Must(cmd.Flags().GetStringArray("remove")); len(toRemove) > 0 {
			for _, path := range toRemove {
				handleErr(history.Remove(path))
				cmd.Printf("%s forgot %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(path))
			}
			return
		}

		saved, err := history.Get()
		handleErr(err)

		entries := lo.Values(saved)
		slices.SortFunc(entries, func(a, b *history.Entry) int {
			return b.SavedAt.Compare(a.SavedAt)
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(entries))
			return
		}

		if len(entries) == 0 {
			cmd.Println(style.Faint("No saved positions"))
			return
		}

		for _, e := range entries {
			cmd.Printf("%s %s\n  %s\n", style.Bold(util.FormatDuration(e.Position)), describeProgress(e), e.Path)
		}
	},
}

func describeProgress(e *history.Entry) string {
	var parts []string
	if e.Duration > 0 {
		parts = append(parts, fmt.Sprintf("of %s (%d%%)", util.FormatDuration(e.Duration), int(e.Progress()*100)))
	}
	if e.Backend != "" {
		parts = append(parts, "via "+style.Fg(color.Purple)(e.Backend))
	}
	parts = append(parts, style.Faint(e.SavedAt.Format("2006-01-02 15:04")))
	return strings.Join(parts, " ")
}
