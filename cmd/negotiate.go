package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/minplayer/minplayer/color"
	"github.com/minplayer/minplayer/icon"
	"github.com/minplayer/minplayer/key"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/session"
	"github.com/minplayer/minplayer/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(negotiateCmd)
	negotiateCmd.Flags().BoolP("json", "j", false, "Print the descriptors as JSON")
	negotiateCmd.Flags().Bool("no-sniff", false, "Do not ask remote servers for the type of unknown sources")
	negotiateCmd.SetOut(os.Stdout)
}

var negotiateCmd = &cobra.Command{
	Use:   "negotiate [sources...]",
	Short: "Show how every candidate source would be played, without playing",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		registry := loadBackends()
		sniff := viper.GetBool(key.SniffRemote) && !lo.Must(cmd.Flags().GetBool("no-sniff"))

		files, err := session.Describe(context.Background(), registry, lo.ToAnySlice(args), viper.GetString(key.Player), sniff)
		handleErr(err)

		best, found := registry.SelectBest(files)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(struct {
				Files []*media.File `json:"files"`
				Best  *media.File   `json:"best,omitempty"`
			}{files, best}))
			return
		}

		for i, f := range files {
			cmd.Println(describeFile(f, found && f == best))
			if i < len(files)-1 {
				cmd.Println()
			}
		}

		if !found {
			handleErr(session.ErrNoPlayableSource)
		}
	},
}

func describeFile(f *media.File, best bool) string {
	label := style.Fg(style.LabelColor)
	backend := style.Fg(style.ErrorColor)("none")
	if f.Playable() {
		backend = style.Fg(style.BackendColor)(f.BackendID)
	}

	mark := icon.Get(icon.Unavailable)
	if best {
		mark = style.Fg(color.Green)(icon.Get(icon.Success))
	} else if f.Playable() {
		mark = icon.Get(icon.Available)
	}

	return fmt.Sprintf("%s %s\n  %s %s\n  %s %s\n  %s %s\n  %s %s",
		mark, style.Bold(f.Path),
		label("MIME:    "), lo.CoalesceOrEmpty(f.MimeType, "unknown"),
		label("Type:    "), f.Kind,
		label("Backend: "), backend,
		label("Priority:"), strconv.Itoa(f.Priority),
	)
}
