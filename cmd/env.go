package cmd

import (
	"os"
	"strings"

	"github.com/minplayer/minplayer/config"
	"github.com/minplayer/minplayer/style"
	"github.com/minplayer/minplayer/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Show only variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Show only variables that are unset")

	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
	envCmd.SetOut(os.Stdout)
}

// envNames lists every variable the application reads, sorted.
func envNames() []string {
	names := lo.Map(config.EnvExposed, func(k string, _ int) string {
		f := config.Default[k]
		return f.Env()
	})
	names = append(names, where.EnvConfigPath)
	slices.Sort(names)
	return names
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the supported environment variables and their values",
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))

		for _, name := range envNames() {
			value, present := os.LookupEnv(name)
			present = present && strings.TrimSpace(value) != ""

			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			rendered := style.Fg(style.ErrorColor)("unset")
			if present {
				rendered = style.Fg(style.PlayingColor)(value)
			}
			cmd.Printf("%s=%s\n", style.Bold(style.Fg(style.BackendColor)(name)), rendered)
		}
	},
}
