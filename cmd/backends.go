package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/minplayer/minplayer/backend"
	"github.com/minplayer/minplayer/color"
	"github.com/minplayer/minplayer/filesystem"
	"github.com/minplayer/minplayer/icon"
	"github.com/minplayer/minplayer/script"
	"github.com/minplayer/minplayer/style"
	"github.com/minplayer/minplayer/util"
	"github.com/minplayer/minplayer/where"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(backendsCmd)
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Manage the players media can be negotiated to",
}

func init() {
	backendsCmd.AddCommand(backendsListCmd)

	backendsListCmd.Flags().BoolP("raw", "r", false, "Print only the ids")
	backendsListCmd.Flags().BoolP("json", "j", false, "Print the backends as JSON")
	backendsListCmd.MarkFlagsMutuallyExclusive("raw", "json")
	backendsListCmd.SetOut(os.Stdout)
}

var backendsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered backends in negotiation order",
	Run: func(cmd *cobra.Command, args []string) {
		registry := loadBackends()

		if lo.Must(cmd.Flags().GetBool("raw")) {
			for _, id := range registry.IDs() {
				cmd.Println(id)
			}
			return
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			type entry struct {
				ID          string `json:"id"`
				Name        string `json:"name"`
				Description string `json:"description"`
				Priority    int    `json:"priority"`
			}
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(lo.Map(registry.All(), func(d *backend.Descriptor, _ int) entry {
				return entry{d.ID, d.Name, d.Description, registry.BackendPriority(d.ID)}
			})))
			return
		}

		width := 80
		if w, _, err := util.TerminalSize(); err == nil && w > 20 {
			width = w
		}

		for i, d := range registry.All() {
			cmd.Println(describeBackend(d, registry.BackendPriority(d.ID), width))
			if i < len(registry.All())-1 {
				cmd.Println()
			}
		}
	},
}

func describeBackend(d *backend.Descriptor, priority, width int) string {
	header := fmt.Sprintf("%s %s", style.Fg(color.Purple)(style.Bold(d.ID)), style.Faint(d.Name))

	var note string
	switch {
	case priority <= 0:
		note = style.Fg(color.Yellow)("forced only")
	default:
		note = style.Faint(fmt.Sprintf("priority %d", priority))
	}

	if d.Description == "" {
		return header + " " + note
	}
	body := indent.String(wordwrap.String(d.Description, width-2), 2)
	return header + " " + note + "\n" + body
}

func init() {
	backendsCmd.AddCommand(backendsGenCmd)

	backendsGenCmd.Flags().StringP("id", "i", "", "Id of the new backend")
	backendsGenCmd.Flags().StringP("command", "c", "", "Executable of the player")
	lo.Must0(backendsGenCmd.MarkFlagRequired("id"))
	lo.Must0(backendsGenCmd.MarkFlagRequired("command"))
}

var backendsGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a Lua backend script",
	Long: `Generate a Lua backend script in the backends directory.
The script declares the player's command, its priority and which sources it can play.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SetOut(os.Stdout)

		author := "Anonymous"
		if usr, err := user.Current(); err == nil {
			author = usr.Username
		}

		id := util.SanitizeFilename(lo.Must(cmd.Flags().GetString("id")))
		target := filepath.Join(where.Backends(), id+script.Extension)

		exists, err := filesystem.API().Exists(target)
		handleErr(err)
		if exists {
			handleErr(fmt.Errorf("%s already exists", target))
		}

		f, err := filesystem.API().Create(target)
		handleErr(err)
		defer util.Ignore(f.Close)

		handleErr(script.Generate(f, id, lo.Must(cmd.Flags().GetString("command")), author))
		cmd.Println(target)
	},
}

func init() {
	backendsCmd.AddCommand(backendsRemoveCmd)

	backendsRemoveCmd.Flags().StringArrayP("id", "i", []string{}, "Id of the script backend to remove")
	lo.Must0(backendsRemoveCmd.RegisterFlagCompletionFunc("id", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		ids, err := scriptIDs()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}))
}

var backendsRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove Lua backend scripts",
	Run: func(cmd *cobra.Command, args []string) {
		ids, err := scriptIDs()
		handleErr(err)

		for _, id := range lo.Must(cmd.Flags().GetStringArray("id")) {
			if !lo.Contains(ids, id) {
				handleErr(errUnknownBackend(id, ids))
			}

			handleErr(filesystem.API().Remove(filepath.Join(where.Backends(), id+script.Extension)))
			fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(id))
		}
	},
}

// scriptIDs lists the backend scripts by file name.
func scriptIDs() ([]string, error) {
	entries, err := filesystem.API().ReadDir(where.Backends())
	if err != nil {
		return nil, err
	}

	return lo.FilterMap(entries, func(item os.FileInfo, _ int) (string, bool) {
		name := item.Name()
		if item.IsDir() || !strings.HasSuffix(name, script.Extension) {
			return "", false
		}
		return util.FileStem(name), true
	}), nil
}

// errUnknownBackend suggests the ids closest to id.
func errUnknownBackend(id string, known []string) error {
	ranks := fuzzy.RankFindFold(id, known)
	sort.Sort(ranks)

	if len(ranks) == 0 {
		return fmt.Errorf("%w: %s", backend.ErrUnknownBackend, style.Fg(color.Red)(id))
	}

	suggestions := lo.Map(ranks, func(r fuzzy.Rank, _ int) string {
		return style.Fg(color.Yellow)(r.Target)
	})
	return errors.Join(
		fmt.Errorf("%w: %s", backend.ErrUnknownBackend, style.Fg(color.Red)(id)),
		fmt.Errorf("did you mean %s?", strings.Join(suggestions, ", ")),
	)
}
