package cmd

import (
	"github.com/minplayer/minplayer/backend"
	"github.com/minplayer/minplayer/key"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/script"
	"github.com/minplayer/minplayer/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadBackends registers the builtin backends followed by the user's scripts, so a script
// can replace a builtin by reusing its id.
func loadBackends() *backend.Registry {
	r := backend.NewRegistry(backend.Builtins(backend.EnvironmentFromConfig())...)

	if !viper.GetBool(key.BackendsScripts) {
		return r
	}

	scripts, errs := script.LoadAll(where.Backends())
	for _, err := range errs {
		log.Warn(err)
	}
	for _, s := range scripts {
		r.Register(s.Descriptor())
	}

	return r
}

func completionBackends(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	ids := lo.Map(backend.Builtins(backend.Environment{}), func(d *backend.Descriptor, _ int) string {
		return d.ID
	})

	scripts, _ := script.LoadAll(where.Backends())
	for _, s := range scripts {
		ids = append(ids, s.ID)
		s.Close()
	}

	return lo.Uniq(ids), cobra.ShellCompDirectiveNoFileComp
}
