package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/AlecAivazis/survey/v2"
	"github.com/minplayer/minplayer/backend"
	"github.com/minplayer/minplayer/event"
	"github.com/minplayer/minplayer/icon"
	"github.com/minplayer/minplayer/key"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/player"
	"github.com/minplayer/minplayer/sched"
	"github.com/minplayer/minplayer/session"
	"github.com/minplayer/minplayer/style"
	"github.com/minplayer/minplayer/tui"
	"github.com/minplayer/minplayer/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)
	addPlayFlags(playCmd)
}

func addPlayFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("choose", "c", false, "Pick the source among the playable candidates")
	cmd.Flags().BoolP("monitor", "m", false, "Show the playback monitor")
	cmd.Flags().Bool("no-resume", false, "Start from the beginning instead of the saved position")
	cmd.Flags().Float64("from", -1, "Start position in seconds")
}

var playCmd = &cobra.Command{
	Use:   "play [sources...]",
	Short: "Play the best of the given candidate sources",
	Long: `Describe every candidate, negotiate a backend for each and play the one with the
highest priority. Candidates are alternatives of the same media, e.g. different formats.`,
	Example: "  " + "play movie.webm movie.mp4\n  play -b vlc https://example.com/live.m3u8",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(play(cmd, args))
	},
}

func play(cmd *cobra.Command, args []string) error {
	opts, err := session.OptionsFromConfig()
	if err != nil {
		return err
	}

	if lo.Must(cmd.Flags().GetBool("no-resume")) {
		opts.Resume = false
	}
	if from := lo.Must(cmd.Flags().GetFloat64("from")); from >= 0 {
		opts.Resume = false
		opts.Player.Start = from
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry := loadBackends()
	raws := lo.ToAnySlice(args)

	if lo.Must(cmd.Flags().GetBool("choose")) {
		chosen, err := choose(ctx, registry, raws, opts)
		if err != nil {
			return err
		}
		raws = []any{chosen}
	}

	loop := sched.NewLoop()
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go func() { _ = loop.Run(loopCtx) }()

	deps := session.Deps{
		Backends:  registry,
		Events:    event.NewRegistry(),
		Scheduler: loop,
	}

	var (
		s       *session.Session
		openErr error
	)
	if err := loop.Call(ctx, func() { s, openErr = session.Open(ctx, deps, raws, opts) }); err != nil {
		return err
	}
	if openErr != nil {
		return openErr
	}

	defer func() {
		if err := loop.Call(context.Background(), func() { _ = s.Close() }); err != nil {
			log.Warnf("close: %v", err)
		}
	}()

	monitor := lo.Must(cmd.Flags().GetBool("monitor")) || viper.GetBool(key.CliMonitor)
	if monitor {
		return tui.Run(s)
	}

	report(cmd, s)

	// nothing else will press play without the monitor
	var startErr error
	if err := loop.Call(ctx, func() { startErr = s.Start() }); err != nil {
		return nil
	}
	if startErr != nil {
		return startErr
	}

	select {
	case <-s.Done():
	case <-ctx.Done():
		return nil
	}

	var sessionErr error
	_ = loop.Call(context.Background(), func() { sessionErr = s.Err() })
	return sessionErr
}

// report prints state changes for sessions running without the monitor.
func report(cmd *cobra.Command, s *session.Session) {
	out := cmd.OutOrStdout()
	path := style.Faint(s.File.Path)

	s.Post(func() {
		backend := style.Fg(style.BackendColor)(s.File.BackendID)
		s.When(player.EventPlaying, func(event.Event) {
			pos, _ := s.Position()
			_, _ = fmt.Fprintf(out, "%s %s %s at %s\n", icon.Get(icon.Play), backend, path, util.FormatDuration(pos))
		})
		s.When(player.EventPause, func(event.Event) {
			pos, _ := s.Position()
			_, _ = fmt.Fprintf(out, "%s paused at %s\n", icon.Get(icon.Pause), util.FormatDuration(pos))
		})
		s.When(player.EventEnded, func(event.Event) {
			_, _ = fmt.Fprintf(out, "%s %s\n", icon.Get(icon.Ended), path)
		})
		s.When(player.EventError, func(e event.Event) {
			_, _ = fmt.Fprintf(out, "%s %v\n", style.Fg(style.ErrorColor)(icon.Get(icon.Fail)), e.Data)
		})
	})
}

// choose asks which of the playable candidates to play.
func choose(ctx context.Context, registry *backend.Registry, raws []any, opts session.Options) (*media.File, error) {
	files, err := session.Describe(ctx, registry, raws, opts.Backend, opts.Sniff)
	if err != nil {
		return nil, err
	}

	playable := lo.Filter(files, func(f *media.File, _ int) bool { return f.Playable() })
	switch len(playable) {
	case 0:
		return nil, session.ErrNoPlayableSource
	case 1:
		return playable[0], nil
	}

	var index int
	prompt := &survey.Select{
		Message: "Which source?",
		Options: lo.Map(playable, func(f *media.File, _ int) string {
			return fmt.Sprintf("%s (%s via %s)", f.Path, f.MimeType, f.BackendID)
		}),
	}
	if err := survey.AskOne(prompt, &index); err != nil {
		return nil, errors.Join(errors.New("no source chosen"), err)
	}

	return playable[index], nil
}
