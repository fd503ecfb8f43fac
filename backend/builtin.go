package backend

import (
	"path/filepath"
	"runtime"

	"github.com/minplayer/minplayer/constant"
	"github.com/minplayer/minplayer/key"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/player"
	"github.com/minplayer/minplayer/probe"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Environment is what negotiation may know about the runtime. It is captured once,
// so CanPlay never probes anything itself.
type Environment struct {
	GOOS      string
	Binaries  probe.Snapshot
	MPVPath   string
	MPVArgs   []string
	SWFPlayer string
	Disabled  []string
}

// ytdl are the extractors mpv can use for hosted video.
var ytdl = []string{"yt-dlp", "youtube-dl"}

// EnvironmentFromConfig probes the binaries the builtin backends need and reads their settings.
func EnvironmentFromConfig() Environment {
	env := Environment{
		GOOS:      runtime.GOOS,
		MPVPath:   lo.CoalesceOrEmpty(viper.GetString(key.MPVPath), "mpv"),
		MPVArgs:   viper.GetStringSlice(key.MPVArgs),
		SWFPlayer: viper.GetString(key.PlayerSWFPlayer),
		Disabled:  viper.GetStringSlice(key.BackendsDisabled),
	}

	names := append([]string{env.MPVPath, "vlc", "celluloid"}, ytdl...)
	if env.SWFPlayer != "" {
		names = append(names, env.SWFPlayer)
	}
	env.Binaries = probe.Take(names...)

	return env
}

// Has reports whether the binary name was found.
func (e Environment) Has(name string) bool {
	return e.Binaries.Has(name)
}

func (e Environment) disabled(id string) bool {
	return lo.Contains(e.Disabled, id)
}

// Builtins returns the bundled backends that are not disabled, in registration order.
func Builtins(env Environment) []*Descriptor {
	all := []*Descriptor{
		mpvDescriptor(env),
		hostedDescriptor(env, "youtube", "YouTube", media.MimeYouTube),
		hostedDescriptor(env, "vimeo", "Vimeo", media.MimeVimeo),
		hostedDescriptor(env, "dailymotion", "Dailymotion", media.MimeDailymotion),
		processDescriptor(env, "vlc", "VLC", "VLC media player, started per file", player.NewVLC),
		processDescriptor(env, "celluloid", "Celluloid", "GTK frontend for mpv, started per file", player.NewCelluloid),
		iinaDescriptor(env),
		flashDescriptor(env),
		systemDescriptor(env),
	}

	return lo.Reject(all, func(d *Descriptor, _ int) bool {
		return env.disabled(d.ID)
	})
}

func static(priority int) func() int {
	return func() int { return priority }
}

// native reports whether f is a regular audio or video file, as opposed to a hosted page
// or a Flash movie.
func native(f *media.File) bool {
	if f.Kind == media.Unknown || f.MimeType == media.MimeFlash {
		return false
	}
	return !lo.Contains([]string{media.MimeYouTube, media.MimeVimeo, media.MimeDailymotion}, f.MimeType)
}

func mpvDescriptor(env Environment) *Descriptor {
	return &Descriptor{
		ID:          "mpv",
		Name:        "mpv",
		Description: "mpv driven over its JSON IPC socket, with full control and progress reporting",
		Priority:    static(10),
		CanPlay: func(f *media.File) bool {
			return env.Has(env.MPVPath) && native(f)
		},
		New: func() player.Driver {
			return player.NewMPV(env.MPVPath, env.MPVArgs...)
		},
	}
}

// hostedDescriptor plays a video hosting site through mpv and a youtube-dl compatible extractor.
func hostedDescriptor(env Environment, id, name, mimetype string) *Descriptor {
	return &Descriptor{
		ID:          id,
		Name:        name,
		Description: name + " pages through mpv and yt-dlp",
		Priority:    static(10),
		CanPlay: func(f *media.File) bool {
			return f.MimeType == mimetype && env.Has(env.MPVPath) && env.Binaries.HasAny(ytdl...)
		},
		New: func() player.Driver {
			return player.NewMPV(env.MPVPath, append([]string{"--ytdl=yes"}, env.MPVArgs...)...)
		},
	}
}

func processDescriptor(env Environment, id, name, description string, newProcess func() *player.Process) *Descriptor {
	return &Descriptor{
		ID:          id,
		Name:        name,
		Description: description,
		Priority:    static(5),
		CanPlay: func(f *media.File) bool {
			return env.Has(id) && native(f)
		},
		New: func() player.Driver {
			return newProcess()
		},
	}
}

func iinaDescriptor(env Environment) *Descriptor {
	return &Descriptor{
		ID:          "iina",
		Name:        "IINA",
		Description: "IINA on macOS, started per file",
		Priority:    static(5),
		CanPlay: func(f *media.File) bool {
			return env.GOOS == constant.Darwin && native(f)
		},
		New: func() player.Driver {
			return player.NewIINA()
		},
	}
}

// flashDescriptor plays Flash movies with a standalone projector. Its priority is the
// lowest positive one: it is only chosen when nothing else can play the source.
func flashDescriptor(env Environment) *Descriptor {
	return &Descriptor{
		ID:          "flash",
		Name:        "Flash",
		Description: "Flash movies in the configured standalone projector (" + key.PlayerSWFPlayer + ")",
		Priority:    static(1),
		CanPlay: func(f *media.File) bool {
			if env.SWFPlayer == "" || !env.Has(env.SWFPlayer) {
				return false
			}
			return f.MimeType == media.MimeFlash || filepath.Ext(f.Path) == ".swf"
		},
		New: func() player.Driver {
			return player.NewFlash(env.SWFPlayer)
		},
	}
}

// systemDescriptor hands any recognized source to the platform's default handler. It has
// no priority, so it is only used when forced.
func systemDescriptor(env Environment) *Descriptor {
	return &Descriptor{
		ID:          "system",
		Name:        "System default",
		Description: "The default application for the source, without control",
		Priority:    static(0),
		CanPlay: func(f *media.File) bool {
			return f.Kind != media.Unknown
		},
		New: func() player.Driver {
			p, err := player.NewSystem(env.GOOS)
			if err != nil {
				// Construct reports the missing command
				return player.NewProcess("system")
			}
			return p
		},
	}
}
