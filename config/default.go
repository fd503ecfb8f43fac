package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/minplayer/minplayer/color"
	"github.com/minplayer/minplayer/constant"
	"github.com/minplayer/minplayer/key"
	"github.com/minplayer/minplayer/player"
	"github.com/minplayer/minplayer/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field is a configuration key with its default value.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored description of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable bound to the field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON includes the current value next to the default.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.TypeName(),
	})
}

// TypeName names the type of the default value.
func (f *Field) TypeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case map[string]string:
		return "map[string]string"
	default:
		return "unknown"
	}
}

// Default holds every known configuration field by key.
var Default = make(map[string]Field)

// EnvExposed lists the keys bound to environment variables.
var EnvExposed []string

func register(k string, v any, desc string) {
	if _, exists := Default[k]; exists {
		panic("duplicate config key: " + k)
	}
	Default[k] = Field{Key: k, Value: v, Description: desc}
	EnvExposed = append(EnvExposed, k)
}

func init() {
	register(key.PlayerID, "player", "Id the player's event bus is registered under")
	register(key.PlayerAutoplay, true, "Start playing once enough data is loaded")
	register(key.PlayerAutoload, true, "Start the native player right away instead of on the first play")
	register(key.PlayerLoop, false, "Restart from the beginning after the end")
	register(key.PlayerVolume, float64(player.DefaultVolume), "Initial volume. From 1 to 100, 0 uses the default")
	register(key.PlayerMuted, false, "Start with the sound off")
	register(key.PlayerPreload, "auto", "How much to buffer ahead.\nAvailable options are: auto, metadata, none")
	register(key.PlayerRangeMin, 0.0, "Start of the playable range in seconds")
	register(key.PlayerRangeMax, 0.0, "End of the playable range in seconds.\n0 plays up to the end")
	register(key.PlayerSWFPlayer, "", "Standalone Flash projector used for swf sources")
	register(key.PlayerAttributes, map[string]string{}, "Extra options passed to the native player")
	register(key.PlayerDebug, false, "Log every lifecycle transition")
	register(key.PlayerProgressInterval, player.DefaultProgressInterval.String(), "How often buffering progress is polled")
	register(key.PlayerTimeInterval, player.DefaultTimeInterval.String(), "How often the playback position is polled")

	register(key.Player, "", "Backend to use for every source, bypassing negotiation.\nType \""+constant.App+" backends list\" to show available backends")
	register(key.BackendsDisabled, []string{}, "Builtin backends that are never registered")
	register(key.BackendsScripts, true, "Load Lua backend scripts from the backends directory")
	register(key.SniffRemote, true, "Ask remote servers for the type of sources with no known extension")

	register(key.SessionResume, true, "Resume sources from the position saved in history")
	register(key.HistorySave, true, "Save the position on pause, end and exit")

	register(key.MPVPath, "mpv", "Path to the mpv executable")
	register(key.MPVArgs, []string{}, "Extra arguments passed to mpv")

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")

	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliMonitor, false, "Show the playback monitor by default")
	register(key.CliVersionCheck, true, "Check for new releases on start")

	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
