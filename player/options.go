package player

import (
	"fmt"
	"time"

	"github.com/minplayer/minplayer/key"
	"github.com/minplayer/minplayer/util"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	DefaultProgressInterval = time.Second
	DefaultTimeInterval     = 500 * time.Millisecond
	DefaultVolume           = 80
)

// Range limits playback to a sub-range of the native timeline, in seconds.
// A zero Max means up to the native end.
type Range struct {
	Min float64 `mapstructure:"min" json:"min" jsonschema:"minimum=0,description=Start of the playable range in seconds"`
	Max float64 `mapstructure:"max" json:"max" jsonschema:"minimum=0,description=End of the playable range in seconds (0 = native end)"`
}

// Options configure one player lifecycle.
type Options struct {
	ID               string            `mapstructure:"id" json:"id" jsonschema:"description=Player id the bus is registered under"`
	Autoplay         bool              `mapstructure:"autoplay" json:"autoplay" jsonschema:"description=Start playing once data is loaded"`
	Autoload         bool              `mapstructure:"autoload" json:"autoload" jsonschema:"description=Start the native player immediately instead of on first play"`
	Loop             bool              `mapstructure:"loop" json:"loop" jsonschema:"description=Restart from the beginning after the end"`
	Volume           float64           `mapstructure:"volume" json:"volume" jsonschema:"minimum=0,maximum=100,description=Initial volume (0 = default)"`
	Muted            bool              `mapstructure:"muted" json:"muted" jsonschema:"description=Start with the sound off"`
	Preload          string            `mapstructure:"preload" json:"preload" jsonschema:"enum=auto,enum=metadata,enum=none,description=How much to buffer ahead"`
	Range            Range             `mapstructure:"range" json:"range"`
	SWFPlayer        string            `mapstructure:"swfplayer" json:"swfplayer" jsonschema:"description=Flash projector used for swf sources"`
	Attributes       map[string]string `mapstructure:"attributes" json:"attributes" jsonschema:"description=Extra native player options"`
	Debug            bool              `mapstructure:"debug" json:"debug" jsonschema:"description=Trace lifecycle transitions"`
	ProgressInterval time.Duration     `mapstructure:"progress_interval" json:"progress_interval" jsonschema:"type=string,description=Buffer progress poll cadence"`
	TimeInterval     time.Duration     `mapstructure:"time_interval" json:"time_interval" jsonschema:"type=string,description=Time update poll cadence"`

	// Start is a position on the exposed timeline to begin from, set by resume.
	Start float64 `mapstructure:"-" json:"-"`
}

// OptionsFromConfig reads the player keys of the configuration. Keys are read one by one
// so a partial section in the config file still falls back to the defaults.
func OptionsFromConfig() (Options, error) {
	preload := viper.GetString(key.PlayerPreload)
	if preload != "" && !lo.Contains(preloads, preload) {
		return Options{}, fmt.Errorf("%s: unknown value %q", key.PlayerPreload, preload)
	}

	opts := Options{
		ID:       viper.GetString(key.PlayerID),
		Autoplay: viper.GetBool(key.PlayerAutoplay),
		Autoload: viper.GetBool(key.PlayerAutoload),
		Loop:     viper.GetBool(key.PlayerLoop),
		Volume:   viper.GetFloat64(key.PlayerVolume),
		Muted:    viper.GetBool(key.PlayerMuted),
		Preload:  preload,
		Range: Range{
			Min: viper.GetFloat64(key.PlayerRangeMin),
			Max: viper.GetFloat64(key.PlayerRangeMax),
		},
		SWFPlayer:        viper.GetString(key.PlayerSWFPlayer),
		Attributes:       viper.GetStringMapString(key.PlayerAttributes),
		Debug:            viper.GetBool(key.PlayerDebug),
		ProgressInterval: viper.GetDuration(key.PlayerProgressInterval),
		TimeInterval:     viper.GetDuration(key.PlayerTimeInterval),
	}
	return opts.normalized(), nil
}

var preloads = []string{"auto", "metadata", "none"}

func (o Options) normalized() Options {
	if o.ID == "" {
		o.ID = "player"
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.TimeInterval <= 0 {
		o.TimeInterval = DefaultTimeInterval
	}
	// zero is the unset value, Muted starts silent
	if o.Volume <= 0 {
		o.Volume = DefaultVolume
	}
	o.Volume = util.Clamp(o.Volume, 0, 100)
	if o.Range.Min < 0 {
		o.Range.Min = 0
	}
	if o.Range.Max > 0 && o.Range.Max <= o.Range.Min {
		o.Range.Max = 0
	}
	if o.Preload == "" {
		o.Preload = "auto"
	}
	return o
}
