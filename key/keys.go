// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Player Options - these keys map one-to-one onto the recognized player configuration surface.
const (
	PlayerID               = "player.id"
	PlayerAutoplay         = "player.autoplay"
	PlayerAutoload         = "player.autoload"
	PlayerLoop             = "player.loop"
	PlayerVolume           = "player.volume"
	PlayerMuted            = "player.muted"
	PlayerPreload          = "player.preload"
	PlayerRangeMin         = "player.range.min"
	PlayerRangeMax         = "player.range.max"
	PlayerSWFPlayer        = "player.swfplayer"
	PlayerAttributes       = "player.attributes"
	PlayerDebug            = "player.debug"
	PlayerProgressInterval = "player.progress_interval"
	PlayerTimeInterval     = "player.time_interval"
)

// Negotiation - these keys influence how a backend is selected for a media source.
const (
	Player           = "player.default"
	BackendsDisabled = "backends.disabled"
	BackendsScripts  = "backends.scripts"
	SniffRemote      = "negotiate.sniff_remote"
)

// Playback Session - these keys govern the controller wrapped around the negotiated backend.
const (
	SessionResume = "session.resume"
	HistorySave   = "history.save"
)

// MPV Integration - these keys configure the JSON-IPC driven mpv backend.
const (
	MPVPath = "mpv.path"
	MPVArgs = "mpv.args"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliMonitor      = "cli.monitor"
	CliVersionCheck = "cli.version_check"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)
