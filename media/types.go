// Package media normalizes candidate media sources into descriptors the negotiator can rank.
package media

import (
	"path"
	"strings"
)

// Kind is the broad media category of a source.
type Kind string

const (
	Video   Kind = "video"
	Audio   Kind = "audio"
	Unknown Kind = "unknown"
)

// Hosted-video pseudo mimetypes, derived from the source URL rather than an extension.
const (
	MimeYouTube     = "video/youtube"
	MimeVimeo       = "video/vimeo"
	MimeDailymotion = "video/dailymotion"
)

// Mimetypes with special treatment in kind fallback and weighting.
const (
	MimeOctetStream = "application/octet-stream"
	MimeFlash       = "application/x-shockwave-flash"
	MimeHLS         = "application/vnd.apple.mpegurl"
	MimeHLSLegacy   = "application/x-mpegurl"
	MimeDASH        = "application/dash+xml"
)

// extensions maps a lower-case file extension (without dot) to its mimetype.
var extensions = map[string]string{
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"f4v":  "video/mp4",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"ogv":  "video/ogg",
	"ogg":  "video/ogg",
	"oga":  "audio/ogg",
	"opus": "audio/ogg",
	"mpg":  "video/mpeg",
	"mpeg": "video/mpeg",
	"mkv":  "video/x-matroska",
	"avi":  "video/x-msvideo",
	"wmv":  "video/x-ms-wmv",
	"3gp":  "video/3gpp",
	"flv":  "video/x-flv",
	"swf":  MimeFlash,
	"mp3":  "audio/mpeg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"wav":  "audio/wav",
	"flac": "audio/flac",
	"m3u8": MimeHLS,
	"mpd":  MimeDASH,
	"bin":  MimeOctetStream,
}

// structural lists mimetypes treated as video when their category cannot be read off the type.
var structural = map[string]bool{
	MimeOctetStream: true,
	MimeFlash:       true,
	MimeHLS:         true,
	MimeHLSLegacy:   true,
	MimeDASH:        true,
}

// MimeTypeOf returns the mimetype registered for the extension of p, or "".
func MimeTypeOf(p string) string {
	return extensions[extensionOf(p)]
}

// KindOf derives the media kind from a mimetype.
func KindOf(mimetype string) Kind {
	mimetype = strings.ToLower(mimetype)
	switch {
	case strings.HasPrefix(mimetype, "video/"):
		return Video
	case strings.HasPrefix(mimetype, "audio/"):
		return Audio
	case structural[mimetype]:
		return Video
	default:
		return Unknown
	}
}

// Weight ranks a mimetype by how well it streams: adaptive and container formats first,
// then broadly supported formats, then legacy ones.
func Weight(mimetype string) int {
	switch strings.ToLower(mimetype) {
	case "video/webm", "video/x-webm", "audio/webm", MimeOctetStream, MimeHLS, MimeHLSLegacy, MimeDASH:
		return 10
	case "video/mp4", "audio/mp4", "video/mpeg", "audio/mpeg":
		return 9
	case "video/ogg", "audio/ogg", "video/quicktime":
		return 8
	default:
		return 5
	}
}

func extensionOf(p string) string {
	// strip query and fragment of URLs before looking at the extension
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}
