package media

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	fragmentTime = regexp.MustCompile(`#t=([^&]+)`)
	humanTime    = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+(?:\.\d+)?)s)?$`)
)

// startOffset extracts the playback start embedded in a source path: a media fragment
// (#t=90), a query parameter (?t=1m30s, &start=90), or nothing.
func startOffset(p string) float64 {
	if m := fragmentTime.FindStringSubmatch(p); m != nil {
		// a fragment can carry a range, only the start matters
		return parseOffset(strings.SplitN(m[1], ",", 2)[0])
	}

	u, err := url.Parse(p)
	if err != nil {
		return 0
	}

	query := u.Query()
	for _, key := range []string{"t", "start"} {
		if v := query.Get(key); v != "" {
			return parseOffset(v)
		}
	}

	return 0
}

// parseOffset reads seconds from "90", "90.5", "1m30s", "1h2m", "1:30" or "1:02:30".
// Malformed input reads as 0.
func parseOffset(s string) float64 {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return max(n, 0)
	}

	if strings.Contains(s, ":") {
		var total float64
		for _, part := range strings.Split(s, ":") {
			n, err := strconv.ParseFloat(part, 64)
			if err != nil || n < 0 {
				return 0
			}
			total = total*60 + n
		}
		return total
	}

	m := humanTime.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	var total float64
	for i, mult := range []float64{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, _ := strconv.ParseFloat(m[i+1], 64)
		total += n * mult
	}
	return total
}
