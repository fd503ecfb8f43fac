// Package open resolves the command that hands a file or URL to the system's default handler.
package open

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/minplayer/minplayer/constant"
)

// Command returns the handler invocation for goos, without the target.
func Command(goos string) ([]string, bool) {
	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return []string{rundll, "url.dll,FileProtocolHandler"}, true
	case constant.Darwin:
		// -W waits for the application to quit
		return []string{"open", "-W"}, true
	case constant.Linux:
		return []string{"xdg-open"}, true
	case constant.Android:
		return []string{"termux-open"}, true
	default:
		return nil, false
	}
}

// CommandWith returns the invocation that opens targets with app.
func CommandWith(goos, app string) ([]string, bool) {
	if app == "" {
		return Command(goos)
	}

	switch goos {
	case constant.Windows:
		return []string{"cmd", "/C", "start", "", app}, true
	case constant.Darwin:
		return []string{"open", "-W", "-a", app}, true
	case constant.Linux:
		return []string{app}, true
	case constant.Android:
		return []string{"termux-open", "--choose"}, true
	default:
		return nil, false
	}
}

// Escape prepares target for the handler of goos. cmd's start treats & as a separator.
func Escape(goos, target string) string {
	if goos == constant.Windows {
		return strings.ReplaceAll(target, "&", "^&")
	}
	return target
}
