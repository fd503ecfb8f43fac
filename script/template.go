package script

import (
	"io"
	"strings"
	"text/template"

	"github.com/minplayer/minplayer/constant"
	"github.com/minplayer/minplayer/util"
)

var scaffold = template.Must(template.New("backend").Funcs(template.FuncMap{
	"repeat": strings.Repeat,
	"plus":   func(a, b int) int { return a + b },
	"max":    util.Max[int],
}).Parse(constant.ScriptTemplate))

// Generate writes a new backend script for the player started by command.
func Generate(w io.Writer, id, command, author string) error {
	return scaffold.Execute(w, struct {
		ID         string
		Command    string
		Author     string
		PriorityFn string
		CanPlayFn  string
	}{
		ID:         id,
		Command:    command,
		Author:     author,
		PriorityFn: constant.ScriptPriorityFn,
		CanPlayFn:  constant.ScriptCanPlayFn,
	})
}
