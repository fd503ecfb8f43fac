// Package script loads user-defined player backends written in Lua.
//
// A script declares the globals id, name, command, and optionally start_flag, volume_flag
// and volume_scale, and defines the functions priority() and can_play(file). The player
// it describes is started once per file, like the bundled process backends.
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minplayer/minplayer/backend"
	"github.com/minplayer/minplayer/constant"
	"github.com/minplayer/minplayer/filesystem"
	"github.com/minplayer/minplayer/log"
	"github.com/minplayer/minplayer/media"
	"github.com/minplayer/minplayer/player"
	"github.com/minplayer/minplayer/util"
	libs "github.com/metafates/mangal-lua-libs"
	"github.com/samber/lo"
	lua "github.com/yuin/gopher-lua"
)

// Extension of backend scripts.
const Extension = ".lua"

// Script is one loaded backend script. Its Lua state is not safe for concurrent use,
// every call into it holds mu.
type Script struct {
	ID          string
	Name        string
	Description string
	Path        string
	Command     []string
	StartFlag   string
	VolumeFlag  string
	VolumeScale float64

	priority int

	mu    sync.Mutex
	state *lua.LState
}

// Load runs the script at path and validates what it declares.
func Load(path string) (*Script, error) {
	state := lua.NewState()
	libs.Preload(state)

	if err := run(state, path); err != nil {
		state.Close()
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	s := &Script{
		ID:          lo.CoalesceOrEmpty(global(state, "id"), util.FileStem(path)),
		Description: global(state, "description"),
		Path:        path,
		Command:     command(state.GetGlobal("command")),
		StartFlag:   global(state, "start_flag"),
		VolumeFlag:  global(state, "volume_flag"),
		VolumeScale: 100,
		state:       state,
	}
	s.Name = lo.CoalesceOrEmpty(global(state, "name"), s.ID)

	if scale, ok := state.GetGlobal("volume_scale").(lua.LNumber); ok {
		s.VolumeScale = float64(scale)
	}

	if err := s.validate(); err != nil {
		state.Close()
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	// priority depends on the backend alone, asking once is enough
	prio, err := s.call(constant.ScriptPriorityFn, lua.LTNumber)
	if err != nil {
		state.Close()
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	s.priority = int(prio.(lua.LNumber))

	return s, nil
}

func (s *Script) validate() error {
	if len(s.Command) == 0 {
		return fmt.Errorf("command is required")
	}
	for _, fn := range []string{constant.ScriptPriorityFn, constant.ScriptCanPlayFn} {
		if s.state.GetGlobal(fn).Type() != lua.LTFunction {
			return fmt.Errorf("function %s is required but not defined", fn)
		}
	}
	return nil
}

// Priority returns the value of the script's priority().
func (s *Script) Priority() int {
	return s.priority
}

// CanPlay calls the script's can_play(file). Script errors count as false.
func (s *Script) CanPlay(f *media.File) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return false
	}

	ret, err := s.call(constant.ScriptCanPlayFn, lua.LTBool, fileToTable(s.state, f))
	if err != nil {
		log.Warnf("backend %s: %v", s.ID, err)
		return false
	}
	return bool(ret.(lua.LBool))
}

// Driver creates a process driver for the script's command.
func (s *Script) Driver() *player.Process {
	p := player.NewProcess(s.ID, s.Command...)
	p.StartFlag = s.StartFlag
	p.VolumeFlag = s.VolumeFlag
	p.VolumeScale = s.VolumeScale
	return p
}

// Descriptor registers the script as a backend.
func (s *Script) Descriptor() *backend.Descriptor {
	return &backend.Descriptor{
		ID:          s.ID,
		Name:        s.Name,
		Description: lo.CoalesceOrEmpty(s.Description, "user script "+filepath.Base(s.Path)),
		Priority:    s.Priority,
		CanPlay:     s.CanPlay,
		New: func() player.Driver {
			return s.Driver()
		},
	}
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil {
		s.state.Close()
		s.state = nil
	}
}

// call executes a global Lua function. The caller holds mu or owns the state exclusively.
func (s *Script) call(fn string, retType lua.LValueType, args ...lua.LValue) (lua.LValue, error) {
	luaFn := s.state.GetGlobal(fn)
	if luaFn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("function %s is not defined", fn)
	}

	err := s.state.CallByParam(lua.P{
		Fn:      luaFn,
		NRet:    1,
		Protect: true,
	}, args...)
	if err != nil {
		return nil, err
	}

	retval := s.state.Get(-1)
	s.state.Pop(1)

	if retval.Type() != retType {
		return nil, fmt.Errorf("%s returned %s, expected %s", fn, retval.Type(), retType)
	}

	return retval, nil
}

// LoadAll loads every script in dir. Broken scripts are reported and skipped.
func LoadAll(dir string) ([]*Script, []error) {
	entries, err := filesystem.API().ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []error{err}
	}

	var (
		scripts []*Script
		errs    []error
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}

		s, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Warn(err)
			errs = append(errs, err)
			continue
		}
		scripts = append(scripts, s)
	}

	return scripts, errs
}

func global(L *lua.LState, name string) string {
	if v, ok := L.GetGlobal(name).(lua.LString); ok {
		return strings.TrimSpace(string(v))
	}
	return ""
}

// command accepts a list of strings or a single string split on whitespace.
func command(v lua.LValue) []string {
	switch v := v.(type) {
	case lua.LString:
		return strings.Fields(string(v))
	case *lua.LTable:
		var list []string
		v.ForEach(func(_, item lua.LValue) {
			if s, ok := item.(lua.LString); ok && s != "" {
				list = append(list, string(s))
			}
		})
		return list
	}
	return nil
}

func fileToTable(L *lua.LState, f *media.File) *lua.LTable {
	table := L.NewTable()
	table.RawSetString("path", lua.LString(f.Path))
	table.RawSetString("mimetype", lua.LString(f.MimeType))
	table.RawSetString("type", lua.LString(f.Kind))
	table.RawSetString("extension", lua.LString(f.Extension()))
	table.RawSetString("remote", lua.LBool(f.Remote()))
	if f.Codec != "" {
		table.RawSetString("codecs", lua.LString(f.Codec))
	}
	if f.StreamID != "" {
		table.RawSetString("stream", lua.LString(f.StreamID))
	}
	return table
}
