package script

import (
	"sync"

	"github.com/minplayer/minplayer/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

type compiled struct {
	size  int64
	proto *lua.FunctionProto
}

var bytecodeCache sync.Map

// run executes the script at path in L. Compiled prototypes are reused while the file size
// is unchanged.
func run(L *lua.LState, path string) error {
	proto, err := compile(path)
	if err != nil {
		return err
	}

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}

func compile(path string) (*lua.FunctionProto, error) {
	fs := filesystem.API()

	stat, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}

	if cached, ok := bytecodeCache.Load(path); ok {
		if c := cached.(compiled); c.size == stat.Size() {
			return c.proto, nil
		}
	}

	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	chunk, err := parse.Parse(file, path)
	if err != nil {
		return nil, err
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, err
	}

	bytecodeCache.Store(path, compiled{size: stat.Size(), proto: proto})
	return proto, nil
}
