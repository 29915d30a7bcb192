package release

import (
	"context"
	"fmt"
	"net/http"

	lua "github.com/yuin/gopher-lua"

	"github.com/zaroxh/gocef/platform"
)

// LuaTransform compiles a user-supplied Lua script into a Transform. The
// script runs in a sandboxed VM with the read-only global "platform" table
// and the global string "manifest_body" holding the endpoint response; its
// return value is the artifact URL.
//
// This exists for release sources whose manifest layout the built-in
// resolver cannot follow: the operator describes the extraction in a few
// lines of Lua instead of recompiling the host.
func LuaTransform(script string, info *platform.Info) Transform {
	return func(ctx context.Context, client *http.Client, body []byte) (string, error) {
		L := newSandboxedVM()
		defer L.Close()

		platform.InjectTable(L, info)
		L.SetGlobal("manifest_body", lua.LString(body))

		if err := L.DoString(script); err != nil {
			return "", fmt.Errorf("resolve script: %w", err)
		}

		ret := L.Get(-1)
		s, ok := ret.(lua.LString)
		if !ok || string(s) == "" {
			return "", fmt.Errorf("resolve script must return a non-empty URL string, got %s", ret.Type())
		}
		return string(s), nil
	}
}

// newSandboxedVM creates a Lua VM with every escape hatch removed. Resolve
// scripts are declarative: they may inspect strings and tables, nothing
// else.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()

	// No process, filesystem, or module access.
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("debug", lua.LNil)

	// string, table, and math stay available.
	return L
}
