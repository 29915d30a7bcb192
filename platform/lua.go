package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectTable creates a read-only platform table and sets it as the global
// "platform" in the Lua state. Custom resolve hooks use it to pick the
// right artifact for the host without re-implementing detection.
func InjectTable(L *lua.LState, info *Info) {
	t := L.NewTable()

	L.SetField(t, "os", lua.LString(info.OS.String()))
	L.SetField(t, "arch", lua.LString(info.Arch.String()))
	L.SetField(t, "arch_raw", lua.LString(info.ArchRaw))

	L.SetField(t, "is_linux", lua.LBool(info.IsLinux()))
	L.SetField(t, "is_macos", lua.LBool(info.IsMacOS()))
	L.SetField(t, "is_windows", lua.LBool(info.IsWindows()))

	L.SetField(t, "is_x86", lua.LBool(info.Arch == X86))
	L.SetField(t, "is_x64", lua.LBool(info.Arch == X64))
	L.SetField(t, "is_arm64", lua.LBool(info.Arch == Arm64))

	L.SetField(t, "os_tokens", tokenTable(L, info.OS.Tokens()))
	L.SetField(t, "arch_tokens", tokenTable(L, info.Arch.Tokens()))

	if info.IsLinux() && info.Distro != "" {
		distro := L.NewTable()
		L.SetField(distro, "id", lua.LString(info.Distro))
		L.SetField(distro, "family", lua.LString(info.DistroFamily))
		L.SetField(distro, "version", lua.LString(info.DistroVersion))
		L.SetField(t, "distro", distro)
	} else {
		L.SetField(t, "distro", lua.LNil)
	}

	L.SetGlobal("platform", makeReadOnly(L, t))
}

func tokenTable(L *lua.LState, tokens []string) *lua.LTable {
	t := L.NewTable()
	for _, tok := range tokens {
		t.Append(lua.LString(tok))
	}
	return t
}

// makeReadOnly wraps a table in a proxy whose metatable redirects reads to
// the original and rejects every write.
func makeReadOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	L.SetField(mt, "__index", table)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only and cannot be modified")
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
