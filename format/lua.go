package format

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// luaTimeout bounds script execution. The context is checked at
// instruction granularity, so a busy loop is interrupted but a single
// long native call is not.
const luaTimeout = 2 * time.Second

// parseLua evaluates a Lua script and collects its scalar results. A
// script that returns a table yields that table's string-keyed scalar
// entries. Otherwise the globals the script introduced or changed are
// used. Each parse runs in a fresh sandboxed state with no io, os or
// module loading.
func parseLua(data []byte) (map[string]string, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openScriptLibraries(L)

	ctx, cancel := context.WithTimeout(context.Background(), luaTimeout)
	defer cancel()
	L.SetContext(ctx)

	baseline := globalScalars(L)

	if err := runScript(L, string(data)); err != nil {
		return nil, &ParseError{Format: Lua, Message: err.Error(), Err: err}
	}

	result := make(map[string]string)

	if L.GetTop() > 0 {
		if tbl, ok := L.Get(-1).(*lua.LTable); ok {
			tbl.ForEach(func(k, v lua.LValue) {
				key, ok := k.(lua.LString)
				if !ok {
					return
				}
				if s, ok := scalarText(v); ok {
					result[string(key)] = s
				}
			})
		}
	}

	if len(result) == 0 {
		for key, val := range globalScalars(L) {
			if prev, ok := baseline[key]; ok && prev == val {
				continue
			}
			result[key] = val
		}
	}

	if len(result) == 0 {
		return nil, &ParseError{Format: Lua, Message: "script produced no values"}
	}
	return result, nil
}

// openScriptLibraries opens only safe Lua standard libraries.
// io, os and debug stay closed.
func openScriptLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// SkipOpenLibs still loads base and package, which expose code
	// loading; remove it.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}
}

// runScript executes code with panic recovery. gopher-lua panics on
// some malformed input rather than returning an error.
func runScript(L *lua.LState, code string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return L.DoString(code)
}

// globalScalars snapshots the scalar globals of a state.
func globalScalars(L *lua.LState) map[string]string {
	snap := make(map[string]string)
	L.G.Global.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		if s, ok := scalarText(v); ok {
			snap[string(key)] = s
		}
	})
	return snap
}

// scalarText converts a Lua scalar to its canonical text. Tables,
// functions and nil report false.
func scalarText(v lua.LValue) (string, bool) {
	switch val := v.(type) {
	case lua.LString:
		return string(val), true
	case lua.LNumber:
		return canonicalNumber(float64(val)), true
	case lua.LBool:
		if val {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}
