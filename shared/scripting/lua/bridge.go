// Package lua implements scripting.Bridge with an embedded Lua
// interpreter (github.com/yuin/gopher-lua), the console backend the
// master wires to OP_MESG by default.
package lua

import (
	"fmt"
	"strings"

	luaengine "github.com/yuin/gopher-lua"

	"github.com/tienet-go/tienet/shared/scripting"
)

// Bridge evaluates console fragments in a fresh Lua state per call,
// with camera/render-mode globals bound to the live Controller.
type Bridge struct {
	ctrl scripting.Controller
}

var _ scripting.Bridge = (*Bridge)(nil)

// New returns a Bridge that mutates ctrl through the registered globals.
func New(ctrl scripting.Controller) *Bridge {
	return &Bridge{ctrl: ctrl}
}

// Eval runs code in a fresh *lua.LState (the console has no
// cross-call state of its own; the master's Controller is the only
// persistent state a script can touch) and returns whatever was
// printed via the registered `result` builtin, or the empty string.
func (b *Bridge) Eval(code string) (string, error) {
	L := luaengine.NewState()
	defer L.Close()

	var out strings.Builder
	b.registerGlobals(L, &out)

	if err := L.DoString(code); err != nil {
		return "", fmt.Errorf("scripting: %w", err)
	}
	return out.String(), nil
}

func (b *Bridge) registerGlobals(L *luaengine.LState, out *strings.Builder) {
	ctrl := b.ctrl

	L.SetGlobal("print", L.NewFunction(func(L *luaengine.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		out.WriteString(strings.Join(parts, "\t"))
		out.WriteByte('\n')
		return 0
	}))

	L.SetGlobal("get_azimuth", L.NewFunction(func(L *luaengine.LState) int {
		L.Push(luaengine.LNumber(ctrl.CameraAzimuth()))
		return 1
	}))
	L.SetGlobal("set_azimuth", L.NewFunction(func(L *luaengine.LState) int {
		ctrl.SetCameraAzimuth(float64(L.CheckNumber(1)))
		return 0
	}))
	L.SetGlobal("get_elevation", L.NewFunction(func(L *luaengine.LState) int {
		L.Push(luaengine.LNumber(ctrl.CameraElevation()))
		return 1
	}))
	L.SetGlobal("set_elevation", L.NewFunction(func(L *luaengine.LState) int {
		ctrl.SetCameraElevation(float64(L.CheckNumber(1)))
		return 0
	}))
	L.SetGlobal("get_position", L.NewFunction(func(L *luaengine.LState) int {
		x, y, z := ctrl.CameraPos()
		L.Push(luaengine.LNumber(x))
		L.Push(luaengine.LNumber(y))
		L.Push(luaengine.LNumber(z))
		return 3
	}))
	L.SetGlobal("set_position", L.NewFunction(func(L *luaengine.LState) int {
		ctrl.SetCameraPos(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
		return 0
	}))
	L.SetGlobal("get_render_mode", L.NewFunction(func(L *luaengine.LState) int {
		L.Push(luaengine.LNumber(ctrl.RenderMode()))
		return 1
	}))
	L.SetGlobal("set_render_mode", L.NewFunction(func(L *luaengine.LState) int {
		ctrl.SetRenderMode(uint32(L.CheckNumber(1)))
		return 0
	}))
	// set_resolution rewrites the image dimensions and flushes both
	// frame slots to black.
	L.SetGlobal("set_resolution", L.NewFunction(func(L *luaengine.LState) int {
		ctrl.SetResolution(L.CheckInt(1), L.CheckInt(2))
		return 0
	}))
}
