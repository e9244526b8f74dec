package observerclient

import (
	"log"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/tienet-go/tienet/shared/proto"
)

// pollInput drains the SDL event queue. Each event is either handled
// locally (the observer-only bindings: fullscreen, mouse grab,
// screenshot, console) or queued as a proto.Event for upload on the
// next OP_FRAME.
func (c *client) pollInput() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch event.(type) {
		case *sdl.QuitEvent:
			c.queue(proto.Event{Type: proto.EventKeyDown, Keysym: proto.KeyQuit})

		case *sdl.KeyboardEvent:
			keyEvent := event.(*sdl.KeyboardEvent)
			c.handleKey(keyEvent)

		case *sdl.MouseMotionEvent:
			motionEvent := event.(*sdl.MouseMotionEvent)
			c.queue(proto.Event{
				Type:        proto.EventMouseMotion,
				MotionState: sdlButtonMask(motionEvent.State),
				MotionXRel:  int16(motionEvent.XRel),
				MotionYRel:  int16(motionEvent.YRel),
			})

		case *sdl.MouseButtonEvent:
			buttonEvent := event.(*sdl.MouseButtonEvent)
			typ := uint8(proto.EventMouseButtonUp)
			if buttonEvent.Type == sdl.MOUSEBUTTONDOWN {
				typ = proto.EventMouseButtonDown
			}
			c.queue(proto.Event{Type: typ, Button: sdlButtonBit(buttonEvent.Button)})

		case *sdl.MouseWheelEvent:
			wheelEvent := event.(*sdl.MouseWheelEvent)
			button := proto.ButtonWheelUp
			if wheelEvent.Y < 0 {
				button = proto.ButtonWheelDown
			}
			c.queue(proto.Event{Type: proto.EventMouseButtonDown, Button: button})
		}
	}
}

// handleKey either consumes a key locally or translates it into a
// keysym the master's event translator recognizes.
func (c *client) handleKey(keyEvent *sdl.KeyboardEvent) {
	down := keyEvent.Type == sdl.KEYDOWN

	switch keyEvent.Keysym.Sym {
	case sdl.K_f: // fullscreen toggle -- local only
		if down {
			full := c.window.GetFlags()&uint32(sdl.WINDOW_FULLSCREEN_DESKTOP) != 0
			c.window.SetFullscreen(togglFullscreen(full))
		}
		return
	case sdl.K_g: // mouse grab toggle -- local only
		if down {
			c.mouseGrabbed = !c.mouseGrabbed
			sdl.SetRelativeMouseMode(c.mouseGrabbed)
		}
		return
	case sdl.K_PRINTSCREEN: // screenshot -- local only
		if down {
			c.saveScreenshot()
		}
		return
	case sdl.K_BACKQUOTE: // console -- handled locally via OP_MESG, not queued as an Event
		if down {
			c.openConsole()
		}
		return
	}

	keysym, ok := sdlKeyToProto(keyEvent.Keysym.Sym)
	if !ok {
		return
	}
	typ := uint8(proto.EventKeyUp)
	if down {
		typ = proto.EventKeyDown
	}
	c.queue(proto.Event{Type: typ, Keysym: keysym})
}

func togglFullscreen(currentlyFull bool) uint32 {
	if currentlyFull {
		return 0
	}
	return uint32(sdl.WINDOW_FULLSCREEN_DESKTOP)
}

// sdlKeyToProto maps the SDL keycodes this observer forwards onto the
// keysym table in shared/proto.
func sdlKeyToProto(sym sdl.Keycode) (uint16, bool) {
	switch sym {
	case sdl.K_LSHIFT, sdl.K_RSHIFT:
		return proto.KeyShift, true
	case sdl.K_1:
		return proto.KeyRenderNormal, true
	case sdl.K_2:
		return proto.KeyRenderPhong, true
	case sdl.K_3:
		return proto.KeyRenderDepth, true
	case sdl.K_4:
		return proto.KeyRenderCut, true
	case sdl.K_5:
		return proto.KeyRenderSurface, true
	case sdl.K_KP_1:
		return proto.KeyNumpad1, true
	case sdl.K_KP_3:
		return proto.KeyNumpad3, true
	case sdl.K_KP_7:
		return proto.KeyNumpad7, true
	case sdl.K_KP_0:
		return proto.KeyNumpad0, true
	case sdl.K_SPACE:
		return proto.KeyShotline, true
	case sdl.K_c:
		return proto.KeySpallCone, true
	case sdl.K_ESCAPE:
		return proto.KeyQuit, true
	case sdl.K_END:
		return proto.KeyShutdown, true
	default:
		return 0, false
	}
}

// sdlButtonMask converts SDL's bitmask button state (SDL_BUTTON(x)
// encoding) into the wire's ButtonLeft/Middle/Right/WheelUp/WheelDown
// bit layout.
func sdlButtonMask(state uint32) uint8 {
	var m uint8
	if state&sdl.ButtonLMask() != 0 {
		m |= proto.ButtonLeft
	}
	if state&sdl.ButtonMMask() != 0 {
		m |= proto.ButtonMiddle
	}
	if state&sdl.ButtonRMask() != 0 {
		m |= proto.ButtonRight
	}
	return m
}

func sdlButtonBit(button uint8) uint8 {
	switch button {
	case sdl.BUTTON_LEFT:
		return proto.ButtonLeft
	case sdl.BUTTON_MIDDLE:
		return proto.ButtonMiddle
	case sdl.BUTTON_RIGHT:
		return proto.ButtonRight
	default:
		return 0
	}
}

// openConsole implements the backquote console binding. The SDL
// surface owns the window and there is no text-widget renderer here,
// so the binding only logs a hint.
func (c *client) openConsole() {
	log.Printf("observerclient: console not implemented in this client; use OP_MESG via a scripting front-end instead")
}
