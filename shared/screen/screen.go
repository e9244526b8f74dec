// Package screen provides the observer client's SDL2 window/surface
// setup. Only the observer owns a window; the master and slaves are
// headless.
package screen

import "github.com/veandco/go-sdl2/sdl"

// FPS and MsPerFrame bound how often an observer redraws its window
// between frame downloads.
const (
	FPS        uint32 = 30
	MsPerFrame uint32 = 1000 / FPS
)

// StartScreen initializes SDL2 and opens a window of the given size,
// switching the mouse into relative mode so drag deltas translate
// directly into camera deltas.
func StartScreen(name string, width, height int) (*sdl.Window, *sdl.Surface, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, nil, err
	}

	window, err := sdl.CreateWindow(name, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, nil, err
	}

	surface, err := window.GetSurface()
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, nil, err
	}

	if sdl.SetRelativeMouseMode(true) != 0 {
		window.Destroy()
		sdl.Quit()
		return nil, nil, sdl.GetError()
	}

	return window, surface, nil
}

// StopScreen destroys window and shuts SDL2 down.
func StopScreen(window *sdl.Window) {
	window.Destroy()
	sdl.Quit()
}
