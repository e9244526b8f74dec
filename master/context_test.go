package master

import (
	"testing"

	"github.com/tienet-go/tienet/shared/scene"
	"github.com/tienet-go/tienet/shared/scripting/noop"
)

// newTestContext builds a minimal Context over a small scene for unit
// tests that exercise the dispatcher, aggregator, event translator,
// and observer hub without standing up real TCP listeners.
func newTestContext(t *testing.T) *Context {
	t.Helper()
	sc := scene.NewScene()
	sc.Env.ImageW, sc.Env.ImageH, sc.Env.ImageHalfSz = 64, 64, 32
	return NewContext(Config{Profile: scene.ProfileInteractive}, sc, nil, noop.Bridge{})
}
