// Package noop provides a scripting.Bridge that rejects every
// evaluation, used when the master is started without a scripting
// backend configured.
package noop

import (
	"errors"

	"github.com/tienet-go/tienet/shared/scripting"
)

// Bridge always fails Eval.
type Bridge struct{}

var _ scripting.Bridge = Bridge{}

// Eval implements scripting.Bridge.
func (Bridge) Eval(code string) (string, error) {
	return "", errors.New("scripting: no backend configured")
}
