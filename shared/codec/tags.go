// Package codec packs a scene.Scene into the sectioned binary format
// the master pushes to every slave, and unpacks it back. Values are
// always written big-endian via shared/wire; a peer whose native order
// differs flips on read, decided once at handshake time.
package codec

// envTag distinguishes the ENV section's two sub-records.
type envTag uint16

const (
	envTagRM        envTag = 0 // render method, plus a mode-dependent tail
	envTagImageSize envTag = 1 // image width/height and half-size flag
)

// Version is written as the first two bytes of every packed scene
// (the VERSION section), so a slave with a mismatched codec fails
// immediately instead of misreading garbage.
const Version uint16 = 1
