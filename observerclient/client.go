// Package observerclient is the observer-side half of the
// OP_INIT/OP_FRAME/OP_MESG protocol, driving an SDL2 window. The SDL
// event pump feeds a proto.Event upload queue instead of mutating a
// local camera directly, since the camera lives on the master.
package observerclient

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/screen"
	"github.com/tienet-go/tienet/shared/wire"
)

// Config is the observer client's connection/display configuration.
type Config struct {
	MasterAddr string
	Compress   bool // must match the master's Config.Compress
}

// maxQueuedEvents bounds the per-frame upload queue; the wire's u8
// event count could carry more, but nothing useful survives a batch
// this stale.
const maxQueuedEvents = 64

// Run dials the master, performs the OP_INIT handshake, opens a
// window sized to the reported resolution, and drives the
// OP_FRAME/event-upload/frame-download loop until the master sends
// OP_QUIT, the window is closed, or the user quits locally.
func Run(cfg Config) error {
	conn, err := net.Dial("tcp", cfg.MasterAddr)
	if err != nil {
		return fmt.Errorf("observerclient: dial %s: %w", cfg.MasterAddr, err)
	}
	defer conn.Close()

	w, h, err := doInit(conn)
	if err != nil {
		return fmt.Errorf("observerclient: init handshake: %w", err)
	}
	log.Printf("observerclient: connected to %s (%dx%d)", cfg.MasterAddr, w, h)

	window, surface, err := screen.StartScreen("tienet observer", w, h)
	if err != nil {
		return fmt.Errorf("observerclient: start screen: %w", err)
	}
	defer screen.StopScreen(window)

	c := &client{conn: conn, cfg: cfg, window: window, surface: surface, w: w, h: h}
	return c.loop()
}

// doInit sends OP_INIT and parses the master's reply. This implementation's
// master always writes big-endian via shared/wire, so the probe always reads
// back as 1 here; the comparison is kept so the client would still detect
// (and could react to) a foreign, non-Go master that wrote its probe value
// in a different byte order.
func doInit(conn net.Conn) (w, h int, err error) {
	if err := wire.SendAll(conn, []byte{proto.OpInit}); err != nil {
		return 0, 0, err
	}
	buf := make([]byte, 2+4+4)
	if err := wire.RecvAll(conn, buf); err != nil {
		return 0, 0, err
	}
	r := wire.NewReader(buf, false)
	probe, err := r.ReadU16()
	if err != nil {
		return 0, 0, err
	}
	if probe != 1 {
		log.Printf("observerclient: endian probe read as %d, not 1 -- byte order mismatch not supported by this client", probe)
	}
	ww, err := r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	hh, err := r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	return int(ww), int(hh), nil
}

type client struct {
	conn    net.Conn
	cfg     Config
	window  *sdl.Window
	surface *sdl.Surface
	w, h    int

	mouseGrabbed bool
	pending      []proto.Event
	lastFrame    []byte // most recently downloaded RGB frame, for screenshots
	shotCount    int
}

// loop runs one OP_FRAME round trip per iteration: poll local input,
// upload queued events, block for the next frame, draw it with its
// overlay, repeat.
func (c *client) loop() error {
	frameNum := 0
	start := time.Now()

	for {
		c.pollInput()

		if err := wire.SendAll(c.conn, []byte{proto.OpFrame}); err != nil {
			return fmt.Errorf("observerclient: send OP_FRAME: %w", err)
		}

		quit, err := c.recvFlow()
		if err != nil {
			return err
		}
		if quit {
			log.Printf("observerclient: master closed the session")
			return nil
		}

		if err := c.sendEvents(); err != nil {
			return fmt.Errorf("observerclient: send events: %w", err)
		}

		pix, err := c.recvFrame()
		if err != nil {
			return fmt.Errorf("observerclient: recv frame: %w", err)
		}
		overlay, err := c.recvOverlay()
		if err != nil {
			return fmt.Errorf("observerclient: recv overlay: %w", err)
		}

		c.lastFrame = pix
		c.blit(pix)

		frameNum++
		if frameNum%7 == 0 {
			elapsed := time.Since(start).Seconds()
			fps := 0.0
			if elapsed > 0 {
				fps = float64(frameNum) / elapsed
			}
			log.Printf("observerclient: fps=%.1f pos=%.2f,%.2f,%.2f az/el=%.1f/%.1f nodes=%d controller=%v scale=%.3f",
				fps, overlay.CameraPosition[0], overlay.CameraPosition[1], overlay.CameraPosition[2],
				overlay.CameraAzimuth, overlay.CameraElevation, overlay.ComputeNodes, overlay.Controller, overlay.Scale)
			frameNum = 0
			start = time.Now()
		}
	}
}

// recvFlow reads flow bytes until the master says continue (OpNop,
// quit=false) or close (OpQuit, quit=true). Any OpShotUpdate bytes that
// precede the OpNop each carry a probe result, which is displayed on
// the HUD's stand-in (the log) as it arrives.
func (c *client) recvFlow() (quit bool, err error) {
	for {
		flowBuf := make([]byte, 1)
		if err := wire.RecvAll(c.conn, flowBuf); err != nil {
			return false, fmt.Errorf("observerclient: recv flow byte: %w", err)
		}
		switch flowBuf[0] {
		case proto.OpNop:
			return false, nil
		case proto.OpQuit:
			return true, nil
		case proto.OpShotUpdate:
			pr, err := proto.RecvProbeResultPayload(c.conn)
			if err != nil {
				return false, fmt.Errorf("observerclient: recv shot update: %w", err)
			}
			log.Printf("observerclient: shot hit=%v in=%.2f,%.2f,%.2f out=%.2f,%.2f,%.2f meshes=%v",
				pr.Hit, pr.InHit[0], pr.InHit[1], pr.InHit[2], pr.OutHit[0], pr.OutHit[1], pr.OutHit[2], pr.MeshNames)
		default:
			return false, fmt.Errorf("observerclient: unexpected flow byte %d", flowBuf[0])
		}
	}
}

// sendEvents uploads the queued local events, a u8 count followed by
// that many fixed-layout records, then clears the queue.
func (c *client) sendEvents() error {
	n := len(c.pending)
	if n > maxQueuedEvents {
		n = maxQueuedEvents
	}
	if err := wire.SendAll(c.conn, []byte{uint8(n)}); err != nil {
		return err
	}
	if n > 0 {
		w := wire.NewWriter()
		for _, e := range c.pending[:n] {
			e.WriteTo(w)
		}
		if err := wire.SendAll(c.conn, w.Bytes()); err != nil {
			return err
		}
	}
	c.pending = c.pending[:0]
	return nil
}

// recvFrame downloads the current frame, raw or zlib-compressed
// depending on Config.Compress.
func (c *client) recvFrame() ([]byte, error) {
	blob, err := wire.RecvU32Blob(c.conn, proto.FrameMaxLen)
	if err != nil {
		return nil, err
	}
	if !c.cfg.Compress {
		return blob, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer zr.Close()
	out := make([]byte, 3*c.w*c.h)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	return out, nil
}

func (c *client) recvOverlay() (proto.Overlay, error) {
	buf := make([]byte, proto.OverlayWireSize)
	if err := wire.RecvAll(c.conn, buf); err != nil {
		return proto.Overlay{}, err
	}
	return proto.ReadOverlay(wire.NewReader(buf, false))
}

// blit copies the downloaded RGB frame into the window surface and
// presents it. The overlay's numbers are logged rather than drawn;
// this client carries no bitmap-font renderer.
func (c *client) blit(pix []byte) {
	dst := c.surface.Pixels()
	bpp := int(c.surface.Format.BytesPerPixel)
	for i := 0; i < c.w*c.h && (i+1)*3 <= len(pix) && (i+1)*bpp <= len(dst); i++ {
		r, g, b := pix[3*i], pix[3*i+1], pix[3*i+2]
		px := dst[i*bpp : i*bpp+bpp]
		switch bpp {
		case 4:
			px[0], px[1], px[2], px[3] = b, g, r, 0xff
		case 3:
			px[0], px[1], px[2] = b, g, r
		}
	}
	c.window.UpdateSurface()
}

// queue appends e to the upload queue if there's room.
func (c *client) queue(e proto.Event) {
	if len(c.pending) < maxQueuedEvents {
		c.pending = append(c.pending, e)
	}
}
