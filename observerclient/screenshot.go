package observerclient

import (
	"fmt"
	"log"
	"os"
)

// saveScreenshot dumps the most recently downloaded frame to a
// numbered PPM file in the working directory, the print-screen binding
// the observer consumes locally rather than forwarding to the master.
func (c *client) saveScreenshot() {
	if len(c.lastFrame) == 0 {
		log.Printf("observerclient: no frame downloaded yet, screenshot skipped")
		return
	}
	name := fmt.Sprintf("observer_%03d.ppm", c.shotCount)
	c.shotCount++
	if err := writePPM(name, c.w, c.h, c.lastFrame); err != nil {
		log.Printf("observerclient: screenshot: %v", err)
		return
	}
	log.Printf("observerclient: wrote %s", name)
}

// writePPM writes w x h 24-bit RGB pixels as a binary PPM (P6).
func writePPM(path string, w, h int, pix []byte) error {
	if len(pix) < 3*w*h {
		return fmt.Errorf("observerclient: frame is %d bytes, need %d for %dx%d", len(pix), 3*w*h, w, h)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "P6\n%d %d\n255\n", w, h); err != nil {
		return err
	}
	if _, err := f.Write(pix[:3*w*h]); err != nil {
		return err
	}
	return f.Close()
}
