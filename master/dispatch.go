package master

import (
	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/scene"
	"github.com/tienet-go/tienet/shared/wire"
)

// RunDispatcher is the main dispatcher loop: it waits for the
// double-buffer governor to grant the next frame, snapshots the live
// camera/render-mode under one lock so the whole frame's tiles see a
// consistent camera, then emits one work unit per tile in row-major
// order, tagged with the frame's 1-bit index. It returns once ctx is
// no longer alive and the slave pool has been torn down.
func RunDispatcher(ctx *Context) {
	frameIndex := uint8(0)
	for ctx.Alive() {
		ctx.aggregator.WaitForSlot()
		if !ctx.Alive() { // Shutdown posts the governor to unpark this wait
			break
		}
		ctx.aggregator.BeginFrame(frameIndex)

		cam, mode := ctx.snapshotForDispatch()
		w, h, tw, th := ctx.aggregator.Dims()

		for y := uint32(0); y+th <= h; y += th {
			for x := uint32(0); x+tw <= w; x += tw {
				ctx.slaves.Enqueue(&WorkUnit{
					Header:    proto.WorkHeader{OrigX: x, OrigY: y, SizeX: tw, SizeY: th},
					SlaveData: renderSlaveData(frameIndex, cam, mode),
				})
			}
		}

		frameIndex ^= 1
	}
	ctx.slaves.Close()
}

// renderSlaveData builds the OpRender slave-data blob carried by every
// tile work unit of the current frame: the camera and render mode
// current at dispatch time, since the pushed scene's camera goes
// stale the moment the first observer event arrives.
func renderSlaveData(frameIndex uint8, cam scene.View, mode scene.RenderMethod) []byte {
	w := wire.NewWriter()
	proto.RenderPayload{
		FrameIndex: uint16(frameIndex),
		CameraPos:  [3]float64{cam.Pos.X, cam.Pos.Y, cam.Pos.Z},
		Azimuth:    cam.Azimuth,
		Elevation:  cam.Elevation,
		Fov:        cam.Fov,
		Tilt:       cam.Tilt,
		Dof:        cam.Dof,
		RenderMode: uint32(mode),
	}.WriteTo(w)
	return w.Bytes()
}
