package master

import (
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/wire"
)

// slavePool is the master's side of the slave transport: it pushes the
// scene and version handshake to every connecting slave, then runs one
// goroutine per slave draining a FIFO any idle slave may consume.
// There is no per-slave work queue and no assignment policy beyond
// "whoever asks next gets the head of the queue", so work units never
// wait on a specific slave.
type slavePool struct {
	queue     *workQueue
	agg       *aggregator
	sceneBlob []byte

	mu       sync.Mutex
	conns    map[string]net.Conn
	listener net.Listener
}

func newSlavePool(sceneBlob []byte, agg *aggregator) *slavePool {
	return &slavePool{
		queue:     newWorkQueue(),
		agg:       agg,
		sceneBlob: sceneBlob,
		conns:     map[string]net.Conn{},
	}
}

// Count reports how many slaves are currently connected -- the
// overlay's ComputeNodes field.
func (p *slavePool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Enqueue pushes a tile work unit to the tail of the FIFO.
func (p *slavePool) Enqueue(w *WorkUnit) {
	p.queue.PushBack(w)
}

// EnqueueProbe pushes a probe work unit to the head of the FIFO.
func (p *slavePool) EnqueueProbe(w *WorkUnit) {
	p.queue.PushFront(w)
}

// Listen accepts slave connections on addr until the listener is
// closed (Close, called at shutdown).
func (p *slavePool) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("master: slave listen: %w", err)
	}
	p.listener = ln
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				log.Printf("master: slave listener closed: %v", err)
				return
			}
			go p.handle(conn)
		}
	}()
	return nil
}

// Close stops accepting new slaves and releases every live work queue
// waiter, the dispatch-side half of shutdown sequence.
func (p *slavePool) Close() {
	if p.listener != nil {
		p.listener.Close()
	}
	p.queue.Close()
	p.mu.Lock()
	for _, c := range p.conns {
		c.Close()
	}
	p.mu.Unlock()
}

func (p *slavePool) add(id string, conn net.Conn) {
	p.mu.Lock()
	p.conns[id] = conn
	p.mu.Unlock()
}

func (p *slavePool) remove(id string) {
	p.mu.Lock()
	delete(p.conns, id)
	p.mu.Unlock()
}

// handle runs a connected slave's entire lifetime: scene push, version
// handshake, then a dispatch loop that pulls one work unit at a time
// from the shared queue. Any I/O error drops the slave and re-queues
// whatever work unit was in flight.
func (p *slavePool) handle(conn net.Conn) {
	id := conn.RemoteAddr().String()
	defer conn.Close()

	if err := wire.SendU32Blob(conn, p.sceneBlob); err != nil {
		log.Printf("master: slave %s: scene push: %v", id, err)
		return
	}
	var verBuf [4]byte
	binary.BigEndian.PutUint32(verBuf[:], proto.MagicVersion)
	if err := wire.SendAll(conn, verBuf[:]); err != nil {
		log.Printf("master: slave %s: version push: %v", id, err)
		return
	}

	p.add(id, conn)
	defer p.remove(id)
	log.Printf("master: slave %s connected (pool size %d)", id, p.Count())
	defer log.Printf("master: slave %s disconnected", id)

	for {
		wu, ok := p.queue.Pop()
		if !ok {
			return
		}
		if err := p.dispatchOne(conn, wu); err != nil {
			log.Printf("master: slave %s: %v", id, err)
			p.queue.PushFront(wu) // re-queue outstanding work
			return
		}
	}
}

// dispatchOne sends one work unit and reads its result, handing pixel
// tiles and probe results to the aggregator as they're parsed.
func (p *slavePool) dispatchOne(conn net.Conn, wu *WorkUnit) error {
	w := wire.NewWriter()
	wu.Header.WriteTo(w)
	w.WriteU16(uint16(len(wu.SlaveData)))
	w.WriteBytes(wu.SlaveData)
	if err := wire.SendAll(conn, w.Bytes()); err != nil {
		return fmt.Errorf("send work unit: %w", err)
	}

	hdrBuf := make([]byte, proto.WorkHeaderWireSize)
	if err := wire.RecvAll(conn, hdrBuf); err != nil {
		return fmt.Errorf("recv result header: %w", err)
	}
	h, err := proto.ReadWorkHeader(wire.NewReader(hdrBuf, false))
	if err != nil {
		return fmt.Errorf("parse result header: %w", err)
	}

	if h.IsProbe() {
		pr, err := proto.RecvProbeResultPayload(conn)
		if err != nil {
			return fmt.Errorf("recv probe result: %w", err)
		}
		return p.agg.HandleProbeResult(pr)
	}

	// The echoed sizes determine how much this side allocates and
	// reads; a slave claiming a tile larger than the image is broken.
	imgW, imgH, _, _ := p.agg.Dims()
	if h.SizeX > imgW || h.SizeY > imgH {
		return fmt.Errorf("result header claims %dx%d tile for a %dx%d image", h.SizeX, h.SizeY, imgW, imgH)
	}

	payloadLen := int(h.SizeX)*int(h.SizeY)*3 + 2 // + trailing u16 frame index
	payload := make([]byte, payloadLen)
	if err := wire.RecvAll(conn, payload); err != nil {
		return fmt.Errorf("recv tile payload: %w", err)
	}
	return p.agg.HandleTileResult(h, payload)
}
