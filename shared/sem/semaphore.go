// Package sem provides the counting and binary semaphores the master
// uses to gate frame production (the double-buffer governor) and to
// signal individual observers that a frame is ready for them. A
// capacity-N buffered channel is Go's native counting semaphore; these
// types just give that idiom a name.
package sem

// CountingSemaphore is a counting semaphore with a fixed capacity.
// Wait blocks while the semaphore is at zero; Post increments it
// (dropping the post if the semaphore is already at capacity, so a
// stray extra Post never lets two waiters proceed for one resource).
type CountingSemaphore struct {
	slots chan struct{}
}

// NewCountingSemaphore creates a semaphore with the given initial
// value and capacity. capacity must be >= initial.
func NewCountingSemaphore(initial, capacity int) *CountingSemaphore {
	s := &CountingSemaphore{slots: make(chan struct{}, capacity)}
	for i := 0; i < initial; i++ {
		s.slots <- struct{}{}
	}
	return s
}

// Wait blocks until a unit is available, then consumes it.
func (s *CountingSemaphore) Wait() {
	<-s.slots
}

// Post makes one unit available. If the semaphore is already at
// capacity, Post is a silent no-op (mirrors POSIX sem_post's undefined
// behavior on overflow by simply refusing to exceed capacity, which is
// the only safe choice without a panic).
func (s *CountingSemaphore) Post() {
	select {
	case s.slots <- struct{}{}:
	default:
	}
}

// BinarySemaphore is a CountingSemaphore with capacity 1, the
// double-buffer gate and per-observer frame signal.
type BinarySemaphore struct {
	*CountingSemaphore
}

// NewBinarySemaphore creates a binary semaphore with the given initial
// value (0 or 1).
func NewBinarySemaphore(initial int) *BinarySemaphore {
	return &BinarySemaphore{CountingSemaphore: NewCountingSemaphore(initial, 1)}
}

// TryWait attempts to consume a unit without blocking. It reports
// whether it succeeded. Used by the observer reactor to check frame
// availability without stalling the session's state machine.
func (s *CountingSemaphore) TryWait() bool {
	select {
	case <-s.slots:
		return true
	default:
		return false
	}
}
