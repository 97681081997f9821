package core

import (
	"sync"
	"time"
)

// sequencer issues strictly increasing timestamps for real calls. It follows
// the wall clock so dumps read in real time order, but synthesizes the next
// tick when back-to-back calls land on the same nanosecond.
type sequencer struct {
	mu   sync.Mutex
	last uint64
}

func (s *sequencer) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := uint64(time.Now().UnixNano())
	if now <= s.last {
		now = s.last + 1
	}

	s.last = now

	return now
}
