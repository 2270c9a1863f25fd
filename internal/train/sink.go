package train

import (
	"sync"
	"sync/atomic"
)

// Point is one visualization sample.
type Point struct {
	Series string  `json:"series"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Series names emitted by the trainer.
const (
	SeriesBatchError    = "batch_error"
	SeriesTestAccuracy  = "test_accuracy"
	SeriesTrainAccuracy = "train_accuracy"
)

// Sink is a bounded, non-blocking channel of visualization points.
//
// Emit never waits: when the buffer is full the point is dropped and
// counted. A nil *Sink accepts and discards everything.
type Sink struct {
	mu      sync.RWMutex
	ch      chan Point
	closed  bool
	dropped atomic.Int64
}

// NewSink creates a sink buffering up to capacity points.
func NewSink(capacity int) *Sink {
	return &Sink{ch: make(chan Point, max(capacity, 0))}
}

// Emit offers p to the consumer and reports whether it was accepted.
func (s *Sink) Emit(p Point) bool {
	if s == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return false
	}

	select {
	case s.ch <- p:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Points returns the receiving end. It is closed by Close.
func (s *Sink) Points() <-chan Point {
	return s.ch
}

// Dropped returns how many points were discarded.
func (s *Sink) Dropped() int64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

// Close stops accepting points and closes the channel. It is idempotent.
func (s *Sink) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
