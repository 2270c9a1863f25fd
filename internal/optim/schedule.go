package optim

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Schedule anneals the learning rate and batch size linearly with training
// progress, where progress = samples seen / (epochs * training set size).
//
// Example:
//
//	s := optim.NewSchedule(10, 60000, 0.01, 0.0001, 128, 8)
//	s.LearningRate() // 0.01
//	s.Advance(300000)
//	s.LearningRate() // 0.00505
type Schedule struct {
	Epochs       int
	TrainingLen  int
	InitialLR    float32
	TargetLR     float32
	InitialBatch int
	TargetBatch  int

	seen int
}

// NewSchedule creates a schedule at progress 0.
// It panics if epochs, the training set size or either batch size is not
// positive.
func NewSchedule(epochs, trainingLen int, initialLR, targetLR float32, initialBatch, targetBatch int) *Schedule {
	if epochs <= 0 || trainingLen <= 0 {
		panic(fmt.Sprintf("optim: schedule needs positive epochs and training size, got %d and %d", epochs, trainingLen))
	}
	if initialBatch <= 0 || targetBatch <= 0 {
		panic(fmt.Sprintf("optim: schedule needs positive batch sizes, got %d and %d", initialBatch, targetBatch))
	}
	return &Schedule{
		Epochs:       epochs,
		TrainingLen:  trainingLen,
		InitialLR:    initialLR,
		TargetLR:     targetLR,
		InitialBatch: initialBatch,
		TargetBatch:  targetBatch,
	}
}

// Total returns the number of samples the schedule spans.
func (s *Schedule) Total() int {
	return s.Epochs * s.TrainingLen
}

// Seen returns the number of samples consumed so far.
func (s *Schedule) Seen() int {
	return s.seen
}

// Progress returns seen/total, clamped to [0, 1].
func (s *Schedule) Progress() float32 {
	p := float32(s.seen) / float32(s.Total())
	return math32.Min(math32.Max(p, 0), 1)
}

// LearningRate returns the learning rate at the current progress.
func (s *Schedule) LearningRate() float32 {
	return lerp(s.InitialLR, s.TargetLR, s.Progress())
}

// BatchSize returns the batch size at the current progress, at least 1.
func (s *Schedule) BatchSize() int {
	b := int(lerp(float32(s.InitialBatch), float32(s.TargetBatch), s.Progress()) + 0.5)
	return max(b, 1)
}

// Epoch returns the zero-based epoch the next sample belongs to.
func (s *Schedule) Epoch() int {
	return min(s.seen/s.TrainingLen, s.Epochs-1)
}

// Advance records n more consumed samples.
func (s *Schedule) Advance(n int) {
	s.seen += n
}

// Done reports whether every epoch has been consumed.
func (s *Schedule) Done() bool {
	return s.seen >= s.Total()
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
