package train

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// EpochStats summarises one training epoch.
type EpochStats struct {
	Epoch         int           `json:"epoch"` // 1-based
	TrainError    float32       `json:"train_error"`
	TrainAccuracy float32       `json:"train_accuracy"`
	TestError     float32       `json:"test_error"`
	TestAccuracy  float32       `json:"test_accuracy"`
	LearningRate  float32       `json:"learning_rate"` // At the end of the epoch
	BatchSize     int           `json:"batch_size"`    // At the end of the epoch
	Duration      time.Duration `json:"duration"`
}

// History records every epoch of a run.
type History struct {
	RunID  uuid.UUID    `json:"run_id"`
	Epochs []EpochStats `json:"epochs"`
}

// Add appends the stats of a finished epoch.
func (h *History) Add(s EpochStats) {
	h.Epochs = append(h.Epochs, s)
}

// Last returns the most recent epoch.
func (h *History) Last() (EpochStats, bool) {
	if len(h.Epochs) == 0 {
		return EpochStats{}, false
	}
	return h.Epochs[len(h.Epochs)-1], true
}

// Best returns the epoch with the highest test accuracy. Ties go to the
// earliest epoch.
func (h *History) Best() (EpochStats, bool) {
	if len(h.Epochs) == 0 {
		return EpochStats{}, false
	}
	acc := make([]float64, len(h.Epochs))
	for i, e := range h.Epochs {
		acc[i] = float64(e.TestAccuracy)
	}
	return h.Epochs[floats.MaxIdx(acc)], true
}

// Elapsed returns the total training time.
func (h *History) Elapsed() time.Duration {
	d := make([]float64, len(h.Epochs))
	for i, e := range h.Epochs {
		d[i] = float64(e.Duration)
	}
	return time.Duration(floats.Sum(d))
}

// HumanDuration formats d as whole units, largest first, dropping zero
// units: "1h 10s", "2d 3h", "0s".
func HumanDuration(d time.Duration) string {
	units := []struct {
		secs   int64
		suffix string
	}{
		{365 * 24 * 3600, "y"},
		{30 * 24 * 3600, "M"},
		{24 * 3600, "d"},
		{3600, "h"},
		{60, "m"},
		{1, "s"},
	}

	remaining := int64(d / time.Second)
	var parts []string
	for _, u := range units {
		if remaining >= u.secs {
			parts = append(parts, fmt.Sprintf("%d%s", remaining/u.secs, u.suffix))
			remaining %= u.secs
		}
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}
