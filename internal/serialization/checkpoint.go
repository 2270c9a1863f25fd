package serialization

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/gradtape/internal/nn"
)

// Checkpoint is everything stored in a .gtp file.
type Checkpoint struct {
	Network        *nn.Network
	RunID          uuid.UUID // uuid.Nil when unknown
	CreatedAt      time.Time // Set by Write when zero
	Meta           *CheckpointMeta
	OptimizerState map[string][]float32
	Metadata       map[string]string
}

func encodeFloats(dst []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*float32Size:], math.Float32bits(v))
	}
}

func decodeFloats(src []byte) []float32 {
	out := make([]float32, len(src)/float32Size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*float32Size:]))
	}
	return out
}
