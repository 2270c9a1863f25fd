package serialization

import (
	"time"

	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/numeric"
)

// Format constants.
const (
	MagicBytes       = "GTPE"
	FormatVersion    = 1
	HeaderAlignment  = 64   // Align tensor data to 64 bytes
	FixedHeaderSize  = 64   // Fixed header size (0x40 bytes)
	ChecksumSize     = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset   = 0x20 // Checksum offset in the fixed header
	DTypeFloat32     = "float32"
	float32Size      = 4
	ParamsTensorName = "params"
	optimizerPrefix  = "optimizer."
)

// Flags for the .gtp format.
const (
	FlagHasOptimizer uint32 = 1 << 1 // bit 1: optimizer state included
	FlagHasMetadata  uint32 = 1 << 2 // bit 2: custom metadata included
)

// Header represents the JSON header in a .gtp file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	CreatedAt      time.Time         `json:"created_at"`
	RunID          string            `json:"run_id,omitempty"`
	Network        NetworkMeta       `json:"network"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// NetworkMeta is the topology needed to rebuild a network.
type NetworkMeta struct {
	InputSize     int                   `json:"input_size"`
	ErrorFunction numeric.ErrorFunction `json:"error_function"`
	Layers        []nn.LayerSpec        `json:"layers"`
}

// CheckpointMeta contains training state information for checkpoints.
type CheckpointMeta struct {
	Epoch         int     `json:"epoch"`          // Completed epochs
	Step          int64   `json:"step"`           // Samples seen
	Loss          float64 `json:"loss"`           // Mean test error at checkpoint
	Accuracy      float64 `json:"accuracy"`       // Test accuracy at checkpoint
	OptimizerType string  `json:"optimizer_type"` // "sgd" or "adam"
}

// TensorMeta describes a tensor in the .gtp file.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// alignedHeaderEnd returns the data offset for a header of the given size.
func alignedHeaderEnd(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
}
