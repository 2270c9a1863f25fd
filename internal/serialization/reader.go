package serialization

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/born-ml/gradtape/internal/nn"
)

// MaxDataSize bounds the data section accepted by Read.
const MaxDataSize = 1 << 32

// ErrInvalidTopology is returned when the stored network cannot be rebuilt.
var ErrInvalidTopology = errors.New("invalid network topology")

// ReaderOptions configures Read.
type ReaderOptions struct {
	SkipChecksumValidation bool // Skip checksum validation (faster but less safe)
}

// Read decodes a .gtp stream and rebuilds the network it describes.
func Read(r io.Reader, opts ReaderOptions) (*Checkpoint, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if dataSize > MaxDataSize {
		return nil, fmt.Errorf("%w: data section of %d bytes", ErrOutOfBounds, dataSize)
	}
	var stored [32]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	padding := alignedHeaderEnd(int64(headerSize)) - FixedHeaderSize - int64(headerSize)
	if _, err := io.CopyN(io.Discard, r, padding); err != nil {
		return nil, fmt.Errorf("failed to read padding: %w", err)
	}
	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(headerBytes, data), stored); err != nil {
			return nil, err
		}
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	if err := ValidateHeader(&header, int64(dataSize)); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return decode(&header, data)
}

// decode rebuilds a checkpoint from a validated header and its data section.
func decode(h *Header, data []byte) (*Checkpoint, error) {
	paramCount := -1
	for _, t := range h.Tensors {
		if t.Name == ParamsTensorName {
			paramCount = int(t.Size / 4)
		}
	}
	if paramCount < 0 {
		return nil, ErrMissingParams
	}

	net, err := buildNetwork(h.Network, paramCount)
	if err != nil {
		return nil, err
	}

	ck := &Checkpoint{
		Network:   net,
		CreatedAt: h.CreatedAt,
		Meta:      h.CheckpointMeta,
		Metadata:  h.Metadata,
	}
	if h.RunID != "" {
		if ck.RunID, err = uuid.Parse(h.RunID); err != nil {
			return nil, fmt.Errorf("invalid run id: %w", err)
		}
	}

	for _, t := range h.Tensors {
		values := decodeFloats(data[t.Offset : t.Offset+t.Size])
		switch {
		case t.Name == ParamsTensorName:
			if err := net.SetParams(values); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidTopology, err)
			}
		case strings.HasPrefix(t.Name, optimizerPrefix):
			if ck.OptimizerState == nil {
				ck.OptimizerState = make(map[string][]float32)
			}
			ck.OptimizerState[strings.TrimPrefix(t.Name, optimizerPrefix)] = values
		}
	}
	return ck, nil
}

// buildNetwork validates meta before handing it to the panicking constructors.
// The topology must need exactly paramCount parameters, which bounds every
// allocation by the size of the data section.
func buildNetwork(meta NetworkMeta, paramCount int) (*nn.Network, error) {
	if meta.InputSize <= 0 {
		return nil, fmt.Errorf("%w: input size %d", ErrInvalidTopology, meta.InputSize)
	}
	if len(meta.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalidTopology)
	}
	remaining := paramCount
	fanIn := meta.InputSize
	for i, l := range meta.Layers {
		if l.Neurons <= 0 || l.Dropout < 0 || l.Dropout >= 1 {
			return nil, fmt.Errorf("%w: layer %d has %d neurons and dropout %v", ErrInvalidTopology, i, l.Neurons, l.Dropout)
		}
		// Divide instead of multiplying so oversized layers cannot overflow.
		if fanIn > remaining {
			return nil, fmt.Errorf("%w: layer %d needs more than the %d stored parameters", ErrInvalidTopology, i, paramCount)
		}
		perNeuron := fanIn
		if l.UseBias {
			perNeuron++
		}
		if l.Neurons > remaining/perNeuron {
			return nil, fmt.Errorf("%w: layer %d needs more than the %d stored parameters", ErrInvalidTopology, i, paramCount)
		}
		remaining -= l.Neurons * perNeuron
		fanIn = l.Neurons
	}
	if remaining != 0 {
		return nil, fmt.Errorf("%w: topology needs %d parameters, checkpoint stores %d",
			ErrInvalidTopology, paramCount-remaining, paramCount)
	}

	net := nn.New(meta.InputSize, meta.ErrorFunction, nn.WithInitializer(nn.Constant(0)))
	for _, l := range meta.Layers {
		net.AddLayer(l)
	}
	return net, nil
}

// Load reads a checkpoint file with checksum validation.
func Load(path string) (*Checkpoint, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	ck, err := Read(f, ReaderOptions{})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return ck, nil
}
