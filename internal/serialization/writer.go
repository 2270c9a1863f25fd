package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Write encodes ck in .gtp format.
func Write(w io.Writer, ck *Checkpoint) error {
	if ck == nil || ck.Network == nil {
		return ErrNoNetwork
	}
	net := ck.Network

	createdAt := ck.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     createdAt,
		Network: NetworkMeta{
			InputSize:     net.InputSize(),
			ErrorFunction: net.ErrorFunction(),
			Layers:        net.Layers(),
		},
		Metadata:       ck.Metadata,
		CheckpointMeta: ck.Meta,
	}
	if ck.RunID != uuid.Nil {
		header.RunID = ck.RunID.String()
	}

	// Tensor table: params first, then optimizer buffers in name order.
	type entry struct {
		name   string
		values []float32
	}
	entries := []entry{{ParamsTensorName, net.Params()}}
	keys := make([]string, 0, len(ck.OptimizerState))
	for k := range ck.OptimizerState {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entries = append(entries, entry{optimizerPrefix + k, ck.OptimizerState[k]})
	}

	var dataSize int64
	for _, e := range entries {
		size := int64(len(e.values) * float32Size)
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   e.name,
			DType:  DTypeFloat32,
			Shape:  []int{len(e.values)},
			Offset: dataSize,
			Size:   size,
		})
		dataSize += size
	}

	data := make([]byte, dataSize)
	for i, e := range entries {
		encodeFloats(data[header.Tensors[i].Offset:], e.values)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	var flags uint32
	if len(keys) > 0 {
		flags |= FlagHasOptimizer
	}
	if len(ck.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(dataSize))
	checksum := ComputeChecksum(headerJSON, data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	padding := alignedHeaderEnd(int64(len(headerJSON))) - FixedHeaderSize - int64(len(headerJSON))

	for _, part := range [][]byte{fixed, headerJSON, make([]byte, padding), data} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("failed to write checkpoint: %w", err)
		}
	}
	return nil
}

// Save writes ck to path atomically: the file is written next to path and
// renamed into place once complete.
func Save(path string, ck *Checkpoint) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := Write(tmp, ck); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
