// Package serialization provides the .gtp checkpoint format for networks with
// a flat parameter array.
//
//	Format Structure:
//	  0x00 [4 bytes: Magic "GTPE"]
//	  0x04 [4 bytes: Version (uint32 LE)]
//	  0x08 [4 bytes: Flags (uint32 LE)]
//	  0x0C [4 bytes: Reserved]
//	  0x10 [8 bytes: Header Size (uint64 LE)]
//	  0x18 [8 bytes: Data Size (uint64 LE)]
//	  0x20 [32 bytes: SHA-256 of header JSON followed by data]
//	  0x40 [Header: JSON metadata, topology and tensor table]
//	       [Tensor data: little-endian float32, 64-byte aligned]
//
// The header stores the network topology (input size, error function and
// layer specs), so a checkpoint is enough to rebuild the network. Tensors are
// the flat parameter array ("params") and optional optimizer buffers
// ("optimizer.<name>").
//
// Example usage:
//
//	// Save
//	err := serialization.Save("model.gtp", &serialization.Checkpoint{Network: net})
//
//	// Load
//	ck, err := serialization.Load("model.gtp")
//	if err != nil {
//	    return err
//	}
//	category, err := ck.Network.Predict(example)
package serialization
