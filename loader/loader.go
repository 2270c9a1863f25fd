// Package loader reads IDX (MNIST-style) datasets.
//
// This package wraps the internal IDX reader and exports a clean public API.
// Images are normalised to [0, 1] and implement nn.Example.
//
// Example usage:
//
//	import (
//	    "github.com/born-ml/gradtape/loader"
//	)
//
//	// Load the training split from a directory holding the standard file
//	// names (train-images-idx3-ubyte, ..., optionally gzipped)
//	images, err := loader.LoadDir("data", loader.Train, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	examples := loader.Examples(images)
package loader

import (
	"github.com/born-ml/gradtape/internal/loader"
	"github.com/born-ml/gradtape/internal/nn"
)

// Image is one normalised image with its label.
type Image = loader.Image

// Split selects the training or testing files of a dataset directory.
type Split = loader.Split

// Dataset splits.
const (
	Train Split = loader.Train
	Test  Split = loader.Test
)

// Errors returned while reading IDX files.
var (
	ErrInvalidMagic  = loader.ErrInvalidMagic
	ErrInvalidHeader = loader.ErrInvalidHeader
	ErrCountMismatch = loader.ErrCountMismatch
	ErrNotFound      = loader.ErrNotFound
)

// LoadDir loads a split from dir. maxSamples of 0 loads everything.
func LoadDir(dir string, split Split, maxSamples int) ([]*Image, error) {
	return loader.LoadDir(dir, split, maxSamples)
}

// LoadIDX loads an image file and its matching label file.
func LoadIDX(imagesPath, labelsPath string, maxSamples int) ([]*Image, error) {
	return loader.LoadIDX(imagesPath, labelsPath, maxSamples)
}

// Examples converts images to the form the trainer consumes.
func Examples(images []*Image) []nn.Example {
	return loader.Examples(images)
}
