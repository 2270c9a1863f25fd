// Package loader reads labelled image datasets in the IDX format used by
// MNIST.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes
//
// All integers are big-endian. Files ending in ".gz" are decompressed
// transparently.
//
// Example:
//
//	train, err := loader.LoadDir("data/mnist", loader.Train, 0)
//	if err != nil {
//	    return err
//	}
//	examples := loader.Examples(train)
package loader

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/born-ml/gradtape/internal/parallel"
)

// IDX magic numbers.
const (
	ImagesMagic uint32 = 2051
	LabelsMagic uint32 = 2049
)

// Categories is the number of classes of a digit dataset.
const Categories = 10

// maxItems bounds the item count read from a header before allocating.
const maxItems = 1 << 24

// Sentinel errors.
var (
	ErrInvalidMagic  = errors.New("invalid IDX magic number")
	ErrInvalidHeader = errors.New("invalid IDX header")
	ErrCountMismatch = errors.New("image and label counts differ")
	ErrNotFound      = errors.New("dataset file not found")
)

// Image is one labelled image. It implements nn.Example.
type Image struct {
	Pixels []float32 // Row-major, normalised to [0, 1]
	Label  int
	Rows   int
	Cols   int
}

// Input returns the normalised pixels.
func (im *Image) Input() []float32 { return im.Pixels }

// Category returns the label.
func (im *Image) Category() int { return im.Label }

// Categories returns the number of digit classes.
func (im *Image) Categories() int { return Categories }

// ReadImages reads an IDX image stream and returns the raw pixels of every
// image together with the image dimensions.
func ReadImages(r io.Reader) (images [][]byte, rows, cols int, err error) {
	br := bufio.NewReader(r)

	var header struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(br, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	if header.Magic != ImagesMagic {
		return nil, 0, 0, fmt.Errorf("%w: got %d, want %d", ErrInvalidMagic, header.Magic, ImagesMagic)
	}
	if header.Count > maxItems || header.Rows == 0 || header.Cols == 0 || header.Rows*header.Cols > 1<<20 {
		return nil, 0, 0, fmt.Errorf("%w: %d images of %dx%d", ErrInvalidHeader, header.Count, header.Rows, header.Cols)
	}

	size := int(header.Rows * header.Cols)
	images = make([][]byte, header.Count)
	for i := range images {
		images[i] = make([]byte, size)
		if _, err := io.ReadFull(br, images[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to read image %d: %w", i, err)
		}
	}

	return images, int(header.Rows), int(header.Cols), nil
}

// ReadLabels reads an IDX label stream.
func ReadLabels(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	var header struct {
		Magic, Count uint32
	}
	if err := binary.Read(br, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read label header: %w", err)
	}
	if header.Magic != LabelsMagic {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidMagic, header.Magic, LabelsMagic)
	}
	if header.Count > maxItems {
		return nil, fmt.Errorf("%w: %d labels", ErrInvalidHeader, header.Count)
	}

	labels := make([]byte, header.Count)
	if _, err := io.ReadFull(br, labels); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return labels, nil
}

// Decode pairs raw images with labels and normalises pixels by 1/255.
// maxSamples > 0 keeps only the first maxSamples pairs.
func Decode(raw [][]byte, labels []byte, rows, cols, maxSamples int) ([]*Image, error) {
	if len(raw) != len(labels) {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrCountMismatch, len(raw), len(labels))
	}
	n := len(raw)
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}

	for i, l := range labels[:n] {
		if int(l) >= Categories {
			return nil, fmt.Errorf("%w: label %d of sample %d out of range", ErrInvalidHeader, l, i)
		}
	}

	images := make([]*Image, n)
	parallel.For(n, func(i int) {
		pixels := make([]float32, len(raw[i]))
		for j, p := range raw[i] {
			pixels[j] = float32(p) / 255
		}
		images[i] = &Image{Pixels: pixels, Label: int(labels[i]), Rows: rows, Cols: cols}
	}, parallel.DefaultConfig())

	return images, nil
}

// LoadIDX loads an image file and its label file.
func LoadIDX(imagesPath, labelsPath string, maxSamples int) ([]*Image, error) {
	var (
		raw        [][]byte
		rows, cols int
		labels     []byte
	)

	err := withFile(imagesPath, func(r io.Reader) (err error) {
		raw, rows, cols, err = ReadImages(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", imagesPath, err)
	}

	err = withFile(labelsPath, func(r io.Reader) (err error) {
		labels, err = ReadLabels(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", labelsPath, err)
	}

	return Decode(raw, labels, rows, cols, maxSamples)
}

// Split selects the training or testing half of a dataset directory.
type Split uint8

const (
	Train Split = iota
	Test
)

// String returns the split name.
func (s Split) String() string {
	if s == Test {
		return "test"
	}
	return "train"
}

// filenames returns the accepted image and label file names for s.
func (s Split) filenames() (images, labels []string) {
	prefix := "train"
	if s == Test {
		prefix = "t10k"
	}
	for _, sep := range []string{"-", "."} {
		for _, ext := range []string{"", ".gz"} {
			images = append(images, prefix+"-images"+sep+"idx3-ubyte"+ext)
			labels = append(labels, prefix+"-labels"+sep+"idx1-ubyte"+ext)
		}
	}
	return images, labels
}

// LoadDir loads a split from a directory holding the standard MNIST file
// names (train-images-idx3-ubyte, t10k-labels.idx1-ubyte, optionally gzipped).
func LoadDir(dir string, split Split, maxSamples int) ([]*Image, error) {
	imageNames, labelNames := split.filenames()

	imagesPath, err := find(dir, imageNames)
	if err != nil {
		return nil, fmt.Errorf("%s images: %w", split, err)
	}
	labelsPath, err := find(dir, labelNames)
	if err != nil {
		return nil, fmt.Errorf("%s labels: %w", split, err)
	}
	return LoadIDX(imagesPath, labelsPath, maxSamples)
}

func find(dir string, names []string) (string, error) {
	for _, name := range names {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s (tried %s)", ErrNotFound, dir, strings.Join(names, ", "))
}

// withFile opens path, decompressing ".gz" files, and passes it to fn.
func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return fn(r)
}
