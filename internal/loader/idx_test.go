package loader

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idxImages(t *testing.T, rows, cols int, images ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range []uint32{ImagesMagic, uint32(len(images)), uint32(rows), uint32(cols)} {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
	}
	for _, im := range images {
		buf.Write(im)
	}
	return buf.Bytes()
}

func idxLabels(t *testing.T, labels ...byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, LabelsMagic))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(len(labels))))
	buf.Write(labels)
	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadImages(t *testing.T) {
	data := idxImages(t, 2, 2, []byte{0, 255, 51, 102}, []byte{1, 2, 3, 4})

	images, rows, cols, err := ReadImages(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, [][]byte{{0, 255, 51, 102}, {1, 2, 3, 4}}, images)
}

func TestReadImages_Errors(t *testing.T) {
	good := idxImages(t, 2, 2, []byte{0, 1, 2, 3})

	bad := bytes.Clone(good)
	bad[3] = 0x01 // magic 2049
	_, _, _, err := ReadImages(bytes.NewReader(bad))
	assert.ErrorIs(t, err, ErrInvalidMagic)

	_, _, _, err = ReadImages(bytes.NewReader(good[:len(good)-1]))
	assert.Error(t, err)

	_, _, _, err = ReadImages(bytes.NewReader(good[:6]))
	assert.Error(t, err)

	_, _, _, err = ReadImages(bytes.NewReader(idxImages(t, 0, 2)))
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestReadLabels(t *testing.T) {
	labels, err := ReadLabels(bytes.NewReader(idxLabels(t, 3, 7)))
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 7}, labels)

	_, err = ReadLabels(bytes.NewReader(idxImages(t, 1, 1)))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecode(t *testing.T) {
	images, err := Decode([][]byte{{0, 255}, {51, 0}}, []byte{4, 9}, 1, 2, 0)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, []float32{0, 1}, images[0].Input())
	assert.InDelta(t, 0.2, images[1].Pixels[0], 1e-6)
	assert.Equal(t, 9, images[1].Category())
	assert.Equal(t, 10, images[1].Categories())

	limited, err := Decode([][]byte{{0}, {1}}, []byte{1, 2}, 1, 1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = Decode([][]byte{{0}}, []byte{1, 2}, 1, 1, 0)
	assert.ErrorIs(t, err, ErrCountMismatch)

	_, err = Decode([][]byte{{0}}, []byte{10}, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	images := idxImages(t, 1, 3, []byte{0, 0, 255}, []byte{255, 0, 0}, []byte{0, 255, 0})
	labels := idxLabels(t, 2, 0, 1)

	// Training files plain with dashes, testing files gzipped with dots.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train-images-idx3-ubyte"), images, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train-labels-idx1-ubyte"), labels, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t10k-images.idx3-ubyte.gz"), gzipped(t, images), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t10k-labels.idx1-ubyte.gz"), gzipped(t, labels), 0o600))

	for _, split := range []Split{Train, Test} {
		t.Run(split.String(), func(t *testing.T) {
			got, err := LoadDir(dir, split, 0)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, []float32{0, 0, 1}, got[0].Pixels)
			assert.Equal(t, 2, got[0].Label)
			assert.Equal(t, 3, got[0].Cols)

			examples := Examples(got)
			assert.Equal(t, 1, examples[2].Category())
		})
	}
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(t.TempDir(), Train, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}
