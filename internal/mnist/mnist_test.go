package mnist

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/mnistlinear/internal/backend/cpu"
	"github.com/born-ml/mnistlinear/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeImages(t *testing.T, pixels [][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range []uint32{imagesMagic, uint32(len(pixels)), 28, 28} {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
	}
	for _, p := range pixels {
		require.Len(t, p, ImageSize)
		buf.Write(p)
	}
	return buf.Bytes()
}

func encodeLabels(t *testing.T, labels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range []uint32{labelsMagic, uint32(len(labels))} {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
	}
	buf.Write(labels)
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte, gz bool) {
	t.Helper()
	if gz {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		data = buf.Bytes()
		path += ".gz"
	}
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

// samplePixels returns n images where image i has pixel i set to 255.
func samplePixels(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = make([]byte, ImageSize)
		out[i][i] = 255
	}
	return out
}

func TestLoadIDX(t *testing.T) {
	for _, gz := range []bool{false, true} {
		name := "plain"
		if gz {
			name = "gzip"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, TrainImagesFile), encodeImages(t, samplePixels(3)), gz)
			writeFile(t, filepath.Join(dir, TrainLabelsFile), encodeLabels(t, []byte{7, 0, 9}), gz)

			ds, err := LoadIDX(context.Background(), dir)
			require.NoError(t, err)
			require.Equal(t, 3, ds.Len())
			assert.Equal(t, []uint8{7, 0, 9}, ds.Labels)
			assert.Equal(t, float32(1), ds.Image(1)[1])
			assert.Equal(t, float32(0), ds.Image(1)[0])
		})
	}
}

func TestLoadIDX_AppendsTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, TrainImagesFile), encodeImages(t, samplePixels(2)), false)
	writeFile(t, filepath.Join(dir, TrainLabelsFile), encodeLabels(t, []byte{1, 2}), false)
	writeFile(t, filepath.Join(dir, TestImagesFile), encodeImages(t, samplePixels(1)), true)
	writeFile(t, filepath.Join(dir, TestLabelsFile), encodeLabels(t, []byte{3}), true)

	ds, err := LoadIDX(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3}, ds.Labels)
	assert.Len(t, ds.Images, 3*ImageSize)
}

func TestLoadIDX_Errors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := LoadIDX(context.Background(), t.TempDir())
		assert.Error(t, err)
	})

	t.Run("bad magic", func(t *testing.T) {
		dir := t.TempDir()
		data := encodeImages(t, samplePixels(1))
		data[3] = 0x01
		writeFile(t, filepath.Join(dir, TrainImagesFile), data, false)
		writeFile(t, filepath.Join(dir, TrainLabelsFile), encodeLabels(t, []byte{1}), false)

		_, err := LoadIDX(context.Background(), dir)
		assert.ErrorContains(t, err, "invalid magic number")
	})

	t.Run("count mismatch", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, TrainImagesFile), encodeImages(t, samplePixels(2)), false)
		writeFile(t, filepath.Join(dir, TrainLabelsFile), encodeLabels(t, []byte{1}), false)

		_, err := LoadIDX(context.Background(), dir)
		assert.ErrorContains(t, err, "image count")
	})

	t.Run("truncated", func(t *testing.T) {
		dir := t.TempDir()
		data := encodeImages(t, samplePixels(2))
		writeFile(t, filepath.Join(dir, TrainImagesFile), data[:len(data)-10], false)
		writeFile(t, filepath.Join(dir, TrainLabelsFile), encodeLabels(t, []byte{1, 2}), false)

		_, err := LoadIDX(context.Background(), dir)
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, TrainImagesFile), encodeImages(t, samplePixels(1)), false)
		writeFile(t, filepath.Join(dir, TrainLabelsFile), encodeLabels(t, []byte{1}), false)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := LoadIDX(ctx, dir)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("label range", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, TrainImagesFile), encodeImages(t, samplePixels(1)), false)
		writeFile(t, filepath.Join(dir, TrainLabelsFile), encodeLabels(t, []byte{10}), false)

		_, err := LoadIDX(context.Background(), dir)
		assert.ErrorContains(t, err, "out of range")
	})
}

func TestReadIDXImages_CorruptHeader(t *testing.T) {
	header := func(numImages, rows, cols uint32) []byte {
		var buf bytes.Buffer
		for _, v := range []uint32{imagesMagic, numImages, rows, cols} {
			require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
		}
		return buf.Bytes()
	}

	// 16 * 268435505 wraps to 784 in uint32.
	_, _, err := readIDXImages(context.Background(), bytes.NewReader(header(1, 16, 268435505)))
	assert.ErrorContains(t, err, "unsupported image size")

	_, _, err = readIDXImages(context.Background(), bytes.NewReader(header(0xFFFFFFFF, 28, 28)))
	assert.ErrorContains(t, err, "too many images")

	var buf bytes.Buffer
	for _, v := range []uint32{labelsMagic, 0xFFFFFFFF} {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
	}
	_, err = readIDXLabels(context.Background(), &buf)
	assert.ErrorContains(t, err, "too many labels")
}

func TestSynthetic(t *testing.T) {
	a := Synthetic(50, 3)
	b := Synthetic(50, 3)
	require.NoError(t, a.Validate())
	assert.Equal(t, a.Labels, b.Labels)
	assert.Equal(t, a.Images, b.Images)

	for i := 0; i < a.Len(); i++ {
		var lit int
		for _, v := range a.Image(i) {
			assert.True(t, v >= 0 && v <= 1)
			if v > 0 {
				lit++
			}
		}
		assert.Equal(t, 25, lit)
	}
}

func TestNewBatch_OneHot(t *testing.T) {
	backend := cpu.New()
	ds := Synthetic(10, 1)

	batch := NewBatch(ds, []int{4, 2, 7}, backend)
	defer batch.Release()

	assert.Equal(t, 3, batch.Size())
	assert.Equal(t, tensor.Shape{3, ImageSize}, batch.Images.Shape())
	assert.Equal(t, tensor.Shape{3, NumClasses}, batch.Labels.Shape())

	for row, idx := range []int{4, 2, 7} {
		var sum float32
		for c := 0; c < NumClasses; c++ {
			sum += batch.Labels.At(row, c)
		}
		assert.Equal(t, float32(1), sum)
		assert.Equal(t, float32(1), batch.Labels.At(row, int(ds.Labels[idx])))
		assert.Equal(t, ds.Image(idx), batch.Images.Data()[row*ImageSize:(row+1)*ImageSize])
	}
}

func TestLoader_Split(t *testing.T) {
	backend := cpu.New()

	l, err := NewLoader(Synthetic(130, 1), backend, LoaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, 110, l.TrainLen())
	assert.Equal(t, 20, l.TestLen())

	l, err = NewLoader(Synthetic(30, 1), backend, LoaderOptions{TrainSize: 20, TestSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 20, l.TrainLen())
	assert.Equal(t, 5, l.TestLen())

	_, err = NewLoader(Synthetic(10, 1), backend, LoaderOptions{TrainSize: 8, TestSize: 5})
	assert.Error(t, err)

	_, err = NewLoader(Synthetic(1, 1), backend, LoaderOptions{})
	assert.Error(t, err)
}

func TestLoader_TrainBatchesWrap(t *testing.T) {
	backend := cpu.New()
	l, err := NewLoader(Synthetic(13, 5), backend, LoaderOptions{Seed: 9, TrainSize: 10, TestSize: 3})
	require.NoError(t, err)

	seen := make(map[int]int)
	for range 3 {
		batch := l.NextTrainBatch(4)
		assert.Equal(t, 4, batch.Size())
		batch.Release()
	}
	// 12 draws over 10 samples: the order wrapped once.
	assert.Equal(t, 2, l.next)

	for _, idx := range l.order {
		seen[idx]++
	}
	assert.Len(t, seen, 10)
}

func TestLoader_TestBatchesShortThenWrap(t *testing.T) {
	backend := cpu.New()
	l, err := NewLoader(Synthetic(20, 5), backend, LoaderOptions{TrainSize: 10, TestSize: 5})
	require.NoError(t, err)

	sizes := make([]int, 0, 3)
	for range 3 {
		batch := l.NextTestBatch(3)
		sizes = append(sizes, batch.Size())
		batch.Release()
	}
	assert.Equal(t, []int{3, 2, 3}, sizes)
}

func TestLoader_SequentialShortTrainBatch(t *testing.T) {
	backend := cpu.New()
	l, err := NewLoader(Synthetic(15, 5), backend, LoaderOptions{TrainSize: 10, TestSize: 5, Sequential: true})
	require.NoError(t, err)

	sizes := make([]int, 0, 4)
	for range 4 {
		batch := l.NextTrainBatch(4)
		sizes = append(sizes, batch.Size())
		batch.Release()
	}
	assert.Equal(t, []int{4, 4, 2, 4}, sizes)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, l.order)
}

func TestLoader_BatchesReleasedByScope(t *testing.T) {
	backend := cpu.New()
	l, err := NewLoader(Synthetic(20, 5), backend, LoaderOptions{TrainSize: 10, TestSize: 5})
	require.NoError(t, err)

	before := tensor.Memory()
	tensor.Tidy(func(*tensor.Scope) {
		_ = l.NextTrainBatch(4)
		_ = l.NextTestBatch(4)
	})
	assert.Equal(t, before, tensor.Memory())
}

func TestLoader_InvalidBatchSizePanics(t *testing.T) {
	l, err := NewLoader(Synthetic(20, 5), cpu.New(), LoaderOptions{TrainSize: 10, TestSize: 5})
	require.NoError(t, err)
	assert.Panics(t, func() { l.NextTrainBatch(0) })
	assert.Panics(t, func() { l.NextTestBatch(-1) })
}

func TestFixedSource(t *testing.T) {
	backend := cpu.New()
	before := tensor.Memory()

	src := NewFixedSource(NewBatch(Synthetic(4, 2), []int{0, 1, 2, 3}, backend))

	tensor.Tidy(func(*tensor.Scope) {
		a := src.NextTrainBatch(64)
		b := src.NextTrainBatch(1)
		assert.Equal(t, 4, a.Size())
		assert.Equal(t, a.Images.Data(), b.Images.Data())
		a.Release()
	})

	// The source survives its handles being released.
	again := src.NextTrainBatch(4)
	assert.Equal(t, 4, again.Size())
	again.Release()

	src.Release()
	assert.Equal(t, before, tensor.Memory())
}
