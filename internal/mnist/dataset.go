// Package mnist loads handwritten-digit data and serves it as tensor
// batches.
//
// Images are flattened to ImageSize float32 pixels in [0, 1]. Labels are
// digits exposed to the model as one-hot rows of NumClasses values.
package mnist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"path/filepath"

	"github.com/born-ml/mnistlinear/internal/parallel"
	"golang.org/x/sync/errgroup"
)

// Data constants.
const (
	ImageSize  = 784 // 28x28 pixels
	NumClasses = 10
)

// IDX file names. LoadIDX also accepts each with a ".gz" suffix.
const (
	TrainImagesFile = "train-images-idx3-ubyte"
	TrainLabelsFile = "train-labels-idx1-ubyte"
	TestImagesFile  = "t10k-images-idx3-ubyte"
	TestLabelsFile  = "t10k-labels-idx1-ubyte"
)

// Dataset holds images and labels in host memory.
type Dataset struct {
	Images []float32 // [Len() * ImageSize], row-major, values in [0, 1]
	Labels []uint8   // [Len()], digits 0-9
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Image returns the pixels of sample i (zero-copy).
func (d *Dataset) Image(i int) []float32 {
	return d.Images[i*ImageSize : (i+1)*ImageSize]
}

// Split returns the first n samples and the rest. Both share storage with d.
func (d *Dataset) Split(n int) (head, tail *Dataset) {
	if n < 0 || n > d.Len() {
		panic(fmt.Sprintf("mnist: split %d out of range [0, %d]", n, d.Len()))
	}
	return &Dataset{Images: d.Images[:n*ImageSize], Labels: d.Labels[:n]},
		&Dataset{Images: d.Images[n*ImageSize:], Labels: d.Labels[n:]}
}

// Validate checks that images and labels agree.
func (d *Dataset) Validate() error {
	if len(d.Images) != d.Len()*ImageSize {
		return fmt.Errorf("mnist: %d pixels for %d labels, want %d",
			len(d.Images), d.Len(), d.Len()*ImageSize)
	}
	for i, l := range d.Labels {
		if int(l) >= NumClasses {
			return fmt.Errorf("mnist: label %d out of range: %d", i, l)
		}
	}
	return nil
}

// LoadIDX loads the training files from dir and appends the t10k files
// when they are present. Files are read concurrently.
//
// Expected files in dir (each optionally gzipped):
//   - train-images-idx3-ubyte, train-labels-idx1-ubyte (required)
//   - t10k-images-idx3-ubyte, t10k-labels-idx1-ubyte (optional)
func LoadIDX(ctx context.Context, dir string) (*Dataset, error) {
	train, err := loadPair(ctx, filepath.Join(dir, TrainImagesFile), filepath.Join(dir, TrainLabelsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load training set: %w", err)
	}

	test, err := loadPair(ctx, filepath.Join(dir, TestImagesFile), filepath.Join(dir, TestLabelsFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return train, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load test set: %w", err)
	}

	return &Dataset{
		Images: append(train.Images, test.Images...),
		Labels: append(train.Labels, test.Labels...),
	}, nil
}

// loadPair reads an images file and its labels file in parallel.
func loadPair(ctx context.Context, imagesPath, labelsPath string) (*Dataset, error) {
	var (
		pixels    []byte
		numImages int
		labels    []byte
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pixels, numImages, err = loadIDXImages(gctx, imagesPath)
		return err
	})
	g.Go(func() error {
		var err error
		labels, err = loadIDXLabels(gctx, labelsPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if numImages != len(labels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", numImages, len(labels))
	}

	return &Dataset{
		Images: normalize(pixels),
		Labels: labels,
	}, nil
}

// normalize maps pixels 0-255 to 0.0-1.0.
func normalize(pixels []byte) []float32 {
	out := make([]float32, len(pixels))
	parallel.ForChunks(len(pixels), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = float32(pixels[i]) / 255.0
		}
	}, parallel.DefaultConfig())
	return out
}

// Synthetic creates a deterministic dataset of n samples for tests and
// offline runs.
//
// Each digit d lights a distinct 5x5 block of the image (blocks in two
// rows of five), with per-pixel intensity drawn from [0.6, 1.0]. The
// classes are linearly separable, so a linear classifier learns them.
func Synthetic(n int, seed int64) *Dataset {
	//nolint:gosec // Using math/rand for reproducible test data (not security-critical)
	rng := rand.New(rand.NewSource(seed))

	d := &Dataset{
		Images: make([]float32, n*ImageSize),
		Labels: make([]uint8, n),
	}

	for i := 0; i < n; i++ {
		digit := rng.Intn(NumClasses)
		d.Labels[i] = uint8(digit)

		img := d.Image(i)
		top := 2 + (digit/5)*12
		left := 2 + (digit%5)*5
		for row := top; row < top+5; row++ {
			for col := left; col < left+5; col++ {
				img[row*28+col] = 0.6 + 0.4*rng.Float32()
			}
		}
	}

	return d
}
