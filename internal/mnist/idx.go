package mnist

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// IDX magic numbers.
const (
	imagesMagic = 2051 // 0x00000803
	labelsMagic = 2049 // 0x00000801
)

// maxSamples bounds the sample count a header may declare, so a corrupt
// file fails before its data is allocated. MNIST has 70000 samples.
const maxSamples = 1 << 20

// readIDXImages reads an image file in IDX format.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
//
// Returns the pixels of all images back to back. ctx is checked between
// the header and the pixel data.
func readIDXImages(ctx context.Context, r io.Reader) (pixels []byte, numImages int, err error) {
	var header struct {
		Magic, NumImages, NumRows, NumCols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}
	if header.Magic != imagesMagic {
		return nil, 0, fmt.Errorf("invalid magic number: got %d, want %d", header.Magic, imagesMagic)
	}
	if int(header.NumRows)*int(header.NumCols) != ImageSize {
		return nil, 0, fmt.Errorf("unsupported image size %dx%d, want %d pixels",
			header.NumRows, header.NumCols, ImageSize)
	}
	if header.NumImages > maxSamples {
		return nil, 0, fmt.Errorf("too many images: %d exceeds %d", header.NumImages, maxSamples)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	numImages = int(header.NumImages)
	pixels = make([]byte, numImages*ImageSize)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, 0, fmt.Errorf("failed to read %d images: %w", numImages, err)
	}
	return pixels, numImages, nil
}

// readIDXLabels reads a label file in IDX format.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func readIDXLabels(ctx context.Context, r io.Reader) ([]byte, error) {
	var header struct {
		Magic, NumLabels uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header.Magic != labelsMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header.Magic, labelsMagic)
	}
	if header.NumLabels > maxSamples {
		return nil, fmt.Errorf("too many labels: %d exceeds %d", header.NumLabels, maxSamples)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := make([]byte, header.NumLabels)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	for i, l := range labels {
		if int(l) >= NumClasses {
			return nil, fmt.Errorf("label %d out of range [0, %d): %d", i, NumClasses, l)
		}
	}
	return labels, nil
}

// openIDX opens path, falling back to path+".gz". Gzip files are
// decompressed transparently. Returns fs.ErrNotExist when neither exists.
func openIDX(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err == nil {
		return readCloser{Reader: bufio.NewReader(f), closers: []io.Closer{f}}, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	f, err = os.Open(path + ".gz")
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip file '%s.gz': %w", path, err)
	}
	return readCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc readCloser) Close() error {
	var errs []error
	for _, c := range rc.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func loadIDXImages(ctx context.Context, path string) ([]byte, int, error) {
	rc, err := openIDX(path)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	pixels, n, err := readIDXImages(ctx, rc)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return pixels, n, nil
}

func loadIDXLabels(ctx context.Context, path string) ([]byte, error) {
	rc, err := openIDX(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	labels, err := readIDXLabels(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return labels, nil
}
