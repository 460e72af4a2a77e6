// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mnist loads digit images and serves them as tensor batches.
//
// Example:
//
//	ds, err := mnist.LoadIDX(ctx, "data/mnist") // plain or .gz IDX files
//	loader, err := mnist.NewLoader(ds, backend, mnist.LoaderOptions{Seed: 1})
//	batch := loader.NextTrainBatch(64) // Images [64, 784], Labels [64, 10]
package mnist

import (
	"context"

	"github.com/born-ml/mnistlinear/internal/mnist"
	"github.com/born-ml/mnistlinear/tensor"
)

// Data constants.
const (
	ImageSize  = mnist.ImageSize
	NumClasses = mnist.NumClasses
)

// Dataset holds images normalised to [0, 1] and their digit labels.
type Dataset = mnist.Dataset

// Batch is a mini-batch of images and one-hot labels.
type Batch[B tensor.Backend] = mnist.Batch[B]

// Source supplies training batches.
type Source[B tensor.Backend] = mnist.Source[B]

// Loader serves shuffled train batches and sequential test batches.
type Loader[B tensor.Backend] = mnist.Loader[B]

// LoaderOptions configures a Loader.
type LoaderOptions = mnist.LoaderOptions

// FixedSource returns the same batch on every call.
type FixedSource[B tensor.Backend] = mnist.FixedSource[B]

// LoadIDX loads the IDX files in dir.
func LoadIDX(ctx context.Context, dir string) (*Dataset, error) {
	return mnist.LoadIDX(ctx, dir)
}

// Synthetic creates a deterministic, linearly separable dataset.
func Synthetic(n int, seed int64) *Dataset {
	return mnist.Synthetic(n, seed)
}

// NewBatch builds a batch from the samples of ds at the given indices.
func NewBatch[B tensor.Backend](ds *Dataset, indices []int, backend B) *Batch[B] {
	return mnist.NewBatch(ds, indices, backend)
}

// NewLoader splits ds into train and test parts.
func NewLoader[B tensor.Backend](ds *Dataset, backend B, opts LoaderOptions) (*Loader[B], error) {
	return mnist.NewLoader(ds, backend, opts)
}

// NewFixedSource takes ownership of batch.
func NewFixedSource[B tensor.Backend](batch *Batch[B]) *FixedSource[B] {
	return mnist.NewFixedSource(batch)
}
