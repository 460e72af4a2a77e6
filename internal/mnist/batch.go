package mnist

import (
	"fmt"

	"github.com/born-ml/mnistlinear/internal/tensor"
)

// Batch is a mini-batch of images and one-hot labels.
//
// Images has shape [N, ImageSize] and Labels [N, NumClasses]; row i of
// both describes the same sample.
type Batch[B tensor.Backend] struct {
	Images *tensor.Tensor[float32, B]
	Labels *tensor.Tensor[float32, B]
}

// Size returns the number of samples in the batch.
func (b *Batch[B]) Size() int {
	return b.Images.Shape()[0]
}

// Release frees the batch tensors.
func (b *Batch[B]) Release() {
	b.Images.Release()
	b.Labels.Release()
}

// clone returns a batch sharing b's storage with its own references.
func (b *Batch[B]) clone() *Batch[B] {
	backend := b.Images.Backend()
	return &Batch[B]{
		Images: tensor.New[float32](b.Images.Raw().Clone(), backend),
		Labels: tensor.New[float32](b.Labels.Raw().Clone(), backend),
	}
}

// NewBatch builds a batch from the samples of ds at the given indices.
func NewBatch[B tensor.Backend](ds *Dataset, indices []int, backend B) *Batch[B] {
	if len(indices) == 0 {
		panic("mnist: empty batch")
	}

	n := len(indices)
	images := tensor.Zeros[float32](tensor.Shape{n, ImageSize}, backend)
	labels := tensor.Zeros[float32](tensor.Shape{n, NumClasses}, backend)

	imagesData := images.Data()
	labelsData := labels.Data()
	for row, idx := range indices {
		if idx < 0 || idx >= ds.Len() {
			panic(fmt.Sprintf("mnist: sample %d out of range [0, %d)", idx, ds.Len()))
		}
		copy(imagesData[row*ImageSize:(row+1)*ImageSize], ds.Image(idx))
		labelsData[row*NumClasses+int(ds.Labels[idx])] = 1
	}

	return &Batch[B]{Images: images, Labels: labels}
}
