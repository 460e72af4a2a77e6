package classifier

import (
	"fmt"

	"github.com/born-ml/mnistlinear/internal/mnist"
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// Model computes logits = images @ W.
//
// images must have shape [N, ImageSize] for any N >= 1; the result has
// shape [N, NumClasses]. Panics on any other shape.
func Model[B tensor.Backend](params *Parameters[B], images *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := images.Shape()
	if len(shape) != 2 || shape[0] < 1 || shape[1] != mnist.ImageSize {
		panic(fmt.Sprintf("classifier: images must be [N, %d], got %v", mnist.ImageSize, shape))
	}
	return images.MatMul(params.Weights.Tensor())
}

// Loss returns the mean softmax cross-entropy between one-hot labels and
// logits, both [N, NumClasses], as a scalar tensor.
func Loss[B tensor.Backend](labels, logits *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := logits.Backend()
	return tensor.New[float32](backend.SoftmaxCrossEntropy(labels.Raw(), logits.Raw()), backend)
}

// ComputeLoss evaluates the loss of params on batch without training.
// All intermediate tensors are released.
func ComputeLoss[B tensor.Backend](params *Parameters[B], batch *mnist.Batch[B]) float32 {
	var cost float32
	tensor.Tidy(func(*tensor.Scope) {
		cost = Loss(batch.Labels, Model(params, batch.Images)).Item()
	})
	return cost
}
