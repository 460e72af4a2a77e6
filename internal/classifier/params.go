// Package classifier is a single-layer linear softmax classifier for
// flattened digit images.
//
// The model is logits = images @ W with W of shape [ImageSize, NumClasses],
// no bias and no activation. Training minimizes the mean softmax
// cross-entropy with plain SGD.
package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/mnistlinear/internal/mnist"
	"github.com/born-ml/mnistlinear/internal/nn"
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// WeightsShape is the shape of the weight matrix.
var WeightsShape = tensor.Shape{mnist.ImageSize, mnist.NumClasses}

// Parameters holds the model weights.
type Parameters[B tensor.Backend] struct {
	Weights *nn.Parameter[B]
}

// NewParameters draws W from N(0, 1/sqrt(ImageSize)) with a seeded RNG.
// The weights are long-lived: no open scope releases them.
func NewParameters[B tensor.Backend](backend B, seed int64) *Parameters[B] {
	//nolint:gosec // Using math/rand for weight initialization (not security-critical)
	rng := rand.New(rand.NewSource(seed))
	w := nn.RandomNormal(WeightsShape, 0, 1/math.Sqrt(mnist.ImageSize), rng, backend)
	return NewParametersFrom(w)
}

// NewParametersFrom wraps an existing weight tensor of shape WeightsShape.
func NewParametersFrom[B tensor.Backend](w *tensor.Tensor[float32, B]) *Parameters[B] {
	if !w.Shape().Equal(WeightsShape) {
		panic(fmt.Sprintf("classifier: weights must have shape %v, got %v", WeightsShape, w.Shape()))
	}
	tensor.Persist(w.Raw())
	return &Parameters[B]{Weights: nn.NewParameter("weights", w)}
}

// List returns the trainable parameters.
func (p *Parameters[B]) List() []*nn.Parameter[B] {
	return []*nn.Parameter[B]{p.Weights}
}

// Release frees the weights.
func (p *Parameters[B]) Release() {
	p.Weights.Release()
}
