// Package nn holds trainable parameters and their initializers.
package nn

import (
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// Parameter represents a trainable parameter.
//
// The tensor is owned by the Parameter and updated in place by an
// optimizer. The gradient is set after a backward pass and cleared by
// ZeroGrad.
//
// Example:
//
//	w := nn.NewParameter("weights", nn.RandomNormal(tensor.Shape{784, 10}, 0, 1/math.Sqrt(784), rng, backend))
//	grad := w.Grad() // nil until a backward pass
type Parameter[B tensor.Backend] struct {
	name   string                     // Parameter name (e.g., "weights")
	tensor *tensor.Tensor[float32, B] // The parameter tensor
	grad   *tensor.Tensor[float32, B] // Gradient from the last backward pass
}

// NewParameter creates a new trainable parameter.
//
// The parameter tensor should be initialized before creating the Parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Shape returns the parameter's shape.
func (p *Parameter[B]) Shape() tensor.Shape {
	return p.tensor.Shape()
}

// Grad returns the gradient tensor, or nil before a backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
//
// The gradient's storage belongs to the scope it was computed in, so
// ZeroGrad only drops the reference.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// Release frees the parameter tensor. The parameter must not be used afterwards.
func (p *Parameter[B]) Release() {
	p.grad = nil
	p.tensor.Release()
}
