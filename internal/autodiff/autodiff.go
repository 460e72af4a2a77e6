// Package autodiff implements reverse-mode automatic differentiation using
// the decorator pattern.
//
// AutodiffBackend wraps any tensor.Backend and records differentiable
// operations on a GradientTape while recording is enabled. Operations that
// have no gradient (Argmax) or that only appear in optimizer updates (Add,
// Sub, MulScalar) pass straight through.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	logits := images.MatMul(weights)
//	loss := tensor.New[float32](backend.SoftmaxCrossEntropy(labels.Raw(), logits.Raw()), backend)
//	grads := autodiff.Backward(loss, backend)
//	dW := grads[weights.Raw()]
package autodiff

import (
	"github.com/born-ml/mnistlinear/internal/autodiff/ops"
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(a, c)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMatMulOp(a, c, result))
	}

	return result
}

// Transpose transposes a tensor and records the operation.
//
// The backend materialises a new tensor, so the op must be on the tape for
// gradients to reach the input.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	ndim := len(t.Shape())
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	result := b.inner.Transpose(t, axes...)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTransposeOp(t, result, axes))
	}

	return result
}

// SoftmaxCrossEntropy computes the mean softmax cross-entropy and records
// the operation. Labels are constants: no gradient flows to them.
func (b *AutodiffBackend[B]) SoftmaxCrossEntropy(labels, logits *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.SoftmaxCrossEntropy(labels, logits)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSoftmaxCrossEntropyOp(labels, logits, result))
	}

	return result
}

// Add is not recorded.
func (b *AutodiffBackend[B]) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Add(a, c)
}

// Sub is not recorded.
func (b *AutodiffBackend[B]) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Sub(a, c)
}

// MulScalar is not recorded.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return b.inner.MulScalar(x, scalar)
}

// Argmax is not differentiable and is never recorded.
func (b *AutodiffBackend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}
