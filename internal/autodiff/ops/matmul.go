package ops

import "github.com/born-ml/mnistlinear/internal/tensor"

// MatMulOp records logits = images @ weights, with images [N,784] and
// weights [784,10] in the classifier. Both sides receive a gradient, so
// the op also serves products where the left operand is a parameter.
type MatMulOp struct {
	inputs []*tensor.RawTensor // [left, right]
	output *tensor.RawTensor
}

// NewMatMulOp records output = left @ right.
func NewMatMulOp(left, right, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{
		inputs: []*tensor.RawTensor{left, right},
		output: output,
	}
}

// Backward maps the [N,10] output gradient G back to the operands:
// G @ right^T has the left shape and left^T @ G has the right shape.
// The transposed copies belong to the enclosing scope.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	left, right := op.inputs[0], op.inputs[1]

	gradLeft := backend.MatMul(outputGrad, backend.Transpose(right, 1, 0))
	gradRight := backend.MatMul(backend.Transpose(left, 1, 0), outputGrad)

	return []*tensor.RawTensor{gradLeft, gradRight}
}

// Inputs returns [left, right].
func (op *MatMulOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the recorded product.
func (op *MatMulOp) Output() *tensor.RawTensor {
	return op.output
}
