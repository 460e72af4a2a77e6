package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/mnistlinear/internal/tensor"
)

// SoftmaxCrossEntropyOp represents the mean softmax cross-entropy between
// label distributions and logits.
//
// Backward:
//
//	∂L/∂logits[b,i] = g * (softmax(logits[b])[i] - labels[b,i]) / batch_size
//
// where g is the upstream scalar gradient. Labels are treated as constants.
type SoftmaxCrossEntropyOp struct {
	labels *tensor.RawTensor // [batch_size, num_classes]
	logits *tensor.RawTensor // [batch_size, num_classes]
	output *tensor.RawTensor // scalar loss
}

// NewSoftmaxCrossEntropyOp creates a new softmax cross-entropy operation.
func NewSoftmaxCrossEntropyOp(labels, logits, output *tensor.RawTensor) *SoftmaxCrossEntropyOp {
	return &SoftmaxCrossEntropyOp{
		labels: labels,
		logits: logits,
		output: output,
	}
}

// Inputs returns the differentiable inputs (logits only).
func (op *SoftmaxCrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the scalar loss tensor.
func (op *SoftmaxCrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the gradient with respect to logits.
func (op *SoftmaxCrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	if len(shape) != 2 {
		panic("SoftmaxCrossEntropyOp: backward only supports 2D logits [batch_size, num_classes]")
	}
	batchSize, numClasses := shape[0], shape[1]

	grad, err := tensor.NewRaw(shape, tensor.Float32, op.logits.Device())
	if err != nil {
		panic(fmt.Sprintf("SoftmaxCrossEntropyOp: %v", err))
	}

	logits := op.logits.AsFloat32()
	labels := op.labels.AsFloat32()
	gradData := grad.AsFloat32()
	scale := outputGrad.AsFloat32()[0] / float32(batchSize)

	for b := 0; b < batchSize; b++ {
		row := b * numClasses
		probs := gradData[row : row+numClasses]
		softmaxFloat32(probs, logits[row:row+numClasses])
		for i := range probs {
			probs[i] = scale * (probs[i] - labels[row+i])
		}
	}

	return []*tensor.RawTensor{grad}
}

// softmaxFloat32 writes softmax(z) into out with max shifting for stability.
func softmaxFloat32(out, z []float32) {
	maxVal := z[0]
	for _, v := range z[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sumExp float64
	for i, v := range z {
		e := math.Exp(float64(v - maxVal))
		out[i] = float32(e)
		sumExp += e
	}

	for i := range out {
		out[i] = float32(float64(out[i]) / sumExp)
	}
}
