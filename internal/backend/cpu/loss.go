package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/mnistlinear/internal/tensor"
)

// SoftmaxCrossEntropy computes the mean cross-entropy between label
// distributions and softmax(logits) over a batch:
//
//	loss = mean_b( -Σ_c labels[b,c] * log_softmax(logits[b])[c] )
//
// log_softmax uses the log-sum-exp trick:
//
//	log_softmax(z) = z - (max(z) + log(Σ exp(z - max(z))))
//
// Both inputs must be 2D with identical shape [batch_size, num_classes].
// Returns a scalar (0-D) tensor.
func (cpu *CPUBackend) SoftmaxCrossEntropy(labels, logits *tensor.RawTensor) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("softmax_cross_entropy: logits must be 2D [batch_size, num_classes], got %v", shape))
	}
	if !labels.Shape().Equal(shape) {
		panic(fmt.Sprintf("softmax_cross_entropy: labels shape %v != logits shape %v", labels.Shape(), shape))
	}
	requireFloat32("softmax_cross_entropy", labels, logits)

	batchSize, numClasses := shape[0], shape[1]
	z, y := logits.AsFloat32(), labels.AsFloat32()

	var total float64
	for b := 0; b < batchSize; b++ {
		row := z[b*numClasses : (b+1)*numClasses]
		lse := logSumExp(row)
		for c, label := range y[b*numClasses : (b+1)*numClasses] {
			if label == 0 {
				continue
			}
			total -= float64(label) * (float64(row[c]) - lse)
		}
	}

	result := cpu.alloc("softmax_cross_entropy", tensor.Shape{}, tensor.Float32)
	result.AsFloat32()[0] = float32(total / float64(batchSize))
	return result
}

// logSumExp returns log(Σ exp(z)) computed in float64 with max shifting.
func logSumExp(z []float32) float64 {
	maxVal := float64(z[0])
	for _, v := range z[1:] {
		if float64(v) > maxVal {
			maxVal = float64(v)
		}
	}

	var sumExp float64
	for _, v := range z {
		sumExp += math.Exp(float64(v) - maxVal)
	}
	return maxVal + math.Log(sumExp)
}
