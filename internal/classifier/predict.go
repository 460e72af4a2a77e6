package classifier

import (
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// Predict returns the predicted digit for each row of images.
//
// Ties go to the lowest class index, so an all-zero image predicts 0.
// Every tensor allocated here is released before returning.
func Predict[B tensor.Backend](params *Parameters[B], images *tensor.Tensor[float32, B]) []int {
	var classes []int
	tensor.Tidy(func(*tensor.Scope) {
		classes = argmaxRows(Model(params, images))
	})
	return classes
}

// ClassesFromLabel returns the hot column of each row of a one-hot (or
// logits) matrix.
func ClassesFromLabel[B tensor.Backend](labels *tensor.Tensor[float32, B]) []int {
	var classes []int
	tensor.Tidy(func(*tensor.Scope) {
		classes = argmaxRows(labels)
	})
	return classes
}

func argmaxRows[B tensor.Backend](x *tensor.Tensor[float32, B]) []int {
	idx := x.Argmax(1).Data()
	classes := make([]int, len(idx))
	for i, c := range idx {
		classes[i] = int(c)
	}
	return classes
}

// Accuracy returns the fraction of positions where pred matches truth.
// Returns 0 for empty input. Panics if the lengths differ.
func Accuracy(pred, truth []int) float64 {
	if len(pred) != len(truth) {
		panic("classifier: accuracy over slices of different length")
	}
	if len(pred) == 0 {
		return 0
	}
	var correct int
	for i := range pred {
		if pred[i] == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(pred))
}
