// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package classifier provides the linear softmax digit classifier.
//
// # Basic Usage
//
//	backend := autodiff.New(cpu.New())
//	params := classifier.NewParameters(backend, 42)
//	trainer := classifier.NewTrainer(params, 0.05, backend)
//
//	cost := trainer.Step(batch, true)
//	fmt.Println(cost.Item())
//	cost.Release()
//
//	classes := classifier.Predict(params, images) // []int in [0, 9]
package classifier

import (
	"github.com/born-ml/mnistlinear/autodiff"
	"github.com/born-ml/mnistlinear/internal/classifier"
	"github.com/born-ml/mnistlinear/mnist"
	"github.com/born-ml/mnistlinear/tensor"
)

// WeightsShape is the shape of the weight matrix, [784, 10].
var WeightsShape = classifier.WeightsShape

// Parameters holds the model weights.
type Parameters[B tensor.Backend] = classifier.Parameters[B]

// Trainer applies SGD steps to the parameters it owns.
type Trainer[B autodiff.BackwardCapable] = classifier.Trainer[B]

// NewParameters draws the weights from N(0, 1/sqrt(784)) with a seeded RNG.
func NewParameters[B tensor.Backend](backend B, seed int64) *Parameters[B] {
	return classifier.NewParameters(backend, seed)
}

// NewParametersFrom wraps an existing [784, 10] weight tensor.
func NewParametersFrom[B tensor.Backend](w *tensor.Tensor[float32, B]) *Parameters[B] {
	return classifier.NewParametersFrom(w)
}

// NewTrainer creates a trainer with plain SGD at the given learning rate.
func NewTrainer[B autodiff.BackwardCapable](params *Parameters[B], lr float32, backend B) *Trainer[B] {
	return classifier.NewTrainer(params, lr, backend)
}

// Model computes logits = images @ W for images of shape [N, 784].
func Model[B tensor.Backend](params *Parameters[B], images *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return classifier.Model(params, images)
}

// Loss returns the mean softmax cross-entropy as a scalar tensor.
func Loss[B tensor.Backend](labels, logits *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return classifier.Loss(labels, logits)
}

// ComputeLoss evaluates the loss of params on batch without training.
func ComputeLoss[B tensor.Backend](params *Parameters[B], batch *mnist.Batch[B]) float32 {
	return classifier.ComputeLoss(params, batch)
}

// Predict returns the predicted digit for each row of images.
func Predict[B tensor.Backend](params *Parameters[B], images *tensor.Tensor[float32, B]) []int {
	return classifier.Predict(params, images)
}

// ClassesFromLabel returns the hot column of each row of a one-hot matrix.
func ClassesFromLabel[B tensor.Backend](labels *tensor.Tensor[float32, B]) []int {
	return classifier.ClassesFromLabel(labels)
}

// Accuracy returns the fraction of positions where pred matches truth.
func Accuracy(pred, truth []int) float64 {
	return classifier.Accuracy(pred, truth)
}
