// Package optim implements optimization algorithms for training.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Minimize: one recorded forward/backward/update step
//
// Example usage:
//
//	sgd := optim.NewSGD(params, optim.SGDConfig{LR: 0.05}, backend)
//	cost := optim.Minimize(backend, sgd, func() *tensor.Tensor[float32, B] {
//	    return loss(labels, model(images))
//	}, true)
package optim

import (
	"github.com/born-ml/mnistlinear/internal/nn"
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update model parameters based on computed gradients to
// minimize the loss function during training.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Takes a gradient map from Backward() and updates parameters in-place.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// getGradient retrieves the gradient for a parameter.
//
// Returns nil if the parameter was not part of the computation graph.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
