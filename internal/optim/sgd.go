package optim

import (
	"github.com/born-ml/mnistlinear/internal/nn"
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Parameters are updated in place: their RawTensor identity never changes,
// so gradient maps keyed by parameter tensors stay valid across steps.
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend    B
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	sgd := optim.NewSGD(params, optim.SGDConfig{LR: 0.05}, backend)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:    backend,
	}
}

// Step performs a single optimization step.
//
// Parameters with no gradient (not in computational graph) are skipped.
// The gradient is also attached to the parameter until ZeroGrad.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		gradTensor := tensor.New[float32, B](grad, s.backend)
		param.SetGrad(gradTensor)

		if s.momentum == 0 {
			s.updateParameter(param, gradTensor)
		} else {
			s.updateParameterWithMomentum(param, gradTensor)
		}
	}
}

// updateParameter performs simple SGD update without momentum.
func (s *SGD[B]) updateParameter(param *nn.Parameter[B], grad *tensor.Tensor[float32, B]) {
	scaled := grad.MulScalar(s.lr)
	defer scaled.Release()

	updated := param.Tensor().Sub(scaled)
	defer updated.Release()

	copy(param.Tensor().Data(), updated.Data())
}

// updateParameterWithMomentum performs SGD update with momentum.
func (s *SGD[B]) updateParameterWithMomentum(param *nn.Parameter[B], grad *tensor.Tensor[float32, B]) {
	velocity, exists := s.velocities[param]
	if !exists {
		velocity = tensor.Zeros[float32](param.Tensor().Shape(), s.backend)
		tensor.Persist(velocity.Raw())
		s.velocities[param] = velocity
	}

	// velocity = momentum * velocity + grad
	decayed := velocity.MulScalar(s.momentum)
	defer decayed.Release()
	next := decayed.Add(grad)
	defer next.Release()
	copy(velocity.Data(), next.Data())

	// param -= lr * velocity
	update := velocity.MulScalar(s.lr)
	defer update.Release()
	updated := param.Tensor().Sub(update)
	defer updated.Release()
	copy(param.Tensor().Data(), updated.Data())
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// Release frees the momentum buffers. Parameters are not touched.
func (s *SGD[B]) Release() {
	for p, v := range s.velocities {
		v.Release()
		delete(s.velocities, p)
	}
}
