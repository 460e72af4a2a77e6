package optim

import (
	"fmt"

	"github.com/born-ml/mnistlinear/internal/autodiff"
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// Minimize runs one optimization step of lossFn with opt.
//
// lossFn is evaluated with the backend's tape recording, the scalar it
// returns is backpropagated, and opt.Step applies the gradients. Every
// tensor allocated during the step is released before Minimize returns,
// except the cost when returnCost is true. The caller then owns the cost
// and must release it. With returnCost false, Minimize returns nil.
//
// Panics if lossFn does not return a scalar.
func Minimize[B autodiff.BackwardCapable](
	backend B,
	opt Optimizer,
	lossFn func() *tensor.Tensor[float32, B],
	returnCost bool,
) *tensor.Tensor[float32, B] {
	var cost *tensor.Tensor[float32, B]

	tensor.Tidy(func(s *tensor.Scope) {
		tape := backend.GetTape()
		tape.Clear()
		tape.StartRecording()
		defer func() {
			tape.StopRecording()
			tape.Clear()
		}()

		loss := lossFn()
		tape.StopRecording()

		if len(loss.Shape()) != 0 {
			panic(fmt.Sprintf("minimize: loss must be a scalar, got shape %v", loss.Shape()))
		}

		grads := autodiff.Backward(loss, backend)
		opt.Step(grads)
		opt.ZeroGrad()

		if returnCost {
			s.Keep(loss.Raw())
			cost = loss
		}
	})

	return cost
}
