package classifier

import (
	"github.com/born-ml/mnistlinear/internal/autodiff"
	"github.com/born-ml/mnistlinear/internal/mnist"
	"github.com/born-ml/mnistlinear/internal/optim"
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// Trainer applies SGD steps to the parameters it owns.
type Trainer[B autodiff.BackwardCapable] struct {
	params  *Parameters[B]
	sgd     *optim.SGD[B]
	backend B
}

// NewTrainer creates a trainer with plain SGD at the given learning rate.
func NewTrainer[B autodiff.BackwardCapable](params *Parameters[B], lr float32, backend B) *Trainer[B] {
	return &Trainer[B]{
		params:  params,
		sgd:     optim.NewSGD(params.List(), optim.SGDConfig{LR: lr}, backend),
		backend: backend,
	}
}

// Params returns the trained parameters.
func (t *Trainer[B]) Params() *Parameters[B] {
	return t.params
}

// LearningRate returns the optimizer's learning rate.
func (t *Trainer[B]) LearningRate() float32 {
	return t.sgd.GetLR()
}

// Step runs one SGD step on batch and updates the weights in place.
//
// With returnCost the scalar loss computed before the update is returned
// and the caller must release it; otherwise Step returns nil. All other
// tensors of the step are released.
func (t *Trainer[B]) Step(batch *mnist.Batch[B], returnCost bool) *tensor.Tensor[float32, B] {
	return optim.Minimize(t.backend, t.sgd, func() *tensor.Tensor[float32, B] {
		return Loss(batch.Labels, Model(t.params, batch.Images))
	}, returnCost)
}

// StepFrom draws a batch from src inside the step, so the batch is
// released with the step's other tensors.
func (t *Trainer[B]) StepFrom(src mnist.Source[B], batchSize int, returnCost bool) *tensor.Tensor[float32, B] {
	return optim.Minimize(t.backend, t.sgd, func() *tensor.Tensor[float32, B] {
		batch := src.NextTrainBatch(batchSize)
		return Loss(batch.Labels, Model(t.params, batch.Images))
	}, returnCost)
}
