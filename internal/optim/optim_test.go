package optim_test

import (
	"testing"

	"github.com/born-ml/mnistlinear/internal/autodiff"
	"github.com/born-ml/mnistlinear/internal/backend/cpu"
	"github.com/born-ml/mnistlinear/internal/nn"
	"github.com/born-ml/mnistlinear/internal/optim"
	"github.com/born-ml/mnistlinear/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func scalarParam(t *testing.T, name string, v float32, backend testBackend) *nn.Parameter[testBackend] {
	t.Helper()
	x, err := tensor.FromSlice([]float32{v}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	return nn.NewParameter(name, x)
}

func gradFor(t *testing.T, v float32, backend testBackend) *tensor.RawTensor {
	t.Helper()
	grad, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, backend.Device())
	require.NoError(t, err)
	grad.AsFloat32()[0] = v
	return grad
}

func TestSGD_SimpleUpdate(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 2.0, backend)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param},
		optim.SGDConfig{LR: 0.1},
		backend,
	)

	raw := param.Tensor().Raw()
	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{raw: gradFor(t, 1.0, backend)})

	// x_new = 2.0 - 0.1 * 1.0
	assert.InDelta(t, 1.9, param.Tensor().Data()[0], 1e-6)
	assert.Same(t, raw, param.Tensor().Raw(), "update must be in place")
	assert.NotNil(t, param.Grad())
}

func TestSGD_WithMomentum(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 1.0, backend)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)
	defer optimizer.Release()

	raw := param.Tensor().Raw()

	// v_1 = 1.0, x_1 = 1.0 - 0.1 * 1.0 = 0.9
	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{raw: gradFor(t, 1.0, backend)})
	assert.InDelta(t, 0.9, param.Tensor().Data()[0], 1e-6)

	// v_2 = 0.9 * 1.0 + 1.0 = 1.9, x_2 = 0.9 - 0.1 * 1.9 = 0.71
	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{raw: gradFor(t, 1.0, backend)})
	assert.InDelta(t, 0.71, param.Tensor().Data()[0], 1e-5)
}

func TestSGD_SkipsParamsWithoutGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 3.0, backend)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param}, optim.SGDConfig{LR: 0.1}, backend)
	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	assert.Equal(t, float32(3.0), param.Tensor().Data()[0])
}

func TestSGD_ZeroGrad(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 1.0, backend)

	grad, err := tensor.FromSlice([]float32{5.0}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	param.SetGrad(grad)
	require.NotNil(t, param.Grad())

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param}, optim.SGDConfig{LR: 0.1}, backend)
	optimizer.ZeroGrad()

	assert.Nil(t, param.Grad())
}

func TestSGD_GetLR(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 1.0, backend)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param}, optim.SGDConfig{LR: 0.01}, backend)
	assert.Equal(t, float32(0.01), optimizer.GetLR())

	defaulted := optim.NewSGD([]*nn.Parameter[testBackend]{param}, optim.SGDConfig{}, backend)
	assert.Equal(t, float32(0.01), defaulted.GetLR())
}

// linearProblem is a 2-sample, 2-class softmax regression.
type linearProblem struct {
	images *tensor.Tensor[float32, testBackend]
	labels *tensor.Tensor[float32, testBackend]
	w      *nn.Parameter[testBackend]
}

func newLinearProblem(t *testing.T, backend testBackend) *linearProblem {
	t.Helper()
	images, err := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	labels, err := tensor.FromSlice([]float32{0, 1, 1, 0}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	return &linearProblem{
		images: images,
		labels: labels,
		w:      nn.NewParameter("w", tensor.Zeros[float32](tensor.Shape{2, 2}, backend)),
	}
}

func (p *linearProblem) loss(backend testBackend) func() *tensor.Tensor[float32, testBackend] {
	return func() *tensor.Tensor[float32, testBackend] {
		logits := p.images.MatMul(p.w.Tensor())
		return tensor.New[float32](backend.SoftmaxCrossEntropy(p.labels.Raw(), logits.Raw()), backend)
	}
}

func TestMinimize_DecreasesLoss(t *testing.T) {
	backend := autodiff.New(cpu.New())
	p := newLinearProblem(t, backend)
	sgd := optim.NewSGD([]*nn.Parameter[testBackend]{p.w}, optim.SGDConfig{LR: 0.5}, backend)

	first := optim.Minimize(backend, sgd, p.loss(backend), true)
	require.NotNil(t, first)
	initial := first.Item()
	first.Release()

	// W starts at zero: uniform softmax over 2 classes.
	assert.InDelta(t, 0.6931472, initial, 1e-5)

	var last float32
	for range 20 {
		cost := optim.Minimize(backend, sgd, p.loss(backend), true)
		last = cost.Item()
		cost.Release()
	}
	assert.Less(t, last, initial)
	assert.Equal(t, 0, backend.Tape().NumOps())
	assert.False(t, backend.Tape().IsRecording())
}

func TestMinimize_WithoutCost(t *testing.T) {
	backend := autodiff.New(cpu.New())
	p := newLinearProblem(t, backend)
	sgd := optim.NewSGD([]*nn.Parameter[testBackend]{p.w}, optim.SGDConfig{LR: 0.5}, backend)

	cost := optim.Minimize(backend, sgd, p.loss(backend), false)
	assert.Nil(t, cost)

	// Gradient for W is X^T (softmax - labels) / N with uniform softmax:
	// dW = 0.5 * [[0.5, -0.5], [-0.5, 0.5]], so W moves by -lr * dW.
	assert.InDeltaSlice(t, []float32{-0.125, 0.125, 0.125, -0.125}, p.w.Tensor().Data(), 1e-6)
}

func TestMinimize_ReleasesIntermediates(t *testing.T) {
	backend := autodiff.New(cpu.New())
	p := newLinearProblem(t, backend)
	sgd := optim.NewSGD([]*nn.Parameter[testBackend]{p.w}, optim.SGDConfig{LR: 0.5}, backend)

	before := tensor.Memory()
	_ = optim.Minimize(backend, sgd, p.loss(backend), false)
	assert.Equal(t, before, tensor.Memory())

	cost := optim.Minimize(backend, sgd, p.loss(backend), true)
	assert.Equal(t, before.LiveBuffers+1, tensor.Memory().LiveBuffers)
	cost.Release()
	assert.Equal(t, before, tensor.Memory())
}

func TestMinimize_NonScalarLossPanics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	p := newLinearProblem(t, backend)
	sgd := optim.NewSGD([]*nn.Parameter[testBackend]{p.w}, optim.SGDConfig{LR: 0.5}, backend)

	before := tensor.Memory()
	assert.Panics(t, func() {
		optim.Minimize(backend, sgd, func() *tensor.Tensor[float32, testBackend] {
			return p.images.MatMul(p.w.Tensor())
		}, false)
	})
	assert.Equal(t, before, tensor.Memory())
	assert.False(t, backend.Tape().IsRecording())
}
