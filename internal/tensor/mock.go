package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a naive single-threaded backend that computes in float64.
// It serves as the reference when checking optimised backends.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// MulScalar multiplies every element by scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar float32) *RawTensor {
	result := m.alloc(x.Shape(), Float32)
	out := result.AsFloat32()
	for i, v := range x.AsFloat32() {
		out[i] = float32(float64(v) * float64(scalar))
	}
	return result
}

func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("mock: shape mismatch %v vs %v", a.Shape(), b.Shape()))
	}
	result := m.alloc(a.Shape(), Float32)
	out := result.AsFloat32()
	bData := b.AsFloat32()
	for i, v := range a.AsFloat32() {
		out[i] = float32(op(float64(v), float64(bData[i])))
	}
	return result
}

// MatMul performs naive matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 || aShape[1] != bShape[0] {
		panic(fmt.Sprintf("mock: matmul shape mismatch %v @ %v", aShape, bShape))
	}
	rows, inner, cols := aShape[0], aShape[1], bShape[1]

	result := m.alloc(Shape{rows, cols}, Float32)
	out := result.AsFloat32()
	aData, bData := a.AsFloat32(), b.AsFloat32()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var sum float64
			for k := 0; k < inner; k++ {
				sum += float64(aData[i*inner+k]) * float64(bData[k*cols+j])
			}
			out[i*cols+j] = float32(sum)
		}
	}
	return result
}

// Transpose swaps the two axes of a 2-D tensor.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()
	if len(shape) != 2 {
		panic("mock: transpose supports 2-D tensors only")
	}
	if len(axes) != 0 && (len(axes) != 2 || axes[0] != 1 || axes[1] != 0) {
		panic(fmt.Sprintf("mock: unsupported transpose axes %v", axes))
	}
	rows, cols := shape[0], shape[1]

	result := m.alloc(Shape{cols, rows}, Float32)
	out := result.AsFloat32()
	in := t.AsFloat32()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = in[i*cols+j]
		}
	}
	return result
}

// Argmax returns the index of the first maximum along dim of a 2-D tensor.
func (m *MockBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	if len(shape) != 2 || (dim != 0 && dim != 1) {
		panic("mock: argmax supports 2-D tensors only")
	}
	rows, cols := shape[0], shape[1]
	values := m.asFloat64(x)

	at := func(i, j int) float64 { return values[i*cols+j] }
	outer, inner := rows, cols
	if dim == 0 {
		outer, inner = cols, rows
		at = func(j, i int) float64 { return values[i*cols+j] }
	}

	result := m.alloc(Shape{outer}, Int32)
	out := result.AsInt32()
	for o := 0; o < outer; o++ {
		best := 0
		for i := 1; i < inner; i++ {
			if at(o, i) > at(o, best) {
				best = i
			}
		}
		out[o] = int32(best)
	}
	return result
}

// SoftmaxCrossEntropy computes the mean cross-entropy by direct
// normalisation of exp(logits) in float64.
func (m *MockBackend) SoftmaxCrossEntropy(labels, logits *RawTensor) *RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 || !labels.Shape().Equal(shape) {
		panic(fmt.Sprintf("mock: cross-entropy shape mismatch %v vs %v", labels.Shape(), shape))
	}
	rows, cols := shape[0], shape[1]
	z, y := logits.AsFloat32(), labels.AsFloat32()

	var total float64
	for i := 0; i < rows; i++ {
		var norm float64
		for j := 0; j < cols; j++ {
			norm += math.Exp(float64(z[i*cols+j]))
		}
		for j := 0; j < cols; j++ {
			p := math.Exp(float64(z[i*cols+j])) / norm
			total -= float64(y[i*cols+j]) * math.Log(p)
		}
	}

	result := m.alloc(Shape{}, Float32)
	result.AsFloat32()[0] = float32(total / float64(rows))
	return result
}

func (m *MockBackend) alloc(shape Shape, dtype DataType) *RawTensor {
	result, err := NewRaw(shape, dtype, m.Device())
	if err != nil {
		panic(err)
	}
	return result
}

func (m *MockBackend) asFloat64(x *RawTensor) []float64 {
	out := make([]float64, x.NumElements())
	switch x.DType() {
	case Float32:
		for i, v := range x.AsFloat32() {
			out[i] = float64(v)
		}
	case Int32:
		for i, v := range x.AsInt32() {
			out[i] = float64(v)
		}
	}
	return out
}
