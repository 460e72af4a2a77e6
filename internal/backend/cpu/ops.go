package cpu

import (
	"fmt"

	"github.com/born-ml/mnistlinear/internal/tensor"
)

// Add performs element-wise addition of equally shaped float32 tensors.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementWise("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction of equally shaped float32 tensors.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementWise("sub", a, b, func(x, y float32) float32 { return x - y })
}

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	requireFloat32("mul_scalar", x)

	result := cpu.alloc("mul_scalar", x.Shape(), tensor.Float32)
	out := result.AsFloat32()
	for i, v := range x.AsFloat32() {
		out[i] = v * scalar
	}
	return result
}

func (cpu *CPUBackend) elementWise(op string, a, b *tensor.RawTensor, f func(x, y float32) float32) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, a.Shape(), b.Shape()))
	}
	requireFloat32(op, a, b)

	result := cpu.alloc(op, a.Shape(), tensor.Float32)
	out := result.AsFloat32()
	aData, bData := a.AsFloat32(), b.AsFloat32()
	for i := range out {
		out[i] = f(aData[i], bData[i])
	}
	return result
}
