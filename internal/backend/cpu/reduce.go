package cpu

import (
	"fmt"

	"github.com/born-ml/mnistlinear/internal/parallel"
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// Argmax returns the index of the maximum value along the specified dimension.
// The reduced dimension is removed from the result shape. Ties resolve to
// the lowest index, so a constant row yields 0.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("argmax: dimension %d out of range for %dD tensor", dim, ndim))
	}

	outShape := make(tensor.Shape, 0, ndim-1)
	for i := 0; i < ndim; i++ {
		if i != dim {
			outShape = append(outShape, shape[i])
		}
	}

	result := cpu.alloc("argmax", outShape, tensor.Int32)
	switch x.DType() {
	case tensor.Float32:
		argmax(x.AsFloat32(), result.AsInt32(), shape, dim, cpu.parallel)
	case tensor.Int32:
		argmax(x.AsInt32(), result.AsInt32(), shape, dim, cpu.parallel)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}
	return result
}

// argmax reduces each outer block in parallel.
func argmax[T float32 | int32](data []T, result []int32, shape tensor.Shape, dim int, cfg parallel.Config) {
	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	// Elements after dim form the inner block; before dim the outer one.
	inner := dimStride
	outer := len(data) / (dimSize * inner)

	parallel.For(outer, func(o int) {
		base := o * dimSize * inner
		for in := 0; in < inner; in++ {
			start := base + in
			best := 0
			bestVal := data[start]
			for i := 1; i < dimSize; i++ {
				if v := data[start+i*dimStride]; v > bestVal {
					best, bestVal = i, v
				}
			}
			result[o*inner+in] = int32(best)
		}
	}, cfg)
}
