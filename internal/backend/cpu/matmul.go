package cpu

import (
	"fmt"

	"github.com/born-ml/mnistlinear/internal/parallel"
	"github.com/born-ml/mnistlinear/internal/tensor"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N).
// Output rows are split across workers; any shape mismatch panics.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]

	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}
	requireFloat32("matmul", a, b)

	result := cpu.alloc("matmul", tensor.Shape{m, n}, tensor.Float32)
	c, aData, bData := result.AsFloat32(), a.AsFloat32(), b.AsFloat32()

	parallel.ForChunks(m, func(start, end int) {
		matmulRowsFloat32(c, aData, bData, start, end, k, n)
	}, cpu.parallel)

	return result
}

// matmulRowsFloat32 computes rows [start, end) of C = A @ B.
// The i-k-j loop order walks B and C row-wise. Zero entries of A are not
// skipped: 0*NaN and 0*Inf must still reach C.
func matmulRowsFloat32(c, a, b []float32, start, end, k, n int) {
	for i := start; i < end; i++ {
		cRow := c[i*n : (i+1)*n]
		for kIdx := 0; kIdx < k; kIdx++ {
			aik := a[i*k+kIdx]
			bRow := b[kIdx*n : (kIdx+1)*n]
			for j, bv := range bRow {
				cRow[j] += aik * bv
			}
		}
	}
}
