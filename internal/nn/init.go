package nn

import (
	"math/rand"

	"github.com/born-ml/mnistlinear/internal/tensor"
)

// RandomNormal creates a tensor with values drawn from N(mean, std²).
//
// The draw is reproducible for a given rng seed.
//
// Parameters:
//   - shape: Shape of the tensor
//   - mean, std: Distribution parameters
//   - rng: Random source
//   - backend: Backend to use for tensor creation
func RandomNormal[B tensor.Backend](shape tensor.Shape, mean, std float64, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return tensor.RandNormal(shape, mean, std, rng, backend)
}

// Zeros creates a tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}
