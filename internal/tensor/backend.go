package tensor

// Backend defines the operations a compute backend provides to the
// classifier. Backends treat shape and dtype violations as fatal
// preconditions and panic.
//
// Implementations:
//   - cpu.CPUBackend: pure Go, rows of MatMul computed in parallel
//   - autodiff.AutodiffBackend: decorator recording differentiable ops
type Backend interface {
	// Element-wise operations on tensors of equal shape.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	MulScalar(x *RawTensor, scalar float32) *RawTensor

	// MatMul multiplies 2-D tensors: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Transpose permutes axes; with no axes it reverses them.
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Argmax returns int32 indices of the maximum along dim.
	// Ties resolve to the lowest index.
	Argmax(x *RawTensor, dim int) *RawTensor

	// SoftmaxCrossEntropy returns the scalar mean over rows of the
	// cross-entropy between labels [N, C] and softmax(logits [N, C]).
	SoftmaxCrossEntropy(labels, logits *RawTensor) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
