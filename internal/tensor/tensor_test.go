package tensor

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeSize(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 4, Int32.Size())
	assert.Equal(t, "float32", Float32.String())
	assert.Equal(t, "int32", Int32.String())
}

func TestShape(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())
	assert.True(t, s.Equal(s.Clone()))
	assert.False(t, s.Equal(Shape{2, 3}))

	assert.Equal(t, 1, Shape{}.NumElements(), "scalar has one element")
	assert.NoError(t, Shape{}.Validate())
	assert.Error(t, Shape{3, 0}.Validate())
}

func TestFromSlice(t *testing.T) {
	backend := NewMockBackend()

	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, float32(6), x.At(1, 2))
	assert.Equal(t, float32(2), x.At(0, 1))

	_, err = FromSlice([]float32{1, 2, 3}, Shape{2, 2}, backend)
	assert.Error(t, err)
}

func TestItemRequiresScalar(t *testing.T) {
	backend := NewMockBackend()

	s := Scalar[float32](2.5, backend)
	assert.Equal(t, float32(2.5), s.Item())

	v := Zeros[float32](Shape{1}, backend)
	assert.Panics(t, func() { v.Item() })
}

func TestAtOutOfBounds(t *testing.T) {
	x := Zeros[float32](Shape{2, 2}, NewMockBackend())
	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })
}

func TestDataSyncCopies(t *testing.T) {
	x := Full[float32](Shape{3}, 1, NewMockBackend())
	host := x.DataSync()
	host[0] = 42
	assert.Equal(t, float32(1), x.At(0))
}

func TestAwait(t *testing.T) {
	x := Full[int32](Shape{2}, 7, NewMockBackend())

	values, err := x.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 7}, values)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = x.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRandNormalMoments(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	std := 1 / math.Sqrt(784)
	w := RandNormal(Shape{784, 10}, 0, std, rng, NewMockBackend())

	var sum, sumSq float64
	for _, v := range w.Data() {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	n := float64(w.NumElements())
	mean := sum / n
	variance := sumSq/n - mean*mean

	assert.InDelta(t, 0, mean, 0.005)
	assert.InDelta(t, std, math.Sqrt(variance), 0.003)
}

func TestRandNormalSeeded(t *testing.T) {
	backend := NewMockBackend()
	a := RandNormal(Shape{4, 4}, 0, 1, rand.New(rand.NewSource(9)), backend)
	b := RandNormal(Shape{4, 4}, 0, 1, rand.New(rand.NewSource(9)), backend)
	assert.Equal(t, a.DataSync(), b.DataSync())
}

func TestTensorOpsDelegateToBackend(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)
	b, _ := FromSlice([]float32{1, 0, 0, 1}, Shape{2, 2}, backend)

	assert.Equal(t, []float32{1, 2, 3, 4}, a.MatMul(b).DataSync())
	assert.Equal(t, []float32{1, 3, 2, 4}, a.Transpose().DataSync())
	assert.Equal(t, []float32{0, 2, 3, 3}, a.Sub(b).DataSync())
	assert.Equal(t, []float32{2, 2, 3, 5}, a.Add(b).DataSync())
	assert.Equal(t, []float32{2, 4, 6, 8}, a.MulScalar(2).DataSync())
	assert.Equal(t, []int32{1, 1}, a.Argmax(1).DataSync())
}
