package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTidyReleasesIntermediates(t *testing.T) {
	backend := NewMockBackend()
	before := Memory()

	Tidy(func(*Scope) {
		a := Full[float32](Shape{8, 8}, 1, backend)
		b := a.MatMul(a)
		_ = b.Transpose()
		assert.Equal(t, before.LiveBuffers+3, Memory().LiveBuffers)
	})

	assert.Equal(t, before, Memory())
}

func TestTidyKeepWithoutParent(t *testing.T) {
	backend := NewMockBackend()
	before := Memory()

	var kept *Tensor[float32, *MockBackend]
	Tidy(func(s *Scope) {
		kept = Full[float32](Shape{2}, 3, backend)
		_ = kept.MulScalar(2)
		s.Keep(kept.Raw())
	})

	assert.False(t, kept.Raw().Released())
	assert.Equal(t, []float32{3, 3}, kept.DataSync())

	kept.Release()
	assert.Equal(t, before, Memory())
}

func TestNestedScopeKeepMovesToParent(t *testing.T) {
	backend := NewMockBackend()
	before := Memory()

	var inner *Tensor[float32, *MockBackend]
	Tidy(func(*Scope) {
		Tidy(func(s *Scope) {
			inner = Full[float32](Shape{2}, 1, backend)
			_ = inner.MulScalar(2)
			s.Keep(inner.Raw())
		})
		assert.False(t, inner.Raw().Released())
		assert.Equal(t, before.LiveBuffers+1, Memory().LiveBuffers)
	})

	assert.True(t, inner.Raw().Released(), "outer scope owns the kept tensor")
	assert.Equal(t, before, Memory())
}

func TestScopeEndOutOfOrderPanics(t *testing.T) {
	outer := NewScope()
	inner := NewScope()

	assert.Panics(t, func() { outer.End() })

	inner.End()
	outer.End()
	outer.End()
}

func TestTidyReleasesOnPanic(t *testing.T) {
	backend := NewMockBackend()
	before := Memory()

	assert.Panics(t, func() {
		Tidy(func(*Scope) {
			_ = Zeros[float32](Shape{4}, backend)
			panic("boom")
		})
	})

	assert.Equal(t, before, Memory())
}

func TestExplicitReleaseInsideScope(t *testing.T) {
	before := Memory()

	Tidy(func(*Scope) {
		x := Zeros[float32](Shape{4}, NewMockBackend())
		x.Release()
	})

	assert.Equal(t, before, Memory(), "scope release after explicit release is a no-op")
}

func TestPersistSurvivesNestedScopes(t *testing.T) {
	backend := NewMockBackend()
	before := Memory()

	var w *Tensor[float32, *MockBackend]
	Tidy(func(*Scope) {
		Tidy(func(*Scope) {
			w = Full[float32](Shape{2, 2}, 1, backend)
			_ = Zeros[float32](Shape{3}, backend)
			Persist(w.Raw())
		})
	})

	assert.False(t, w.Raw().Released())
	assert.Equal(t, before.LiveBuffers+1, Memory().LiveBuffers)

	w.Release()
	assert.Equal(t, before, Memory())
}
