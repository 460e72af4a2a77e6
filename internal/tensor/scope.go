package tensor

import "sync"

// Scope tracks tensors allocated while it is the innermost open scope and
// releases them when it ends. Tensors passed to Keep survive: they move to
// the parent scope, or become untracked (owned by the caller) when there is
// no parent.
//
// Scopes nest and must be ended in LIFO order.
//
// Example:
//
//	var classes []int32
//	tensor.Tidy(func(s *tensor.Scope) {
//	    logits := images.MatMul(weights)
//	    classes = logits.Argmax(1).DataSync()
//	}) // logits and the argmax result are released here
type Scope struct {
	parent  *Scope
	tracked []*RawTensor
	kept    map[*RawTensor]struct{}
	ended   bool
}

var scopes struct {
	mu      sync.Mutex
	current *Scope
}

// NewScope opens a scope nested in the current one.
// The caller must call End.
func NewScope() *Scope {
	scopes.mu.Lock()
	defer scopes.mu.Unlock()

	s := &Scope{
		parent: scopes.current,
		kept:   make(map[*RawTensor]struct{}),
	}
	scopes.current = s
	return s
}

// Keep marks tensors so they are not released when the scope ends.
func (s *Scope) Keep(raws ...*RawTensor) {
	scopes.mu.Lock()
	defer scopes.mu.Unlock()

	for _, r := range raws {
		if r != nil {
			s.kept[r] = struct{}{}
		}
	}
}

// End releases every tracked tensor that was not kept and closes the scope.
// Ending a scope twice is a no-op.
func (s *Scope) End() {
	scopes.mu.Lock()
	if s.ended {
		scopes.mu.Unlock()
		return
	}
	if scopes.current != s {
		scopes.mu.Unlock()
		panic("tensor: scopes ended out of order")
	}
	s.ended = true
	scopes.current = s.parent

	var toRelease []*RawTensor
	for _, r := range s.tracked {
		if _, ok := s.kept[r]; ok {
			if s.parent != nil {
				s.parent.tracked = append(s.parent.tracked, r)
			}
			continue
		}
		toRelease = append(toRelease, r)
	}
	s.tracked = nil
	scopes.mu.Unlock()

	for _, r := range toRelease {
		r.Release()
	}
}

// Tidy runs fn inside a new scope and releases everything fn allocated
// except the tensors it kept. The scope is ended even if fn panics.
func Tidy(fn func(s *Scope)) {
	s := NewScope()
	defer s.End()
	fn(s)
}

// track registers r with the innermost open scope.
func track(r *RawTensor) {
	scopes.mu.Lock()
	defer scopes.mu.Unlock()

	if scopes.current != nil {
		scopes.current.tracked = append(scopes.current.tracked, r)
	}
}

// Persist removes tensors from every open scope so that no scope releases
// them. Use it for long-lived state such as weights and optimizer buffers
// that may be created while a scope is open. The caller owns the tensors.
func Persist(raws ...*RawTensor) {
	scopes.mu.Lock()
	defer scopes.mu.Unlock()

	drop := make(map[*RawTensor]struct{}, len(raws))
	for _, r := range raws {
		drop[r] = struct{}{}
	}
	for s := scopes.current; s != nil; s = s.parent {
		kept := s.tracked[:0]
		for _, r := range s.tracked {
			if _, ok := drop[r]; !ok {
				kept = append(kept, r)
			}
		}
		clear(s.tracked[len(kept):])
		s.tracked = kept
	}
}
