package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// tensorBuffer is a reference-counted buffer shared by RawTensor handles.
// Its storage is dropped and returned to the pool accounting when the last
// handle is released.
type tensorBuffer struct {
	data     []byte
	size     int
	refCount atomic.Int32
	mu       sync.Mutex
}

// newTensorBuffer creates a new buffer with refCount = 1.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
		size: size,
	}
	buf.refCount.Store(1)
	poolAcquire(size)
	return buf
}

func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
		poolRelease(tb.size)
	}
}

// RawTensor is the untyped tensor representation shared with backends.
// Several RawTensor handles may point at one buffer (see Clone); each handle
// is released at most once.
type RawTensor struct {
	buffer   *tensorBuffer
	shape    Shape
	stride   []int
	dtype    DataType
	device   Device
	released atomic.Bool
}

// NewRaw creates a new zero-filled RawTensor with the given shape and type.
// The tensor is tracked by the innermost open Scope, if any.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	r := &RawTensor{
		buffer: newTensorBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}
	track(r)
	return r, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's row-major strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

func (r *RawTensor) bytes() []byte {
	if r.released.Load() {
		panic("tensor: use after release")
	}
	return r.buffer.data
}

// AsFloat32 interprets the data as []float32 (zero-copy).
// Panics if the tensor's dtype is not Float32 or the tensor was released.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	data := r.bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32 (zero-copy).
// Panics if the tensor's dtype is not Int32 or the tensor was released.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	data := r.bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// Clone returns a new handle sharing the same buffer.
// The clone holds its own reference and must be released separately.
func (r *RawTensor) Clone() *RawTensor {
	if r.released.Load() {
		panic("tensor: clone after release")
	}
	r.buffer.addRef()
	c := &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
	track(c)
	return c
}

// Release drops this handle's reference to the buffer.
// Releasing the same handle again is a no-op.
func (r *RawTensor) Release() {
	if r.released.Swap(true) {
		return
	}
	r.buffer.release()
}

// Released reports whether this handle has been released.
func (r *RawTensor) Released() bool {
	return r.released.Load()
}

