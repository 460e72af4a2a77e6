// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensors used by the classifier.
//
// The package defines core types for type-safe tensor operations:
//   - Tensor[T, B]: High-level generic tensor with type safety
//   - RawTensor: Low-level reference-counted storage
//   - Backend: Interface for compute implementations
//   - Scope, Tidy: Scoped release of intermediate tensors
//
// Example:
//
//	backend := cpu.New()
//	tensor.Tidy(func(s *tensor.Scope) {
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := x.Transpose() // released with x when Tidy returns
//	})
package tensor

import (
	"math/rand"

	"github.com/born-ml/mnistlinear/internal/tensor"
)

// DType is a constraint for tensor data types (float32, int32).
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Int32   DataType = tensor.Int32
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the only device.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor. The empty shape is a scalar.
type Shape = tensor.Shape

// Backend defines the operations a compute backend implements.
type Backend = tensor.Backend

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Zero-copy data access via AsFloat32(), AsInt32()
//   - Reference counting via Clone() and Release()
//
// Most users should use the high-level Tensor[T, B] type instead.
type RawTensor = tensor.RawTensor

// Tensor is a generic type-safe tensor.
//
// T is the data type (float32, int32). B is the backend implementation.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Scope tracks tensors allocated while it is open. See Tidy.
type Scope = tensor.Scope

// MemoryStats reports live tensor storage.
type MemoryStats = tensor.MemoryStats

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// RandNormal creates a float32 tensor with values drawn from N(mean, std²).
func RandNormal[B Backend](shape Shape, mean, std float64, rng *rand.Rand, b B) *Tensor[float32, B] {
	return tensor.RandNormal(shape, mean, std, rng, b)
}

// FromSlice creates a tensor from a Go slice.
//
// Example:
//
//	backend := cpu.New()
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New creates a tensor from a raw tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw creates a new raw tensor with the given shape, dtype, and device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// NewScope opens a scope nested in the current one. The caller must call End.
func NewScope() *Scope {
	return tensor.NewScope()
}

// Tidy runs fn inside a new scope and releases everything fn allocated
// except the tensors it kept.
func Tidy(fn func(s *Scope)) {
	tensor.Tidy(fn)
}

// Persist removes tensors from every open scope. The caller owns them.
func Persist(raws ...*RawTensor) {
	tensor.Persist(raws...)
}

// Memory returns the current live tensor storage.
func Memory() MemoryStats {
	return tensor.Memory()
}
