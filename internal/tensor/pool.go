package tensor

import "sync/atomic"

// MemoryStats is a snapshot of the process-wide tensor memory pool.
type MemoryStats struct {
	LiveBuffers int64 // Buffers with at least one live reference.
	LiveBytes   int64 // Bytes held by those buffers.
}

// pool counts every buffer between allocation and final release.
var pool struct {
	buffers atomic.Int64
	bytes   atomic.Int64
}

// Memory returns the current accounting of the tensor memory pool.
//
// Intermediate tensors that are released (explicitly or by a Scope) no
// longer count, so comparing two snapshots around a computation shows
// whether it leaked.
func Memory() MemoryStats {
	return MemoryStats{
		LiveBuffers: pool.buffers.Load(),
		LiveBytes:   pool.bytes.Load(),
	}
}

func poolAcquire(size int) {
	pool.buffers.Add(1)
	pool.bytes.Add(int64(size))
}

func poolRelease(size int) {
	pool.buffers.Add(-1)
	pool.bytes.Add(-int64(size))
}
