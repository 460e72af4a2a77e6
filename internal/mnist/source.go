package mnist

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/mnistlinear/internal/tensor"
)

// Default train/test split sizes.
const (
	DefaultTrainSize = 55000
	DefaultTestSize  = 10000
)

// Source supplies training batches.
//
// Each call returns a fresh Batch that the caller owns. Batches created
// inside a tensor.Scope are released with it.
type Source[B tensor.Backend] interface {
	NextTrainBatch(batchSize int) *Batch[B]
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Seed drives the one-time shuffle of the training order.
	Seed int64
	// TrainSize and TestSize set the split. When both are zero the split is
	// DefaultTrainSize/DefaultTestSize if the dataset is large enough, and
	// the same 55:10 ratio otherwise.
	TrainSize int
	TestSize  int
	// Sequential serves training samples in dataset order. The last batch
	// of a pass may then be short, and the next call starts a new pass.
	Sequential bool
}

// Loader serves batches from a dataset split into train and test parts.
//
// Training batches follow a shuffled order and wrap around at the end,
// unless the loader is sequential. Test batches are sequential: the last batch of a pass may be short, and
// the next call starts again from the first sample.
type Loader[B tensor.Backend] struct {
	train   *Dataset
	test    *Dataset
	order      []int
	next       int
	testPos    int
	sequential bool
	backend    B
}

// NewLoader splits ds and prepares shuffled training order.
func NewLoader[B tensor.Backend](ds *Dataset, backend B, opts LoaderOptions) (*Loader[B], error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	trainSize, testSize := opts.TrainSize, opts.TestSize
	if trainSize == 0 && testSize == 0 {
		trainSize, testSize = defaultSplit(ds.Len())
	}
	if trainSize <= 0 || testSize <= 0 {
		return nil, fmt.Errorf("mnist: need at least one train and one test sample, got %d/%d", trainSize, testSize)
	}
	if trainSize+testSize > ds.Len() {
		return nil, fmt.Errorf("mnist: split %d+%d exceeds %d samples", trainSize, testSize, ds.Len())
	}

	train, rest := ds.Split(trainSize)
	test, _ := rest.Split(testSize)

	var order []int
	if opts.Sequential {
		order = make([]int, train.Len())
		for i := range order {
			order[i] = i
		}
	} else {
		//nolint:gosec // Using math/rand for reproducible shuffling (not security-critical)
		rng := rand.New(rand.NewSource(opts.Seed))
		order = rng.Perm(train.Len())
	}

	return &Loader[B]{
		train:      train,
		test:       test,
		order:      order,
		sequential: opts.Sequential,
		backend:    backend,
	}, nil
}

func defaultSplit(n int) (train, test int) {
	if n >= DefaultTrainSize+DefaultTestSize {
		return DefaultTrainSize, DefaultTestSize
	}
	train = n * DefaultTrainSize / (DefaultTrainSize + DefaultTestSize)
	return train, n - train
}

// TrainLen returns the number of training samples.
func (l *Loader[B]) TrainLen() int {
	return l.train.Len()
}

// TestLen returns the number of test samples.
func (l *Loader[B]) TestLen() int {
	return l.test.Len()
}

// NextTrainBatch returns the next batchSize samples of the training order.
// A sequential loader returns fewer at the end of a pass.
// Panics if batchSize is not positive.
func (l *Loader[B]) NextTrainBatch(batchSize int) *Batch[B] {
	if batchSize <= 0 {
		panic(fmt.Sprintf("mnist: invalid batch size %d", batchSize))
	}

	n := batchSize
	if l.sequential {
		n = min(batchSize, len(l.order)-l.next)
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = l.order[l.next]
		l.next = (l.next + 1) % len(l.order)
	}
	return NewBatch(l.train, indices, l.backend)
}

// NextTestBatch returns up to batchSize test samples in order.
// Panics if batchSize is not positive.
func (l *Loader[B]) NextTestBatch(batchSize int) *Batch[B] {
	if batchSize <= 0 {
		panic(fmt.Sprintf("mnist: invalid batch size %d", batchSize))
	}

	n := min(batchSize, l.test.Len()-l.testPos)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = l.testPos + i
	}
	l.testPos = (l.testPos + n) % l.test.Len()
	return NewBatch(l.test, indices, l.backend)
}

// FixedSource returns the same batch on every call, whatever the requested
// size. It makes training runs fully deterministic.
type FixedSource[B tensor.Backend] struct {
	batch *Batch[B]
}

// NewFixedSource takes ownership of batch.
func NewFixedSource[B tensor.Backend](batch *Batch[B]) *FixedSource[B] {
	tensor.Persist(batch.Images.Raw(), batch.Labels.Raw())
	return &FixedSource[B]{batch: batch}
}

// NextTrainBatch returns a handle to the fixed batch. Releasing it does not
// affect the source.
func (s *FixedSource[B]) NextTrainBatch(int) *Batch[B] {
	return s.batch.clone()
}

// Release frees the fixed batch.
func (s *FixedSource[B]) Release() {
	s.batch.Release()
}
