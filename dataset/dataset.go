// Package dataset provides the in-memory tabular data source the estimators
// stream minibatches from: sequential batching for the baseline passes and
// random sampling with replacement for the Monte Carlo loops.
package dataset

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/pkg/errors"
)

// Batch is one minibatch of examples. X holds the feature rows (n×d) and
// Y the aligned labels.
type Batch struct {
	X *mat.Dense
	Y *mat.VecDense
}

// Len returns the number of examples in the batch.
func (b *Batch) Len() int {
	if b == nil || b.X == nil {
		return 0
	}
	r, _ := b.X.Dims()
	return r
}

// Dataset is an in-memory tabular dataset: feature rows plus one label per row.
type Dataset struct {
	x *mat.Dense
	y *mat.VecDense
	n int
	d int
}

// New validates the feature matrix against the labels and builds a Dataset.
// The data is not copied; callers must not mutate X or y afterwards.
func New(X *mat.Dense, y *mat.VecDense) (*Dataset, error) {
	if X == nil || y == nil {
		return nil, errors.NewValidationError("X/y", "must be non-nil", nil)
	}
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return nil, errors.NewModelError("dataset.New", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError("dataset.New", n, y.Len(), 0)
	}
	return &Dataset{x: X, y: y, n: n, d: d}, nil
}

// Len returns the number of examples.
func (ds *Dataset) Len() int { return ds.n }

// NumFeatures returns the number of feature columns.
func (ds *Dataset) NumFeatures() int { return ds.d }

// Features returns the underlying feature matrix as a read-only view.
// Imputers fit their marginal distributions on it.
func (ds *Dataset) Features() mat.Matrix { return ds.x }

// gather copies the rows at the given indices into a fresh batch.
func (ds *Dataset) gather(indices []int) *Batch {
	n := len(indices)
	x := mat.NewDense(n, ds.d, nil)
	y := mat.NewVecDense(n, nil)
	for i, idx := range indices {
		x.SetRow(i, ds.x.RawRowView(idx))
		y.SetVec(i, ds.y.AtVec(idx))
	}
	return &Batch{X: x, Y: y}
}

// SequentialBatches streams the dataset in order, one batch at a time.
// The final batch may be smaller than batchSize.
type SequentialBatches struct {
	ds        *Dataset
	batchSize int
	pos       int
}

// Batches returns a sequential iterator over the dataset. batchSize must be
// positive; larger than Len() yields a single batch.
func (ds *Dataset) Batches(batchSize int) *SequentialBatches {
	return &SequentialBatches{ds: ds, batchSize: batchSize}
}

// Next returns the next batch, or (nil, false) once the dataset is exhausted.
func (it *SequentialBatches) Next() (*Batch, bool) {
	if it.pos >= it.ds.n {
		return nil, false
	}
	end := it.pos + it.batchSize
	if end > it.ds.n {
		end = it.ds.n
	}
	indices := make([]int, end-it.pos)
	for i := range indices {
		indices[i] = it.pos + i
	}
	it.pos = end
	return it.ds.gather(indices), true
}

// Reset rewinds the iterator to the start of the dataset.
func (it *SequentialBatches) Reset() { it.pos = 0 }

// Sampler draws minibatches of examples with replacement until a total draw
// budget is consumed. The final batch may be smaller than batchSize.
type Sampler struct {
	ds        *Dataset
	batchSize int
	budget    int
	drawn     int
	rng       *rand.Rand
}

// Sampler returns a with-replacement random batch source over the dataset.
// budget is the total number of example draws; rng drives the sampling and
// must not be shared with another concurrent consumer.
func (ds *Dataset) Sampler(batchSize, budget int, rng *rand.Rand) *Sampler {
	return &Sampler{ds: ds, batchSize: batchSize, budget: budget, rng: rng}
}

// Next returns the next random batch, or (nil, false) once the budget is spent.
func (s *Sampler) Next() (*Batch, bool) {
	remaining := s.budget - s.drawn
	if remaining <= 0 {
		return nil, false
	}
	n := s.batchSize
	if n > remaining {
		n = remaining
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = s.rng.Intn(s.ds.n)
	}
	s.drawn += n
	return s.ds.gather(indices), true
}

// Drawn returns the number of example draws consumed so far.
func (s *Sampler) Drawn() int { return s.drawn }
