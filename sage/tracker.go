package sage

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/pkg/errors"
)

// ImportanceTracker maintains per-feature running mean and variance over an
// unbounded stream of score observations. It is the only stateful object
// whose lifetime spans the estimation loop: estimators fold every batch of
// per-example scores into one tracker and read the current estimate and its
// uncertainty at any time.
//
// Updates use a batched Welford merge, so the statistics stay numerically
// stable regardless of how many observations accumulate. A tracker is safe
// for concurrent use; batch producers serialize on an internal lock.
type ImportanceTracker struct {
	mu   sync.RWMutex
	d    int
	n    float64
	mean []float64
	m2   []float64 // per-feature sum of squared deviations from the mean
}

// NewImportanceTracker creates a tracker over numFeatures score columns.
// numFeatures must be positive.
func NewImportanceTracker(numFeatures int) *ImportanceTracker {
	return &ImportanceTracker{
		d:    numFeatures,
		mean: make([]float64, numFeatures),
		m2:   make([]float64, numFeatures),
	}
}

// Update folds a batch of per-example scores (n×d) into the running
// statistics. Empty batches are ignored. Scores containing NaN or Inf are
// rejected before any state changes.
func (t *ImportanceTracker) Update(scores mat.Matrix) error {
	r, c := scores.Dims()
	if r == 0 {
		return nil
	}
	if c != t.d {
		return errors.NewDimensionError("ImportanceTracker.Update", t.d, c, 1)
	}
	if err := errors.CheckMatrix("tracker_update", scores, r, c, int(t.Count())); err != nil {
		return err
	}

	// Per-column batch statistics, computed outside the lock.
	batchMean := make([]float64, c)
	batchM2 := make([]float64, c)
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += scores.At(i, j)
		}
		batchMean[j] = sum / float64(r)
		var sq float64
		for i := 0; i < r; i++ {
			diff := scores.At(i, j) - batchMean[j]
			sq += diff * diff
		}
		batchM2[j] = sq
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Chan et al. pairwise merge of (mean, M2) pairs.
	nA := t.n
	nB := float64(r)
	total := nA + nB
	for j := 0; j < c; j++ {
		delta := batchMean[j] - t.mean[j]
		t.mean[j] += delta * nB / total
		t.m2[j] += batchM2[j] + delta*delta*nA*nB/total
	}
	t.n = total
	return nil
}

// Scores returns the current per-feature mean estimate.
func (t *ImportanceTracker) Scores() *mat.VecDense {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]float64, t.d)
	copy(out, t.mean)
	return mat.NewVecDense(t.d, out)
}

// Var returns the current variance of the mean estimator per feature,
// M2/N². Before any observation it reports +Inf so a convergence check can
// never trigger on an empty tracker.
func (t *ImportanceTracker) Var() *mat.VecDense {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]float64, t.d)
	if t.n == 0 {
		for j := range out {
			out[j] = math.Inf(1)
		}
		return mat.NewVecDense(t.d, out)
	}
	for j := range out {
		out[j] = t.m2[j] / (t.n * t.n)
	}
	return mat.NewVecDense(t.d, out)
}

// MaxStdErr returns the square root of the largest per-feature variance of
// the mean estimator, the confidence measure driving anytime stopping.
func (t *ImportanceTracker) MaxStdErr() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.n == 0 {
		return math.Inf(1)
	}
	maxVar := 0.0
	for j := range t.m2 {
		v := t.m2[j] / (t.n * t.n)
		if v > maxVar {
			maxVar = v
		}
	}
	return math.Sqrt(maxVar)
}

// Count returns the number of example observations folded in so far.
func (t *ImportanceTracker) Count() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.n
}
