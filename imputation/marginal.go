package imputation

import (
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/core/model"
	"github.com/YuminosukeSato/sagego/pkg/errors"
)

// MarginalImputer fills held-out entries by sampling each one independently
// from that feature's empirical marginal distribution over the fitted data.
// Each masked entry draws its own random row, so features are imputed
// independently of each other.
type MarginalImputer struct {
	model.BaseEstimator

	data  *mat.Dense
	nRows int
	d     int

	// rng is shared across Impute calls; the mutex keeps draws valid when
	// per-feature estimation loops run concurrently.
	mu  sync.Mutex
	rng *rand.Rand
}

// MarginalOption configures a MarginalImputer.
type MarginalOption func(*MarginalImputer)

// WithMarginalSeed fixes the imputer's random stream for reproducible runs.
func WithMarginalSeed(seed int64) MarginalOption {
	return func(m *MarginalImputer) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

// NewMarginalImputer creates an unfitted MarginalImputer. Call Fit with the
// background data before use.
func NewMarginalImputer(opts ...MarginalOption) *MarginalImputer {
	m := &MarginalImputer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fit stores the background data whose columns define the marginal
// distributions. The data is copied so later mutation of X is safe.
func (m *MarginalImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MarginalImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	m.data = mat.DenseCopyOf(X)
	m.nRows = r
	m.d = c
	m.SetFitted()
	return nil
}

// NumFeatures returns the fitted feature dimension, or 0 before Fit.
func (m *MarginalImputer) NumFeatures() int {
	if !m.IsFitted() {
		return 0
	}
	return m.d
}

// Deterministic reports false: every Impute call draws fresh samples.
func (m *MarginalImputer) Deterministic() bool { return false }

// Impute fills every entry with s=0 by sampling that column's empirical
// distribution. The output is a fresh matrix; x is never written to.
func (m *MarginalImputer) Impute(x *mat.Dense, s *mat.Dense) (*mat.Dense, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MarginalImputer", "Impute")
	}
	n, d := x.Dims()
	if d != m.d {
		return nil, errors.NewDimensionError("MarginalImputer.Impute", m.d, d, 1)
	}
	sr, sc := s.Dims()
	if sr != n || sc != d {
		return nil, errors.NewDimensionError("MarginalImputer.Impute", n, sr, 0)
	}

	out := mat.DenseCopyOf(x)

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			if s.At(i, j) == 0 {
				out.Set(i, j, m.data.At(m.rng.Intn(m.nRows), j))
			}
		}
	}
	return out, nil
}
