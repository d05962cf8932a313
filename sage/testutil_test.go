package sage

import (
	"math/rand"
	"sync"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/dataset"
	"github.com/YuminosukeSato/sagego/imputation"
)

// passthroughModel predicts the first feature column unchanged.
type passthroughModel struct{}

func (passthroughModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, X.At(i, 0))
	}
	return out, nil
}

// sumModel predicts the sum of the first two feature columns.
type sumModel struct{}

func (sumModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, X.At(i, 0)+X.At(i, 1))
	}
	return out, nil
}

// constModel always predicts the same value, so no feature matters.
type constModel struct {
	value float64
}

func (c constModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, c.value)
	}
	return out, nil
}

// countingModel records the row count of every Predict call.
type countingModel struct {
	inner interface {
		Predict(X mat.Matrix) (mat.Matrix, error)
	}
	mu        sync.Mutex
	calls     int
	rowCounts []int
}

func (c *countingModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	c.mu.Lock()
	c.calls++
	c.rowCounts = append(c.rowCounts, n)
	c.mu.Unlock()
	return c.inner.Predict(X)
}

func (c *countingModel) maxRows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	max := 0
	for _, n := range c.rowCounts {
		if n > max {
			max = n
		}
	}
	return max
}

// makeScenario builds the concrete test scenario: d=3, the label equals
// feature 0, features 1 and 2 are independent noise uncorrelated with the
// label, and a marginal imputer is fitted on the feature columns.
func makeScenario(t *testing.T, n int, seed int64) (*dataset.Dataset, *imputation.MarginalImputer) {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x0 := rng.NormFloat64()
		X.Set(i, 0, x0)
		X.Set(i, 1, rng.NormFloat64())
		X.Set(i, 2, rng.NormFloat64())
		y.SetVec(i, x0)
	}

	ds, err := dataset.New(X, y)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}

	imp := imputation.NewMarginalImputer(imputation.WithMarginalSeed(seed + 1))
	if err := imp.Fit(X); err != nil {
		t.Fatalf("imputer.Fit() error = %v", err)
	}
	return ds, imp
}

// symmetricScenario builds a dataset where features 0 and 1 have identical,
// interchangeable effects: the label is their sum and both are iid standard
// normal; feature 2 is noise.
func symmetricScenario(t *testing.T, n int, seed int64) (*dataset.Dataset, *imputation.MarginalImputer) {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x0 := rng.NormFloat64()
		x1 := rng.NormFloat64()
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		X.Set(i, 2, rng.NormFloat64())
		y.SetVec(i, x0+x1)
	}

	ds, err := dataset.New(X, y)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}

	imp := imputation.NewMarginalImputer(imputation.WithMarginalSeed(seed + 1))
	if err := imp.Fit(X); err != nil {
		t.Fatalf("imputer.Fit() error = %v", err)
	}
	return ds, imp
}
