// Package metrics provides the per-example loss functions the estimators
// attribute to individual features. Losses are unreduced: they return one
// value per example so the estimation loops can fold them into running
// statistics at example granularity.
package metrics

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/pkg/errors"
)

// Loss computes an unreduced, per-example loss for a prediction matrix
// (n×k) against the labels (length n). For regression k is 1; for
// classification the columns are class probabilities and the labels are
// class indices.
type Loss func(pred mat.Matrix, y *mat.VecDense) (*mat.VecDense, error)

// LossByName resolves a loss function by its string descriptor.
// Recognized names: "mse" (alias "squared_error") and "cross_entropy"
// (alias "log_loss"). Matching is case-insensitive.
func LossByName(name string) (Loss, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mse", "squared_error":
		return SquaredError, nil
	case "cross_entropy", "cross entropy", "log_loss":
		return CrossEntropy, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownLoss, "LossByName(%q)", name)
	}
}

// SquaredError returns the per-example squared error (pred − y)².
// Predictions must be a single output column.
func SquaredError(pred mat.Matrix, y *mat.VecDense) (*mat.VecDense, error) {
	n, k := pred.Dims()
	if n == 0 {
		return nil, errors.NewValueError("SquaredError", "empty prediction")
	}
	if k != 1 {
		return nil, errors.NewValueError("SquaredError", "predictions must be a single output column")
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError("SquaredError", n, y.Len(), 0)
	}

	loss := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		diff := pred.At(i, 0) - y.AtVec(i)
		loss.SetVec(i, diff*diff)
	}
	return loss, nil
}

// epsLog keeps log() away from zero probabilities.
const epsLog = 1e-12

// CrossEntropy returns the per-example negative log-likelihood
// −log p[i, y_i], where pred holds class probabilities (n×k) and y holds
// integer class indices stored as float64.
func CrossEntropy(pred mat.Matrix, y *mat.VecDense) (*mat.VecDense, error) {
	n, k := pred.Dims()
	if n == 0 || k == 0 {
		return nil, errors.NewValueError("CrossEntropy", "empty prediction")
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError("CrossEntropy", n, y.Len(), 0)
	}

	loss := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		class := int(y.AtVec(i))
		if class < 0 || class >= k {
			return nil, errors.NewValueError("CrossEntropy", "label out of class range")
		}
		p := pred.At(i, class)
		if p < epsLog {
			p = epsLog
		}
		loss.SetVec(i, -math.Log(p))
	}
	return loss, nil
}

// MeanLoss reduces an unreduced loss vector to its mean. It is the reduction
// used by the baseline total estimator when combining batches.
func MeanLoss(loss *mat.VecDense) (float64, error) {
	n := loss.Len()
	if n == 0 {
		return 0, errors.NewValueError("MeanLoss", "empty vector")
	}
	rv := loss.RawVector()
	if rv.Inc == 1 {
		return floats.Sum(rv.Data) / float64(n), nil
	}
	return mat.Sum(loss) / float64(n), nil
}
