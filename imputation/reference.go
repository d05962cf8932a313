package imputation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/pkg/errors"
)

// ReferenceImputer fills held-out entries with a fixed baseline vector.
// It is fully deterministic, so estimators clamp their replicate count to
// one when combined with it.
type ReferenceImputer struct {
	reference *mat.VecDense
	d         int
}

// NewReferenceImputer builds an imputer around the given baseline vector,
// typically the dataset's feature means or a domain-specific default row.
func NewReferenceImputer(reference *mat.VecDense) (*ReferenceImputer, error) {
	if reference == nil || reference.Len() == 0 {
		return nil, errors.NewValidationError("reference", "must be a non-empty vector", reference)
	}
	return &ReferenceImputer{
		reference: mat.VecDenseCopyOf(reference),
		d:         reference.Len(),
	}, nil
}

// NumFeatures returns the length of the baseline vector.
func (r *ReferenceImputer) NumFeatures() int { return r.d }

// Deterministic reports true: the fill values never change.
func (r *ReferenceImputer) Deterministic() bool { return true }

// Impute replaces every entry with s=0 by the baseline value of its column.
func (r *ReferenceImputer) Impute(x *mat.Dense, s *mat.Dense) (*mat.Dense, error) {
	n, d := x.Dims()
	if d != r.d {
		return nil, errors.NewDimensionError("ReferenceImputer.Impute", r.d, d, 1)
	}
	sr, sc := s.Dims()
	if sr != n || sc != d {
		return nil, errors.NewDimensionError("ReferenceImputer.Impute", n, sr, 0)
	}

	out := mat.DenseCopyOf(x)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			if s.At(i, j) == 0 {
				out.Set(i, j, r.reference.AtVec(j))
			}
		}
	}
	return out, nil
}
