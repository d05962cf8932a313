// Package imputation provides the strategies that make a masked batch
// scoreable: every feature the mask holds out is filled in, either by
// sampling from the feature's marginal distribution or with a fixed
// reference value. The estimators only ever see the Imputer interface.
package imputation

import (
	"gonum.org/v1/gonum/mat"
)

// Imputer fills entries of x where the mask s is zero. Entries with s=1 are
// passed through untouched. Implementations are the closed set of recognized
// variants: MarginalImputer and ReferenceImputer.
type Imputer interface {
	// Impute returns a fresh matrix: x with every masked-out entry filled.
	// x and s must have matching n×d shapes; s entries are 0 or 1.
	Impute(x *mat.Dense, s *mat.Dense) (*mat.Dense, error)

	// Deterministic reports whether repeated calls with the same inputs
	// yield identical outputs. Deterministic imputers force the estimator's
	// replicate count down to one, since there is no draw variance to
	// average over.
	Deterministic() bool

	// NumFeatures returns the feature dimension the imputer fills, or 0 if
	// it is not ready for use yet.
	NumFeatures() int
}
