package sage

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/core/model"
	"github.com/YuminosukeSato/sagego/core/parallel"
	"github.com/YuminosukeSato/sagego/dataset"
	"github.com/YuminosukeSato/sagego/imputation"
	"github.com/YuminosukeSato/sagego/pkg/errors"
	"github.com/YuminosukeSato/sagego/pkg/log"
)

// IteratedEstimator estimates SAGE values one feature at a time. For each
// feature it samples random coalitions of the remaining features, evaluates
// the loss with the target feature excluded and then included while the
// coalition is held fixed, and averages the differences in a per-feature
// tracker with its own convergence check.
//
// The per-feature loops are fully independent (separate trackers, separate
// random streams) and may run concurrently via WithParallel. With a
// deterministic imputation module and a fixed seed, the parallel and
// sequential executions produce identical scores.
type IteratedEstimator struct {
	core estimatorCore
}

// NewIteratedEstimator validates the model, imputation module, and loss
// descriptor, and applies the options. A deterministic imputation module
// combined with a replicate count other than 1 is clamped with a non-fatal
// warning.
func NewIteratedEstimator(predictor model.Predictor, imputer imputation.Imputer, loss string, opts ...Option) (*IteratedEstimator, error) {
	core, err := newEstimatorCore("IteratedEstimator", predictor, imputer, loss, opts)
	if err != nil {
		return nil, err
	}
	return &IteratedEstimator{core: core}, nil
}

// Estimate runs one independent estimation loop per feature, each with its
// own n_samples draw budget and convergence check, and returns the length-d
// vector of converged importance scores.
func (e *IteratedEstimator) Estimate(ds *dataset.Dataset) (scores *mat.VecDense, err error) {
	defer errors.Recover(&err, "IteratedEstimator.Estimate")

	d, total, detect, err := e.core.prepare(ds)
	if err != nil {
		return nil, err
	}

	cfg := e.core.cfg
	baseSeed := cfg.rngSeed()
	out := make([]float64, d)

	runFeature := func(ind int) error {
		logger := cfg.logger.With(
			log.EstimatorKey, "IteratedEstimator",
			log.FeatureIndexKey, ind,
		)
		rng := rand.New(rand.NewSource(baseSeed + int64(ind)))
		tracker := NewImportanceTracker(1)
		sampler := ds.Sampler(cfg.batchSize, cfg.nSamples, rng)
		m := cfg.mSamples

		converged := false
		batchIdx := 0
		for !converged {
			b, ok := sampler.Next()
			if !ok {
				break
			}
			n := b.Len()

			// Random coalition per example, never containing the target.
			s := coalitionMask(rng, n, d, ind)
			sRep := replicateRows(s, m)
			xRep := replicateRows(b.X, m)

			lossExcluded, err := e.core.evalLoss(xRep, sRep, b.Y, m, n)
			if err != nil {
				return errors.Wrapf(err, "feature %d: batch %d: excluded evaluation", ind, batchIdx)
			}

			// Toggle only the target feature; the coalition stays fixed.
			for r := 0; r < m*n; r++ {
				sRep.Set(r, ind, 1)
			}
			lossIncluded, err := e.core.evalLoss(xRep, sRep, b.Y, m, n)
			if err != nil {
				return errors.Wrapf(err, "feature %d: batch %d: included evaluation", ind, batchIdx)
			}

			deltas := mat.NewDense(n, 1, nil)
			for i := 0; i < n; i++ {
				deltas.Set(i, 0, lossExcluded.AtVec(i)-lossIncluded.AtVec(i))
			}
			if err := tracker.Update(deltas); err != nil {
				return errors.Wrapf(err, "feature %d: batch %d", ind, batchIdx)
			}

			if cfg.progress != nil {
				cfg.progress(n)
			}

			if detect {
				conf := tracker.MaxStdErr()
				ratio := conf / math.Abs(total)
				if ratio < cfg.convergenceThreshold {
					logger.Info("feature converged early",
						log.SamplesKey, sampler.Drawn(),
						log.RatioKey, ratio,
						log.ThresholdKey, cfg.convergenceThreshold,
					)
					converged = true
				}
			}
			batchIdx++
		}

		if detect && !converged {
			errors.Warn(errors.NewConvergenceWarning("IteratedEstimator", cfg.nSamples,
				fmt.Sprintf("feature %d", ind)))
		}

		out[ind] = tracker.Scores().AtVec(0)
		logger.Debug("feature finished",
			log.SamplesKey, sampler.Drawn(),
			log.ConfidenceKey, tracker.MaxStdErr(),
		)
		return nil
	}

	if cfg.parallel {
		if err := parallel.ForEachIndexErr(d, runFeature); err != nil {
			return nil, err
		}
	} else {
		for ind := 0; ind < d; ind++ {
			if err := runFeature(ind); err != nil {
				return nil, err
			}
		}
	}

	return mat.NewVecDense(d, out), nil
}

// coalitionMask draws one random coalition per example over d features,
// always excluding feature excluded. The coalition size k is uniform over
// {0, …, d−1} and the members are a uniform random k-subset of the remaining
// d−1 features, matching the subset-size weighting induced by uniformly
// random permutations. This distribution is part of the estimator's
// unbiasedness contract and is locked in by tests.
func coalitionMask(rng *rand.Rand, n, d, excluded int) *mat.Dense {
	s := mat.NewDense(n, d, nil)

	others := make([]int, 0, d-1)
	for j := 0; j < d; j++ {
		if j != excluded {
			others = append(others, j)
		}
	}

	scratch := make([]int, len(others))
	for i := 0; i < n; i++ {
		copy(scratch, others)
		k := rng.Intn(d)
		// Partial Fisher-Yates: after k swaps the first k entries are a
		// uniform random k-subset of the remaining features.
		for t := 0; t < k; t++ {
			swap := t + rng.Intn(len(scratch)-t)
			scratch[t], scratch[swap] = scratch[swap], scratch[t]
			s.Set(i, scratch[t], 1)
		}
	}
	return s
}
