package sage

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/core/model"
	"github.com/YuminosukeSato/sagego/dataset"
	"github.com/YuminosukeSato/sagego/imputation"
	"github.com/YuminosukeSato/sagego/pkg/errors"
	"github.com/YuminosukeSato/sagego/pkg/log"
)

// PermutationEstimator estimates SAGE values by unrolling random permutations
// of the feature indices. For each sampled example it reveals features one at
// a time in permutation order and credits the feature just revealed with the
// resulting loss reduction. A uniformly random permutation makes the prefix
// before each feature a uniformly random subset not containing it, weighted
// correctly across all subset sizes, so the per-reveal deltas are unbiased
// samples of the features' Shapley contributions.
type PermutationEstimator struct {
	core estimatorCore
}

// NewPermutationEstimator validates the model, imputation module, and loss
// descriptor, and applies the options. A deterministic imputation module
// combined with a replicate count other than 1 is clamped with a non-fatal
// warning.
func NewPermutationEstimator(predictor model.Predictor, imputer imputation.Imputer, loss string, opts ...Option) (*PermutationEstimator, error) {
	core, err := newEstimatorCore("PermutationEstimator", predictor, imputer, loss, opts)
	if err != nil {
		return nil, err
	}
	return &PermutationEstimator{core: core}, nil
}

// Estimate runs the permutation-sampling loop over the dataset and returns
// the length-d vector of estimated importance scores. With convergence
// detection enabled the loop stops early once
// sqrt(max per-feature variance) / total drops below the threshold; otherwise
// it runs until the n_samples draw budget is spent.
func (e *PermutationEstimator) Estimate(ds *dataset.Dataset) (scores *mat.VecDense, err error) {
	defer errors.Recover(&err, "PermutationEstimator.Estimate")

	d, total, detect, err := e.core.prepare(ds)
	if err != nil {
		return nil, err
	}

	cfg := e.core.cfg
	logger := cfg.logger.With(log.EstimatorKey, "PermutationEstimator")
	rng := rand.New(rand.NewSource(cfg.rngSeed()))
	sampler := ds.Sampler(cfg.batchSize, cfg.nSamples, rng)
	tracker := NewImportanceTracker(d)
	m := cfg.mSamples

	converged := false
	batchIdx := 0
	for !converged {
		b, ok := sampler.Next()
		if !ok {
			break
		}
		n := b.Len()

		// One independent permutation per example, fixed for all d reveals.
		perms := make([][]int, n)
		for i := range perms {
			perms[i] = rng.Perm(d)
		}

		// Masks and replicated inputs are private to this batch.
		s := mat.NewDense(m*n, d, nil)
		xRep := replicateRows(b.X, m)

		prevLoss, err := e.core.evalLoss(xRep, s, b.Y, m, n)
		if err != nil {
			return nil, errors.Wrapf(err, "batch %d: baseline evaluation", batchIdx)
		}

		batchScores := mat.NewDense(n, d, nil)
		for pos := 0; pos < d; pos++ {
			for i := 0; i < n; i++ {
				ind := perms[i][pos]
				for r := 0; r < m; r++ {
					s.Set(r*n+i, ind, 1)
				}
			}

			loss, err := e.core.evalLoss(xRep, s, b.Y, m, n)
			if err != nil {
				return nil, errors.Wrapf(err, "batch %d: reveal step %d", batchIdx, pos)
			}

			for i := 0; i < n; i++ {
				batchScores.Set(i, perms[i][pos], prevLoss.AtVec(i)-loss.AtVec(i))
			}
			prevLoss = loss

			if cfg.progress != nil {
				cfg.progress(n)
			}
		}

		if err := tracker.Update(batchScores); err != nil {
			return nil, errors.Wrapf(err, "batch %d", batchIdx)
		}

		conf := tracker.MaxStdErr()
		logger.Debug("batch folded",
			log.SamplesKey, sampler.Drawn(),
			log.ConfidenceKey, conf,
			log.TotalKey, total,
		)
		if detect {
			ratio := conf / math.Abs(total)
			if ratio < cfg.convergenceThreshold {
				logger.Info("converged early",
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
		errors.Warn(errors.NewConvergenceWarning("PermutationEstimator", cfg.nSamples, ""))
	}
	return tracker.Scores(), nil
}
