package sage

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/core/model"
	"github.com/YuminosukeSato/sagego/dataset"
	"github.com/YuminosukeSato/sagego/imputation"
	"github.com/YuminosukeSato/sagego/metrics"
	"github.com/YuminosukeSato/sagego/pkg/errors"
	"github.com/YuminosukeSato/sagego/pkg/log"
)

// minTotal is the scale below which the convergence ratio is considered
// ill-defined and detection is disabled for the run.
const minTotal = 1e-12

// estimatorCore carries the validated inputs shared by both estimators.
type estimatorCore struct {
	name      string
	predictor model.Predictor
	imputer   imputation.Imputer
	lossFn    metrics.Loss
	cfg       config
}

func newEstimatorCore(name string, predictor model.Predictor, imputer imputation.Imputer, loss string, opts []Option) (estimatorCore, error) {
	core := estimatorCore{name: name, predictor: predictor, imputer: imputer}

	if predictor == nil {
		return core, errors.NewValidationError("model", "must be non-nil", nil)
	}
	if imputer == nil {
		return core, errors.NewValidationError("imputation_module", "must implement a recognized imputation capability", nil)
	}

	lossFn, err := metrics.LossByName(loss)
	if err != nil {
		return core, err
	}
	core.lossFn = lossFn

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return core, err
	}

	// Deterministic imputation has no draw variance to average over.
	if imputer.Deterministic() && cfg.mSamples != 1 {
		errors.Warn(errors.NewParameterClampWarning(
			"m_samples", cfg.mSamples, 1, "imputation module is deterministic"))
		cfg.logger.Info("replicate count clamped for deterministic imputation",
			log.EstimatorKey, name,
			log.ReplicatesKey, 1,
		)
		cfg.mSamples = 1
	}

	core.cfg = cfg
	return core, nil
}

// prepare validates the estimator against a concrete dataset and computes
// the normalization total. It returns the feature count, the total, and
// whether convergence detection remains enabled for this run.
func (c *estimatorCore) prepare(ds *dataset.Dataset) (int, float64, bool, error) {
	if ds == nil {
		return 0, 0, false, errors.NewValidationError("dataset", "must be non-nil", nil)
	}
	d := ds.NumFeatures()
	if got := c.imputer.NumFeatures(); got != d {
		return 0, 0, false, errors.NewValidationError(
			"imputation_module", "feature count does not match dataset (is the imputer fitted?)", got)
	}

	total, err := EstimateTotal(c.predictor, ds, c.cfg.batchSize, c.lossFn)
	if err != nil {
		return 0, 0, false, err
	}

	detect := c.cfg.detectConvergence
	if detect && math.Abs(total) < minTotal {
		errors.Warn(errors.NewConvergenceWarning(c.name, 0,
			"estimated total is ~0; convergence detection disabled for this run"))
		detect = false
	}

	c.cfg.logger.Info("estimation starting",
		log.ComponentKey, "sage",
		log.OperationKey, "estimate",
		log.EstimatorKey, c.name,
		log.FeaturesKey, d,
		log.SamplesKey, c.cfg.nSamples,
		log.BatchSizeKey, c.cfg.batchSize,
		log.ReplicatesKey, c.cfg.mSamples,
		log.TotalKey, total,
	)
	return d, total, detect, nil
}

// replicateRows stacks m copies of x vertically: row i of replicate r lands
// at r·n + i, the layout averageReplicates undoes.
func replicateRows(x *mat.Dense, m int) *mat.Dense {
	n, d := x.Dims()
	out := mat.NewDense(m*n, d, nil)
	for r := 0; r < m; r++ {
		for i := 0; i < n; i++ {
			out.SetRow(r*n+i, x.RawRowView(i))
		}
	}
	return out
}

// averageReplicates reduces an (m·n)×k prediction matrix to n×k by averaging
// over the m replicate blocks. The loss is then computed on the averaged
// predictions, not averaged over per-replicate losses.
func averageReplicates(pred mat.Matrix, m, n int) (*mat.Dense, error) {
	pr, k := pred.Dims()
	if pr != m*n {
		return nil, errors.NewDimensionError("averageReplicates", m*n, pr, 0)
	}
	out := mat.NewDense(n, k, nil)
	inv := 1.0 / float64(m)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			var sum float64
			for r := 0; r < m; r++ {
				sum += pred.At(r*n+i, j)
			}
			out.Set(i, j, sum*inv)
		}
	}
	return out, nil
}

// evalLoss imputes the replicated batch under mask s, runs the model,
// averages predictions over the m replicates, and returns the per-example
// loss against y.
func (c *estimatorCore) evalLoss(xRep, s *mat.Dense, y *mat.VecDense, m, n int) (*mat.VecDense, error) {
	imputed, err := c.imputer.Impute(xRep, s)
	if err != nil {
		return nil, errors.Wrap(err, "imputation")
	}
	pred, err := c.predictor.Predict(imputed)
	if err != nil {
		return nil, errors.Wrap(err, "model prediction")
	}
	avg, err := averageReplicates(pred, m, n)
	if err != nil {
		return nil, err
	}
	loss, err := c.lossFn(avg, y)
	if err != nil {
		return nil, errors.Wrap(err, "loss")
	}
	return loss, nil
}
