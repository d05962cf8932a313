package sage

import (
	"github.com/YuminosukeSato/sagego/core/model"
	"github.com/YuminosukeSato/sagego/dataset"
	"github.com/YuminosukeSato/sagego/metrics"
	"github.com/YuminosukeSato/sagego/pkg/errors"

	"gonum.org/v1/gonum/mat"
)

// EstimateTotal computes the maximum explainable loss reduction: the mean
// loss of always predicting the dataset-wide mean prediction, minus the mean
// loss of the model's actual predictions. SAGE values sum to approximately
// this scalar, and the estimators use it to normalize their convergence
// thresholds.
//
// The dataset is streamed twice with the same batching. Batch statistics are
// combined with size-weighted incremental averaging, so uneven final batches
// are handled exactly; zero-size batches are skipped.
func EstimateTotal(predictor model.Predictor, ds *dataset.Dataset, batchSize int, lossFn metrics.Loss) (float64, error) {
	if predictor == nil {
		return 0, errors.NewValidationError("model", "must be non-nil", nil)
	}
	if ds == nil {
		return 0, errors.NewValidationError("dataset", "must be non-nil", nil)
	}
	if batchSize <= 0 {
		return 0, errors.NewValidationError("batch_size", "must be positive", batchSize)
	}
	if lossFn == nil {
		return 0, errors.NewValidationError("loss", "must be non-nil", nil)
	}

	// Pass 1: mean loss of the model and the marginal (mean) prediction.
	var (
		bigN         float64
		meanLoss     float64
		marginalPred []float64
		k            int
	)
	it := ds.Batches(batchSize)
	for {
		b, ok := it.Next()
		if !ok {
			break
		}
		n := b.Len()
		if n == 0 {
			continue
		}

		pred, err := predictor.Predict(b.X)
		if err != nil {
			return 0, errors.Wrap(err, "estimate total: model prediction")
		}
		pr, pk := pred.Dims()
		if pr != n {
			return 0, errors.NewDimensionError("EstimateTotal", n, pr, 0)
		}
		if marginalPred == nil {
			k = pk
			marginalPred = make([]float64, k)
		} else if pk != k {
			return 0, errors.NewDimensionError("EstimateTotal", k, pk, 1)
		}

		loss, err := lossFn(pred, b.Y)
		if err != nil {
			return 0, errors.Wrap(err, "estimate total: loss")
		}
		batchLoss, err := metrics.MeanLoss(loss)
		if err != nil {
			return 0, err
		}

		fn := float64(n)
		for j := 0; j < k; j++ {
			var colSum float64
			for i := 0; i < n; i++ {
				colSum += pred.At(i, j)
			}
			marginalPred[j] = (bigN*marginalPred[j] + colSum) / (bigN + fn)
		}
		meanLoss = (bigN*meanLoss + fn*batchLoss) / (bigN + fn)
		bigN += fn
	}
	if bigN == 0 {
		return 0, errors.NewModelError("EstimateTotal", "no examples", errors.ErrEmptyData)
	}

	// Pass 2: mean loss of the marginal prediction.
	bigN = 0
	marginalLoss := 0.0
	it.Reset()
	for {
		b, ok := it.Next()
		if !ok {
			break
		}
		n := b.Len()
		if n == 0 {
			continue
		}

		broadcast := mat.NewDense(n, k, nil)
		for i := 0; i < n; i++ {
			broadcast.SetRow(i, marginalPred)
		}
		loss, err := lossFn(broadcast, b.Y)
		if err != nil {
			return 0, errors.Wrap(err, "estimate total: marginal loss")
		}
		batchLoss, err := metrics.MeanLoss(loss)
		if err != nil {
			return 0, err
		}

		fn := float64(n)
		marginalLoss = (bigN*marginalLoss + fn*batchLoss) / (bigN + fn)
		bigN += fn
	}

	total := marginalLoss - meanLoss
	if err := errors.CheckScalar("estimate_total", total, 0); err != nil {
		return 0, err
	}
	return total, nil
}
