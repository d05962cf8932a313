// Package log defines standard attribute keys for estimation runs.
//
// Using these keys consistently enables structured log analysis and
// filtering across everything the library emits. The keys follow a
// hierarchical naming convention (e.g., "data.samples", "sage.total").

package log

// Estimator and operation context.
const (
	// EstimatorKey identifies the estimator emitting the record.
	// Examples: "PermutationEstimator", "IteratedEstimator"
	EstimatorKey = "estimator.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "estimate", "estimate_total", "impute"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "sage", "imputation", "metrics"
	ComponentKey = "ml.component"
)

// Data shape and sampling.
const (
	// SamplesKey indicates the outer Monte Carlo sample budget or the
	// number of examples processed so far.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// BatchSizeKey indicates the number of examples per minibatch.
	BatchSizeKey = "data.batch_size"

	// ReplicatesKey indicates the imputation-replicate count (m_samples).
	ReplicatesKey = "data.replicates"

	// FeatureIndexKey indicates the feature currently being estimated
	// (IteratedEstimator only).
	FeatureIndexKey = "data.feature_index"
)

// Convergence diagnostics.
const (
	// TotalKey is the baseline total importance used to normalize convergence.
	TotalKey = "sage.total"

	// ConfidenceKey is sqrt of the maximum per-feature variance of the
	// running estimate.
	ConfidenceKey = "sage.confidence"

	// RatioKey is confidence divided by total, compared against the
	// convergence threshold.
	RatioKey = "sage.ratio"

	// ThresholdKey is the configured convergence threshold.
	ThresholdKey = "sage.threshold"
)
