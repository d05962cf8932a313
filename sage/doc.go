// Package sage implements stochastic estimation of SAGE values: Shapley-based
// global feature-importance scores attributing a trained model's predictive
// performance to its input features.
//
// Two estimators are provided. PermutationEstimator reveals features one at a
// time in a random order per example and credits each feature with the loss
// reduction its reveal causes; a single ImportanceTracker accumulates the
// per-example, per-feature deltas. IteratedEstimator instead estimates each
// feature independently by sampling random coalitions of the other features
// and toggling only the target feature.
//
// Both estimators normalize their convergence criterion against
// EstimateTotal, the loss reduction the model achieves over always predicting
// the dataset-wide mean prediction; with enough samples the estimated scores
// sum to approximately that total.
package sage
