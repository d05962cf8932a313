// Package sagego provides global feature-importance estimation for trained
// predictive models, based on Shapley-value decomposition of the model's
// predictive performance (SAGE values).
//
// The library treats the model as a black box: it only needs a Predict
// method over plain gonum matrices. It estimates, for each input feature,
// how much that feature contributes on average to reducing the model's loss,
// using as few model evaluations as possible and stopping early once the
// estimates are statistically stable.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/sagego/dataset"
//	    "github.com/YuminosukeSato/sagego/imputation"
//	    "github.com/YuminosukeSato/sagego/sage"
//	)
//
//	func main() {
//	    ds, err := dataset.New(X, y)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    imputer := imputation.NewMarginalImputer()
//	    if err := imputer.Fit(X); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    est, err := sage.NewPermutationEstimator(model, imputer, "mse",
//	        sage.WithBatchSize(64),
//	        sage.WithNSamples(8192),
//	        sage.WithConvergenceDetection(0.01),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    scores, err := est.Estimate(ds)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("SAGE values:", scores)
//	}
//
// # Packages
//
//   - sage: the estimation core (ImportanceTracker, EstimateTotal,
//     PermutationEstimator, IteratedEstimator)
//   - imputation: strategies for filling held-out feature values
//     (MarginalImputer, ReferenceImputer)
//   - metrics: per-example loss functions resolved by name
//   - dataset: in-memory tabular data with batched random sampling
//   - core/model: the Predictor interface and classifier adapter
//   - core/parallel: parallel processing utilities
//   - linear: a minimal least-squares model for demos and tests
//
// # License
//
// sagego is released under the MIT License.
package sagego
