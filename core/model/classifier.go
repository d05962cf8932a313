package model

import (
	"gonum.org/v1/gonum/mat"
)

// ClassifierPredictor exposes a classifier's class-probability estimates
// through the plain Predictor interface, so losses that expect probability
// vectors (such as cross-entropy) can be computed against it.
//
// The adapter is selected explicitly at construction time; the estimators
// never inspect the concrete type of the model they are given.
type ClassifierPredictor struct {
	classifier ProbabilisticPredictor
}

// NewClassifierPredictor wraps a classifier whose native output is a label.
func NewClassifierPredictor(classifier ProbabilisticPredictor) *ClassifierPredictor {
	return &ClassifierPredictor{classifier: classifier}
}

// Predict returns the class-probability matrix (n×k) of the wrapped classifier.
func (c *ClassifierPredictor) Predict(X mat.Matrix) (mat.Matrix, error) {
	return c.classifier.PredictProba(X)
}
