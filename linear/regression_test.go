package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/core/model"
	"github.com/YuminosukeSato/sagego/pkg/errors"
)

var _ model.Predictor = (*Regression)(nil)

func TestRegressionFitPredict(t *testing.T) {
	// y = 2x + 3
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewVecDense(5, []float64{5, 7, 9, 11, 13})

	lr := NewRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if math.Abs(lr.Weights.AtVec(0)-2) > 1e-9 {
		t.Errorf("weight = %v, want 2", lr.Weights.AtVec(0))
	}
	if math.Abs(lr.Intercept-3) > 1e-9 {
		t.Errorf("intercept = %v, want 3", lr.Intercept)
	}

	XTest := mat.NewDense(2, 1, []float64{6, 10})
	pred, err := lr.Predict(XTest)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i, want := range []float64{15, 23} {
		if math.Abs(pred.At(i, 0)-want) > 1e-9 {
			t.Errorf("pred[%d] = %v, want %v", i, pred.At(i, 0), want)
		}
	}
}

func TestRegressionMultipleFeatures(t *testing.T) {
	// y = x0 + 2*x1 - 1
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
	})
	y := mat.NewVecDense(4, []float64{-1, 0, 1, 2})

	lr := NewRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if math.Abs(lr.Weights.AtVec(0)-1) > 1e-9 || math.Abs(lr.Weights.AtVec(1)-2) > 1e-9 {
		t.Errorf("weights = [%v, %v], want [1, 2]", lr.Weights.AtVec(0), lr.Weights.AtVec(1))
	}
	if math.Abs(lr.Intercept+1) > 1e-9 {
		t.Errorf("intercept = %v, want -1", lr.Intercept)
	}
}

func TestRegressionNotFitted(t *testing.T) {
	lr := NewRegression()
	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	if err == nil {
		t.Fatal("expected NotFittedError")
	}
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("error = %v, want NotFittedError", err)
	}
}

func TestRegressionDimensionMismatch(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	lr := NewRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if _, err := lr.Predict(mat.NewDense(2, 3, nil)); err == nil {
		t.Error("expected dimension error for wrong feature count")
	}

	if err := lr.Fit(X, mat.NewVecDense(2, nil)); err == nil {
		t.Error("expected dimension error for mismatched labels")
	}
}
