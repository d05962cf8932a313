// Package linear は重要度推定のデモとテストで使う最小限の線形回帰モデルを提供します。
// 推定対象のモデルは model.Predictor を満たしていれば何でもよく、
// このパッケージはその最も小さな実例です。
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/core/model"
	"github.com/YuminosukeSato/sagego/core/parallel"
	"github.com/YuminosukeSato/sagego/pkg/errors"
)

// Regression は最小二乗法による線形回帰モデル
type Regression struct {
	model.BaseEstimator
	Weights   *mat.VecDense // 係数
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数
}

// NewRegression は新しい線形回帰モデルを作成する
func NewRegression() *Regression {
	return &Regression{}
}

// Fit はモデルを訓練データで学習させる。
// 切片列を付加した計画行列に対して QR 分解で最小二乗解を求める。
func (lr *Regression) Fit(X mat.Matrix, y *mat.VecDense) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("Regression.Fit", "empty data", errors.ErrEmptyData)
	}
	if y == nil || y.Len() != r {
		ry := 0
		if y != nil {
			ry = y.Len()
		}
		return errors.NewDimensionError("Regression.Fit", r, ry, 0)
	}

	lr.NFeatures = c

	// X_with_intercept = [1, X]
	design := mat.NewDense(r, c+1, nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			design.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				design.Set(i, j+1, X.At(i, j))
			}
		}
	})

	var w mat.VecDense
	if err := w.SolveVec(design, y); err != nil {
		return errors.NewModelError("Regression.Fit", "singular design matrix", err)
	}

	lr.Intercept = w.AtVec(0)
	lr.Weights = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		lr.Weights.SetVec(j, w.AtVec(j+1))
	}

	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *Regression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("Regression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("Regression.Predict", lr.NFeatures, c, 1)
	}

	// y = X * weights + intercept
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		sum := lr.Intercept
		for j := 0; j < c; j++ {
			sum += X.At(i, j) * lr.Weights.AtVec(j)
		}
		out.Set(i, 0, sum)
	}
	return out, nil
}
