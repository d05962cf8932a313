// Package model defines the black-box model surface the estimators score against.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Predictor は予測可能なモデルのインターフェース
// 推定器はこのメソッドのみを通じてモデルを評価する
type Predictor interface {
	// Predict は入力データ (n×d) に対する予測 (n×k) を返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ProbabilisticPredictor はクラス確率を出力できる分類器のインターフェース
type ProbabilisticPredictor interface {
	// PredictProba は各クラスの予測確率 (n×k) を返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}
