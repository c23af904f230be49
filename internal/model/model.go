// Package model holds the return-prediction model and its retraining
// schedule. The model is a ridge regression over standardized features,
// solved in closed form so that training is deterministic.
package model

// Regressor is the learner used by the walk-forward engine. Fit trains on a
// pooled cross-sectional sample; Predict scores one feature vector.
type Regressor interface {
	Fit(x [][]float64, y []float64) error
	Predict(x []float64) float64
	Trained() bool
}
