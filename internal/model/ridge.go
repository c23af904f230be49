package model

import (
	"fmt"
	"math"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

// DefaultLambda is the ridge penalty applied to the standardized design
// matrix.
const DefaultLambda = 1.0

// Ridge is a closed-form ridge regression. Features are standardized to
// zero mean and unit variance before solving, so the penalty treats every
// column equally regardless of scale.
type Ridge struct {
	Lambda float64

	mean    []float64
	std     []float64
	coef    []float64
	bias    float64
	trained bool
}

var _ Regressor = (*Ridge)(nil)

// NewRidge returns an untrained regressor with the default penalty.
func NewRidge() *Ridge { return &Ridge{Lambda: DefaultLambda} }

// Trained reports whether Fit has completed successfully at least once.
func (r *Ridge) Trained() bool { return r.trained }

// Fit solves (ZᵀZ + λI)β = Zᵀy over the standardized design matrix Z.
// The intercept is the sample mean of y and is not penalized.
func (r *Ridge) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 || n != len(y) {
		return fmt.Errorf("%w: ridge fit needs matching samples, got %d rows and %d labels",
			domain.ErrComputation, n, len(y))
	}
	p := len(x[0])
	for i, row := range x {
		if len(row) != p {
			return fmt.Errorf("%w: ridge fit row %d has %d features, want %d",
				domain.ErrComputation, i, len(row), p)
		}
	}

	mean := make([]float64, p)
	std := make([]float64, p)
	for j := 0; j < p; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += x[i][j]
		}
		mean[j] = sum / float64(n)
		var ss float64
		for i := 0; i < n; i++ {
			d := x[i][j] - mean[j]
			ss += d * d
		}
		std[j] = math.Sqrt(ss / float64(n))
		if std[j] == 0 {
			// Constant column: centering zeroes it, scale is irrelevant.
			std[j] = 1
		}
	}

	var ybar float64
	for _, v := range y {
		ybar += v
	}
	ybar /= float64(n)

	// Normal equations on the standardized, centered design.
	a := make([][]float64, p)
	b := make([]float64, p)
	for j := range a {
		a[j] = make([]float64, p)
	}
	z := make([]float64, p)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			z[j] = (x[i][j] - mean[j]) / std[j]
		}
		for j := 0; j < p; j++ {
			b[j] += z[j] * (y[i] - ybar)
			for k := j; k < p; k++ {
				a[j][k] += z[j] * z[k]
			}
		}
	}
	for j := 0; j < p; j++ {
		for k := 0; k < j; k++ {
			a[j][k] = a[k][j]
		}
		a[j][j] += r.Lambda
	}

	coef, err := solve(a, b)
	if err != nil {
		return err
	}

	r.mean = mean
	r.std = std
	r.coef = coef
	r.bias = ybar
	r.trained = true
	return nil
}

// Predict scores one feature vector. It returns 0 when the model is
// untrained or the vector length does not match the fit.
func (r *Ridge) Predict(x []float64) float64 {
	if !r.trained || len(x) != len(r.coef) {
		return 0
	}
	out := r.bias
	for j, v := range x {
		out += r.coef[j] * (v - r.mean[j]) / r.std[j]
	}
	return out
}

// solve performs Gaussian elimination with partial pivoting on a copy of
// the inputs. The ridge diagonal keeps the system well conditioned.
func solve(a [][]float64, b []float64) ([]float64, error) {
	p := len(b)
	m := make([][]float64, p)
	for i := range m {
		m[i] = append(append([]float64(nil), a[i]...), b[i])
	}

	for col := 0; col < p; col++ {
		pivot := col
		for row := col + 1; row < p; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		m[col], m[pivot] = m[pivot], m[col]
		if m[col][col] == 0 {
			return nil, fmt.Errorf("%w: singular system in ridge solve", domain.ErrComputation)
		}
		for row := col + 1; row < p; row++ {
			f := m[row][col] / m[col][col]
			for k := col; k <= p; k++ {
				m[row][k] -= f * m[col][k]
			}
		}
	}

	out := make([]float64, p)
	for row := p - 1; row >= 0; row-- {
		v := m[row][p]
		for k := row + 1; k < p; k++ {
			v -= m[row][k] * out[k]
		}
		out[row] = v / m[row][row]
	}
	return out, nil
}
