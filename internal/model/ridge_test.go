package model

import (
	"errors"
	"math"
	"testing"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

func TestRidgeRecoversLinearSignal(t *testing.T) {
	// y = 2*x0 - 3*x1 + 0.5 with a tiny penalty: coefficients should come
	// out close and predictions closer.
	r := &Ridge{Lambda: 1e-6}

	var x [][]float64
	var y []float64
	for i := 0; i < 200; i++ {
		a := math.Sin(float64(i) / 3)
		b := math.Cos(float64(i) / 7)
		x = append(x, []float64{a, b})
		y = append(y, 2*a-3*b+0.5)
	}
	if err := r.Fit(x, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !r.Trained() {
		t.Fatal("Trained() = false after successful fit")
	}

	for i, row := range x {
		got := r.Predict(row)
		if math.Abs(got-y[i]) > 1e-3 {
			t.Fatalf("Predict(%v) = %f, want %f", row, got, y[i])
		}
	}
}

func TestRidgeDeterministic(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 1}, {2, 5}, {4, 4}, {0, 1}}
	y := []float64{1.0, 2.5, -0.5, 1.5, 0.2}

	a, b := NewRidge(), NewRidge()
	if err := a.Fit(x, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if err := b.Fit(x, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	probe := []float64{2.2, 3.3}
	if a.Predict(probe) != b.Predict(probe) {
		t.Errorf("identical fits diverge: %v vs %v", a.Predict(probe), b.Predict(probe))
	}
}

func TestRidgeConstantColumn(t *testing.T) {
	// A zero-variance feature must not break the solve; its coefficient is
	// inert after centering.
	r := NewRidge()
	x := [][]float64{{1, 7}, {2, 7}, {3, 7}, {4, 7}}
	y := []float64{1, 2, 3, 4}
	if err := r.Fit(x, y); err != nil {
		t.Fatalf("Fit with constant column: %v", err)
	}
	got := r.Predict([]float64{2.5, 7})
	if math.Abs(got-2.5) > 0.5 {
		t.Errorf("Predict = %f, want near 2.5", got)
	}
}

func TestRidgeFitErrors(t *testing.T) {
	r := NewRidge()
	if err := r.Fit(nil, nil); !errors.Is(err, domain.ErrComputation) {
		t.Errorf("empty fit error = %v, want ErrComputation", err)
	}
	if err := r.Fit([][]float64{{1, 2}, {3}}, []float64{1, 2}); !errors.Is(err, domain.ErrComputation) {
		t.Errorf("ragged fit error = %v, want ErrComputation", err)
	}
	if r.Trained() {
		t.Error("Trained() = true after failed fits")
	}
}

func TestRidgeUntrainedPredict(t *testing.T) {
	r := NewRidge()
	if got := r.Predict([]float64{1, 2, 3}); got != 0 {
		t.Errorf("untrained Predict = %f, want 0", got)
	}
}
