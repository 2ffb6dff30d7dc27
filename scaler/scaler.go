package scaler

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmptySeries     = errors.New("cannot fit scaler on an empty series")
	ErrDegenerateRange = errors.New("series minimum equals maximum, normalization is undefined")
	ErrNonFinite       = errors.New("series contains a non-finite value")
)

// Params is a fitted min/max normalization. It is a value and carries no hidden state, so the
// same Params must be threaded through every transform and inverse derived from one series.
type Params struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Fit computes the min and max over all values of y.
func Fit(y []float64) (Params, error) {
	if len(y) == 0 {
		return Params{}, ErrEmptySeries
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Params{}, fmt.Errorf("at index %d, %w", i, ErrNonFinite)
		}
	}

	p := Params{
		Min: floats.Min(y),
		Max: floats.Max(y),
	}
	if p.Max <= p.Min {
		return Params{}, fmt.Errorf("min=max=%.4f, %w", p.Min, ErrDegenerateRange)
	}
	return p, nil
}

// Valid reports whether the params come from a non-degenerate fit.
func (p Params) Valid() error {
	if !(p.Max > p.Min) {
		return ErrDegenerateRange
	}
	return nil
}

func (p Params) span() float64 {
	return p.Max - p.Min
}

// Transform maps x into [0,1] for values inside the fitted range. Values outside the range
// extrapolate linearly.
func (p Params) Transform(x float64) float64 {
	return (x - p.Min) / p.span()
}

// Inverse is the exact inverse of Transform.
func (p Params) Inverse(x float64) float64 {
	return x*p.span() + p.Min
}

// TransformSlice returns a new slice with every value of y transformed.
func (p Params) TransformSlice(y []float64) []float64 {
	out := make([]float64, len(y))
	copy(out, y)
	floats.AddConst(-p.Min, out)
	floats.Scale(1.0/p.span(), out)
	return out
}

// InverseSlice returns a new slice with every value of y denormalized.
func (p Params) InverseSlice(y []float64) []float64 {
	out := make([]float64, len(y))
	copy(out, y)
	floats.Scale(p.span(), out)
	floats.AddConst(p.Min, out)
	return out
}
