package score

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoPoints       = errors.New("no comparable points")
)

// Scores tracks how well one-step predictions match the observed prices.
type Scores struct {
	MSE  float64 `json:"mean_squared_error"`
	RMSE float64 `json:"root_mean_squared_error"`
	MAPE float64 `json:"mean_average_percent_error"`
	R2   float64 `json:"r_squared"`
	N    int     `json:"points"`
}

// NewScores calculates the fit scores given the predicted and actual input slice values
func NewScores(predicted, actual []float64) (*Scores, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mape, err := MAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean average percent error, %w", err)
	}
	rs, err := RSquared(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute r-squared, %w", err)
	}

	return &Scores{
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		MAPE: mape,
		R2:   rs,
		N:    len(pairs(predicted, actual)),
	}, nil
}

func pairs(predicted, actual []float64) [][2]float64 {
	res := make([][2]float64, 0, len(actual))
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		res = append(res, [2]float64{predicted[i], actual[i]})
	}
	return res
}

// MSE computes the mean squared error over points where both values are present. A score of
// 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	p := pairs(predicted, actual)
	if len(p) == 0 {
		return 0, ErrNoPoints
	}
	mse := 0.0
	for _, pa := range p {
		mse += math.Pow(pa[1]-pa[0], 2.0)
	}
	return mse / float64(len(p)), nil
}

// MAPE calculates the mean average percent error, sum(abs((y-yhat)/y))/n, skipping zero
// actuals. A score of 0 means a perfect match with no errors.
func MAPE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	var mape float64
	var n int
	for _, pa := range pairs(predicted, actual) {
		if pa[1] == 0 {
			continue
		}
		mape += math.Abs((pa[1] - pa[0]) / pa[1])
		n++
	}
	if n == 0 {
		return 0, ErrNoPoints
	}
	return mape / float64(n), nil
}

// RSquared computes the r squared value between the predicted and actual where 1.0 means perfect
// fit and 0 represents no relationship
func RSquared(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	p := pairs(predicted, actual)
	if len(p) == 0 {
		return 0, ErrNoPoints
	}
	predictCopy := make([]float64, len(p))
	actualCopy := make([]float64, len(p))
	for i, pa := range p {
		predictCopy[i] = pa[0]
		actualCopy[i] = pa[1]
	}
	r2 := stat.RSquaredFrom(predictCopy, actualCopy, nil)
	if math.IsNaN(r2) {
		return 1.0, nil
	}
	return r2, nil
}
