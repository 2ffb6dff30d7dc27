package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoData             = errors.New("no price data")
	ErrNonMonotonic       = errors.New("dates are not strictly increasing")
	ErrDatasetLenMismatch = errors.New("dates have a different length than prices")
	ErrNonPositivePrice   = errors.New("price must be a positive number")
	ErrCannotInferFreq    = errors.New("cannot infer frequency from dates")
)

// Day is the sampling interval of every price series.
const Day = 24 * time.Hour

// PriceSeries is the daily price history of one commodity at one market site. Dates are
// truncated to UTC midnight and strictly increasing.
type PriceSeries struct {
	T []time.Time
	Y []float64
}

// NewPriceSeries validates and copies the input dates and prices.
func NewPriceSeries(t []time.Time, y []float64) (*PriceSeries, error) {
	if len(y) == 0 {
		return nil, ErrNoData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"dates have length of %d, but prices have a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(y))
	var lastT time.Time
	for i := 0; i < len(t); i++ {
		currT := Truncate(t[i])
		if i > 0 && !currT.After(lastT) {
			return nil, fmt.Errorf("non-monotonic at %d (%s), %w", i, currT.Format(time.DateOnly), ErrNonMonotonic)
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) || y[i] <= 0 {
			return nil, fmt.Errorf("at %s got %f, %w", currT.Format(time.DateOnly), y[i], ErrNonPositivePrice)
		}
		tSeries[i] = currT
		ySeries[i] = y[i]
		lastT = currT
	}

	return &PriceSeries{
		T: tSeries,
		Y: ySeries,
	}, nil
}

func (ps *PriceSeries) Copy() *PriceSeries {
	tSeries := make([]time.Time, len(ps.T))
	ySeries := make([]float64, len(ps.Y))
	copy(tSeries, ps.T)
	copy(ySeries, ps.Y)
	return &PriceSeries{
		T: tSeries,
		Y: ySeries,
	}
}

func (ps *PriceSeries) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.Y)
}

// Last returns the newest date and price.
func (ps *PriceSeries) Last() (time.Time, float64) {
	if ps.Len() == 0 {
		return time.Time{}, math.NaN()
	}
	n := len(ps.Y)
	return ps.T[n-1], ps.Y[n-1]
}

// Truncate drops the clock part of t, keeping the calendar date as UTC midnight.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysAfter returns n consecutive calendar days starting the day after last.
func DaysAfter(last time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	start := Truncate(last)
	t := make([]time.Time, 0, n)
	for i := 1; i <= n; i++ {
		t = append(t, start.AddDate(0, 0, i))
	}
	return t
}
