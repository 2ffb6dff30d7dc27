package series

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pasar-banyumas/pangan-forecaster/scaler"
	"github.com/pasar-banyumas/pangan-forecaster/timedataset"
)

var (
	ErrNoHistory         = errors.New("no historical data to assemble")
	ErrParamsMismatch    = errors.New("normalization params were not fitted on this history")
	ErrNonFiniteForecast = errors.New("forecast contains a non-finite value")
	ErrUnknownProvenance = errors.New("unknown provenance label")
)

// Provenance tells an observed price apart from a model generated one.
type Provenance string

const (
	Historical Provenance = "Historical Data"
	Forecast   Provenance = "Forecast"
)

func ParseProvenance(s string) (Provenance, error) {
	switch Provenance(s) {
	case Historical:
		return Historical, nil
	case Forecast:
		return Forecast, nil
	default:
		return "", fmt.Errorf("%q, %w", s, ErrUnknownProvenance)
	}
}

// Point is one dated entry of an assembled series. Exactly one of Historical and Forecast is
// set, the other is NaN.
type Point struct {
	Date       time.Time
	Historical float64
	Forecast   float64
	Provenance Provenance
}

// Value returns the first present value of Historical and Forecast.
func (p Point) Value() float64 {
	if !math.IsNaN(p.Historical) {
		return p.Historical
	}
	return p.Forecast
}

// Assembled is a history followed by its forecast, in price units and chronological order.
type Assembled struct {
	Points []Point
}

// Assemble appends the denormalized forecast to the history. Forecast dates are the
// consecutive calendar days after the last historical date with no weekend or holiday
// skipping. params must be the ones fitted on hist, history values outside their range are
// rejected since they can only come from params fitted on another series.
func Assemble(hist *timedataset.PriceSeries, forecastNormalized []float64, params scaler.Params) (*Assembled, error) {
	if hist.Len() == 0 {
		return nil, ErrNoHistory
	}
	if err := params.Valid(); err != nil {
		return nil, err
	}
	for i, y := range hist.Y {
		if y < params.Min || y > params.Max {
			return nil, fmt.Errorf(
				"price %.2f on %s outside [%.2f, %.2f], %w",
				y, hist.T[i].Format(time.DateOnly), params.Min, params.Max, ErrParamsMismatch,
			)
		}
	}
	for i, v := range forecastNormalized {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("at step %d, %w", i, ErrNonFiniteForecast)
		}
	}

	lastT, _ := hist.Last()
	futureT := timedataset.DaysAfter(lastT, len(forecastNormalized))
	forecastY := params.InverseSlice(forecastNormalized)

	points := make([]Point, 0, hist.Len()+len(futureT))
	for i := range hist.Y {
		points = append(points, Point{
			Date:       hist.T[i],
			Historical: hist.Y[i],
			Forecast:   math.NaN(),
			Provenance: Historical,
		})
	}
	for i := range futureT {
		points = append(points, Point{
			Date:       futureT[i],
			Historical: math.NaN(),
			Forecast:   forecastY[i],
			Provenance: Forecast,
		})
	}
	return &Assembled{Points: points}, nil
}

func (a *Assembled) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Points)
}

func (a *Assembled) Dates() []time.Time {
	t := make([]time.Time, a.Len())
	for i, p := range a.Points {
		t[i] = p.Date
	}
	return t
}

// Segment returns the points with the given provenance in order.
func (a *Assembled) Segment(prov Provenance) []Point {
	var res []Point
	for _, p := range a.Points {
		if p.Provenance == prov {
			res = append(res, p)
		}
	}
	return res
}
