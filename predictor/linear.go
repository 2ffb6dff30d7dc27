package predictor

import (
	"context"
	"fmt"

	"github.com/pasar-banyumas/pangan-forecaster/window"
	"gonum.org/v1/gonum/floats"
)

// Linear predicts intercept + sum(w_i * x_i) over the frame.
type Linear struct {
	weights   []float64
	intercept float64
}

func newLinear(m Model) (*Linear, error) {
	if m.Linear == nil {
		return nil, fmt.Errorf("linear, %w", ErrMissingWeights)
	}
	if len(m.Linear.Weights) != m.Lookback {
		return nil, fmt.Errorf(
			"linear has %d weights for lookback %d, %w",
			len(m.Linear.Weights), m.Lookback, ErrShapeMismatch,
		)
	}
	w := make([]float64, len(m.Linear.Weights))
	copy(w, m.Linear.Weights)
	return &Linear{weights: w, intercept: m.Linear.Intercept}, nil
}

func (l *Linear) Predict(ctx context.Context, frame window.Frame) (float64, error) {
	res, err := l.PredictBatch(ctx, []window.Frame{frame})
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (l *Linear) PredictBatch(ctx context.Context, frames []window.Frame) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkFrames(len(l.weights), frames); err != nil {
		return nil, err
	}

	res := make([]float64, len(frames))
	for i, frame := range frames {
		res[i] = l.intercept + floats.Dot(l.weights, frame)
	}
	return res, nil
}

// Persistence returns the newest value of every frame. It is the naive baseline any trained
// model should beat.
type Persistence struct {
	lookback int
}

func NewPersistence(lookback int) *Persistence {
	return &Persistence{lookback: lookback}
}

func (p *Persistence) Predict(ctx context.Context, frame window.Frame) (float64, error) {
	res, err := p.PredictBatch(ctx, []window.Frame{frame})
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (p *Persistence) PredictBatch(ctx context.Context, frames []window.Frame) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkFrames(p.lookback, frames); err != nil {
		return nil, err
	}

	res := make([]float64, len(frames))
	for i, frame := range frames {
		res[i] = frame[len(frame)-1]
	}
	return res, nil
}
