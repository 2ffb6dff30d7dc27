package forecast

import (
	"context"
	"errors"
	"fmt"

	"github.com/pasar-banyumas/pangan-forecaster/predictor"
	"github.com/pasar-banyumas/pangan-forecaster/window"
)

var (
	ErrEmptyFrame         = errors.New("input frame is empty")
	ErrFrameCountMismatch = errors.New("number of first values does not match number of frames")
)

// Step is one autoregressive prediction: the normalized value and the frame it was
// produced from.
type Step struct {
	Input window.Frame `json:"input"`
	Value float64      `json:"value"`
}

// Forecast produces horizon normalized values following frame. Step 0 scores frame itself;
// every later step scores the previous frame shifted by one with the previous prediction
// appended. Errors compound with the horizon since each step conditions on the model's own
// output rather than an observation.
//
// A horizon of zero or less returns an empty result without invoking the predictor. Any
// predictor failure aborts the whole forecast and no partial steps are returned.
func Forecast(ctx context.Context, p predictor.Predictor, frame window.Frame, horizon int) ([]Step, error) {
	if horizon <= 0 {
		return []Step{}, nil
	}
	if p == nil {
		return nil, predictor.ErrNilPredictor
	}
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}

	first, err := p.Predict(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("unable to predict step 0, %w", err)
	}
	return Continue(ctx, p, frame, first, horizon)
}

// Continue finishes a forecast whose step 0 value was already computed from frame, for
// example by a batched call across several series with FirstSteps.
func Continue(ctx context.Context, p predictor.Predictor, frame window.Frame, first float64, horizon int) ([]Step, error) {
	if horizon <= 0 {
		return []Step{}, nil
	}
	if p == nil {
		return nil, predictor.ErrNilPredictor
	}
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}

	steps := make([]Step, 0, horizon)
	steps = append(steps, Step{Input: frame.Copy(), Value: first})

	for k := 1; k < horizon; k++ {
		prev := steps[k-1]
		input := prev.Input.Shift(prev.Value)

		val, err := p.Predict(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("unable to predict step %d, %w", k, err)
		}
		steps = append(steps, Step{Input: input, Value: val})
	}
	return steps, nil
}

// FirstSteps scores the step 0 frame of several independent series at once. Only the first
// step can be batched, every later step depends on the output before it.
func FirstSteps(ctx context.Context, p predictor.Predictor, frames []window.Frame) ([]float64, error) {
	for i, frame := range frames {
		if len(frame) == 0 {
			return nil, fmt.Errorf("frame %d, %w", i, ErrEmptyFrame)
		}
	}
	first, err := predictor.PredictAll(ctx, p, frames)
	if err != nil {
		return nil, fmt.Errorf("unable to predict first steps, %w", err)
	}
	if len(first) != len(frames) {
		return nil, fmt.Errorf("expected %d, but got %d, %w", len(frames), len(first), ErrFrameCountMismatch)
	}
	return first, nil
}

// Values extracts the normalized predictions in step order.
func Values(steps []Step) []float64 {
	res := make([]float64, len(steps))
	for i, s := range steps {
		res[i] = s.Value
	}
	return res
}
