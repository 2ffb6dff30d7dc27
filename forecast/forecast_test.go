package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/pasar-banyumas/pangan-forecaster/predictor"
	"github.com/pasar-banyumas/pangan-forecaster/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counting wraps a single-step function and records every frame it was called with.
type counting struct {
	fn     func(window.Frame) float64
	inputs []window.Frame
}

func (c *counting) Predict(_ context.Context, frame window.Frame) (float64, error) {
	c.inputs = append(c.inputs, frame.Copy())
	return c.fn(frame), nil
}

func newest(frame window.Frame) float64 {
	return frame[len(frame)-1]
}

func TestForecastLength(t *testing.T) {
	ctx := context.Background()
	for _, horizon := range []int{1, 2, 7, 93, 365} {
		p := &counting{fn: newest}
		steps, err := Forecast(ctx, p, window.Frame{0.4}, horizon)
		require.Nil(t, err)
		assert.Len(t, steps, horizon)
		assert.Len(t, p.inputs, horizon)
	}
}

func TestForecastNonPositiveHorizon(t *testing.T) {
	ctx := context.Background()
	for _, horizon := range []int{0, -1, -93} {
		p := &counting{fn: newest}
		steps, err := Forecast(ctx, p, window.Frame{0.4}, horizon)
		require.Nil(t, err)
		assert.Empty(t, steps)
		assert.Empty(t, p.inputs, "predictor must not be invoked")

		steps, err = Continue(ctx, p, window.Frame{0.4}, 0.5, horizon)
		require.Nil(t, err)
		assert.Empty(t, steps)
		assert.Empty(t, p.inputs)
	}
}

func TestForecastIdentityOnConstant(t *testing.T) {
	p := &counting{fn: newest}
	steps, err := Forecast(context.Background(), p, window.Frame{0.7, 0.7, 0.7}, 20)
	require.Nil(t, err)

	for _, v := range Values(steps) {
		assert.Equal(t, 0.7, v)
	}
}

func TestForecastFeedback(t *testing.T) {
	// each prediction is the sum of the frame, so the sequence is fully determined by the
	// feedback wiring: [1,2,3] -> 6 -> [2,3,6] 11 -> [3,6,11] 20 -> [6,11,20] 37
	sum := func(frame window.Frame) float64 {
		var s float64
		for _, v := range frame {
			s += v
		}
		return s
	}
	p := &counting{fn: sum}
	steps, err := Forecast(context.Background(), p, window.Frame{1, 2, 3}, 4)
	require.Nil(t, err)

	assert.Equal(t, []float64{6, 11, 20, 37}, Values(steps))
	assert.Equal(t, []window.Frame{{1, 2, 3}, {2, 3, 6}, {3, 6, 11}, {6, 11, 20}}, p.inputs)
	for i, s := range steps {
		assert.Equal(t, p.inputs[i], s.Input)
	}
}

func TestForecastDoesNotMutateFrame(t *testing.T) {
	frame := window.Frame{0.1, 0.2}
	_, err := Forecast(context.Background(), &counting{fn: newest}, frame, 5)
	require.Nil(t, err)
	assert.Equal(t, window.Frame{0.1, 0.2}, frame)
}

func TestForecastErrorAccumulates(t *testing.T) {
	// the true series is flat, the model has a small upward bias; fed its own output the bias
	// compounds with every step
	truth := 0.5
	bias := 0.01
	p := &counting{fn: func(f window.Frame) float64 { return newest(f) + bias }}

	steps, err := Forecast(context.Background(), p, window.Frame{truth}, 30)
	require.Nil(t, err)

	prevErr := 0.0
	for k, v := range Values(steps) {
		absErr := math.Abs(v - truth)
		assert.InDelta(t, float64(k+1)*bias, absErr, 1e-9)
		assert.Greater(t, absErr, prevErr)
		prevErr = absErr
	}
}

func TestForecastPredictorFailure(t *testing.T) {
	errBoom := errors.New("model crashed")
	calls := 0
	p := predictor.Func(func(_ context.Context, frame window.Frame) (float64, error) {
		calls++
		if calls == 3 {
			return 0, errBoom
		}
		return newest(frame), nil
	})

	steps, err := Forecast(context.Background(), p, window.Frame{0.2}, 10)
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, steps)
	assert.Equal(t, 3, calls, "no retry after a failed step")

	p0 := predictor.Func(func(context.Context, window.Frame) (float64, error) {
		return 0, errBoom
	})
	_, err = Forecast(context.Background(), p0, window.Frame{0.2}, 10)
	assert.ErrorIs(t, err, errBoom)
}

func TestForecastInvalidInput(t *testing.T) {
	_, err := Forecast(context.Background(), nil, window.Frame{0.2}, 3)
	assert.ErrorIs(t, err, predictor.ErrNilPredictor)

	_, err = Forecast(context.Background(), &counting{fn: newest}, window.Frame{}, 3)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestFirstStepsSeedContinue(t *testing.T) {
	ctx := context.Background()
	model, err := predictor.NewFromModel(predictor.Model{
		Type:     predictor.TypeLinear,
		Lookback: 1,
		Linear:   &predictor.LinearWeights{Weights: []float64{0.9}, Intercept: 0.05},
	})
	require.Nil(t, err)

	frames := []window.Frame{{0.1}, {0.5}, {0.95}}
	first, err := FirstSteps(ctx, model, frames)
	require.Nil(t, err)
	require.Len(t, first, len(frames))

	for i, frame := range frames {
		seeded, err := Continue(ctx, model, frame, first[i], 12)
		require.Nil(t, err)

		direct, err := Forecast(ctx, model, frame, 12)
		require.Nil(t, err)
		assert.InDeltaSlice(t, Values(direct), Values(seeded), 1e-12)
	}
}

func TestFirstStepsEmptyFrame(t *testing.T) {
	_, err := FirstSteps(context.Background(), predictor.NewPersistence(1), []window.Frame{{0.1}, {}})
	assert.ErrorIs(t, err, ErrEmptyFrame)
}
