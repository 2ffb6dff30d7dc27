package predictor

import (
	"context"
	"math"
	"testing"

	"github.com/pasar-banyumas/pangan-forecaster/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneUnitModel(layout InputLayout, lookback int) Model {
	kernel := [][]float64{{0.5, 0.1, 1.0, 0.2}}
	if layout == LayoutFeatures && lookback == 2 {
		kernel = [][]float64{{0.5, 0.1, 1.0, 0.2}, {0.3, -0.2, 0.4, 0.6}}
	}
	return Model{
		Type:     TypeLSTM,
		Lookback: lookback,
		Layout:   layout,
		LSTM: &LSTMWeights{
			Units:           1,
			Kernel:          kernel,
			RecurrentKernel: [][]float64{{0.7, -0.3, 0.9, 0.4}},
			Bias:            []float64{0, 1, 0, 0},
		},
		Dense: &DenseWeights{Kernel: [][]float64{{2.0}}, Bias: []float64{0.1}},
	}
}

// cell evaluates one unit by hand: gates are (i, f, c, o) pre-activations.
func cell(zi, zf, zc, zo, cPrev float64) (float64, float64) {
	sig := func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
	c := sig(zf)*cPrev + sig(zi)*math.Tanh(zc)
	h := sig(zo) * math.Tanh(c)
	return h, c
}

func TestLSTMSingleTimestep(t *testing.T) {
	p, err := NewFromModel(oneUnitModel(LayoutFeatures, 1))
	require.Nil(t, err)

	for _, x := range []float64{0, 0.3, 1, -0.5} {
		h, _ := cell(0.5*x, 0.1*x+1, 1.0*x, 0.2*x, 0)
		expected := 2*h + 0.1

		val, err := p.Predict(context.Background(), window.Frame{x})
		require.Nil(t, err)
		assert.InDelta(t, expected, val, 1e-12, "x=%f", x)
	}
}

func TestLSTMFeatureLayout(t *testing.T) {
	p, err := NewFromModel(oneUnitModel(LayoutFeatures, 2))
	require.Nil(t, err)

	x0, x1 := 0.2, 0.6
	h, _ := cell(0.5*x0+0.3*x1, 0.1*x0-0.2*x1+1, 1.0*x0+0.4*x1, 0.2*x0+0.6*x1, 0)

	val, err := p.Predict(context.Background(), window.Frame{x0, x1})
	require.Nil(t, err)
	assert.InDelta(t, 2*h+0.1, val, 1e-12)
}

func TestLSTMSequenceLayout(t *testing.T) {
	p, err := NewFromModel(oneUnitModel(LayoutSequence, 2))
	require.Nil(t, err)

	x0, x1 := 0.2, 0.6
	h0, c0 := cell(0.5*x0, 0.1*x0+1, 1.0*x0, 0.2*x0, 0)
	h1, _ := cell(0.5*x1+0.7*h0, 0.1*x1-0.3*h0+1, 1.0*x1+0.9*h0, 0.2*x1+0.4*h0, c0)

	val, err := p.Predict(context.Background(), window.Frame{x0, x1})
	require.Nil(t, err)
	assert.InDelta(t, 2*h1+0.1, val, 1e-12)
}

func TestLSTMBatchMatchesSingle(t *testing.T) {
	p, err := NewFromModel(oneUnitModel(LayoutSequence, 2))
	require.Nil(t, err)

	ctx := context.Background()
	frames := []window.Frame{{0.1, 0.2}, {0.9, 0.4}, {0.5, 0.5}}
	batch, err := p.PredictBatch(ctx, frames)
	require.Nil(t, err)
	require.Len(t, batch, len(frames))

	for i, frame := range frames {
		val, err := p.Predict(ctx, frame)
		require.Nil(t, err)
		assert.InDelta(t, val, batch[i], 1e-12)
	}

	empty, err := p.PredictBatch(ctx, nil)
	require.Nil(t, err)
	assert.Empty(t, empty)
}
