package predictor

import (
	"context"
	"fmt"
	"math"

	"github.com/pasar-banyumas/pangan-forecaster/window"
	"gonum.org/v1/gonum/mat"
)

// LSTM is a single LSTM layer followed by a linear dense output, evaluated with the same
// weights and gate ordering as the Keras model it was exported from.
type LSTM struct {
	lookback int
	layout   InputLayout
	units    int

	kernel    *mat.Dense // features x 4*units
	recurrent *mat.Dense // units x 4*units
	bias      []float64  // 4*units

	denseKernel *mat.Dense // units x 1
	denseBias   float64
}

func newLSTM(m Model) (*LSTM, error) {
	if m.LSTM == nil || m.Dense == nil {
		return nil, fmt.Errorf("lstm, %w", ErrMissingWeights)
	}
	u := m.LSTM.Units
	if u < 1 {
		return nil, fmt.Errorf("lstm units %d, %w", u, ErrShapeMismatch)
	}

	layout := m.Layout
	if layout == "" {
		layout = LayoutFeatures
	}
	var features int
	switch layout {
	case LayoutFeatures:
		features = m.Lookback
	case LayoutSequence:
		features = 1
	default:
		return nil, fmt.Errorf("unknown input layout %q, %w", layout, ErrShapeMismatch)
	}

	kernel, err := newDense("kernel", m.LSTM.Kernel, features, 4*u)
	if err != nil {
		return nil, err
	}
	recurrent, err := newDense("recurrent_kernel", m.LSTM.RecurrentKernel, u, 4*u)
	if err != nil {
		return nil, err
	}
	if len(m.LSTM.Bias) != 4*u {
		return nil, fmt.Errorf("bias has length %d, expected %d, %w", len(m.LSTM.Bias), 4*u, ErrShapeMismatch)
	}
	denseKernel, err := newDense("dense kernel", m.Dense.Kernel, u, 1)
	if err != nil {
		return nil, err
	}
	if len(m.Dense.Bias) != 1 {
		return nil, fmt.Errorf("dense bias has length %d, expected 1, %w", len(m.Dense.Bias), ErrShapeMismatch)
	}

	bias := make([]float64, len(m.LSTM.Bias))
	copy(bias, m.LSTM.Bias)

	return &LSTM{
		lookback:    m.Lookback,
		layout:      layout,
		units:       u,
		kernel:      kernel,
		recurrent:   recurrent,
		bias:        bias,
		denseKernel: denseKernel,
		denseBias:   m.Dense.Bias[0],
	}, nil
}

func (l *LSTM) Predict(ctx context.Context, frame window.Frame) (float64, error) {
	res, err := l.PredictBatch(ctx, []window.Frame{frame})
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (l *LSTM) PredictBatch(ctx context.Context, frames []window.Frame) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkFrames(l.lookback, frames); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return []float64{}, nil
	}

	n := len(frames)
	h := mat.NewDense(n, l.units, nil)
	c := mat.NewDense(n, l.units, nil)

	for _, x := range l.timesteps(frames) {
		l.step(x, h, c)
	}

	var out mat.Dense
	out.Mul(h, l.denseKernel)

	res := make([]float64, n)
	for i := 0; i < n; i++ {
		res[i] = out.At(i, 0) + l.denseBias
	}
	return res, nil
}

// timesteps arranges the batch as a sequence of n x features input matrices.
func (l *LSTM) timesteps(frames []window.Frame) []*mat.Dense {
	n := len(frames)
	if l.layout == LayoutSequence {
		steps := make([]*mat.Dense, l.lookback)
		for t := 0; t < l.lookback; t++ {
			x := mat.NewDense(n, 1, nil)
			for i, frame := range frames {
				x.Set(i, 0, frame[t])
			}
			steps[t] = x
		}
		return steps
	}

	x := mat.NewDense(n, l.lookback, nil)
	for i, frame := range frames {
		x.SetRow(i, frame)
	}
	return []*mat.Dense{x}
}

// step advances hidden state h and cell state c in place for one timestep input x.
func (l *LSTM) step(x, h, c *mat.Dense) {
	n, _ := x.Dims()
	u := l.units

	var z, hu mat.Dense
	z.Mul(x, l.kernel)
	hu.Mul(h, l.recurrent)
	z.Add(&z, &hu)

	for i := 0; i < n; i++ {
		row := z.RawRowView(i)
		hRow := h.RawRowView(i)
		cRow := c.RawRowView(i)
		for j := 0; j < u; j++ {
			in := sigmoid(row[j] + l.bias[j])
			forget := sigmoid(row[u+j] + l.bias[u+j])
			cand := math.Tanh(row[2*u+j] + l.bias[2*u+j])
			out := sigmoid(row[3*u+j] + l.bias[3*u+j])

			cRow[j] = forget*cRow[j] + in*cand
			hRow[j] = out * math.Tanh(cRow[j])
		}
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
