package predictor

import (
	"context"
	"errors"
	"fmt"

	"github.com/pasar-banyumas/pangan-forecaster/window"
)

var (
	ErrBatchSizeMismatch = errors.New("predictor returned a different number of values than frames")
	ErrLookbackMismatch  = errors.New("frame length does not match model lookback")
	ErrNilPredictor      = errors.New("no predictor")
)

// Predictor is a pretrained single-step model. Given a frame of normalized values it returns
// the normalized value that follows.
type Predictor interface {
	Predict(ctx context.Context, frame window.Frame) (float64, error)
}

// BatchPredictor scores several independent frames in one call.
type BatchPredictor interface {
	Predictor
	PredictBatch(ctx context.Context, frames []window.Frame) ([]float64, error)
}

// Func adapts a plain function to the Predictor interface.
type Func func(ctx context.Context, frame window.Frame) (float64, error)

func (f Func) Predict(ctx context.Context, frame window.Frame) (float64, error) {
	return f(ctx, frame)
}

// PredictAll scores every frame, using a single batched call when p supports it and one call
// per frame otherwise.
func PredictAll(ctx context.Context, p Predictor, frames []window.Frame) ([]float64, error) {
	if p == nil {
		return nil, ErrNilPredictor
	}
	if len(frames) == 0 {
		return []float64{}, nil
	}

	if bp, ok := p.(BatchPredictor); ok {
		res, err := bp.PredictBatch(ctx, frames)
		if err != nil {
			return nil, err
		}
		if len(res) != len(frames) {
			return nil, fmt.Errorf("expected %d, but got %d, %w", len(frames), len(res), ErrBatchSizeMismatch)
		}
		return res, nil
	}

	res := make([]float64, len(frames))
	for i, frame := range frames {
		val, err := p.Predict(ctx, frame)
		if err != nil {
			return nil, fmt.Errorf("unable to predict frame %d, %w", i, err)
		}
		res[i] = val
	}
	return res, nil
}

func checkFrames(lookback int, frames []window.Frame) error {
	for i, frame := range frames {
		if len(frame) == 0 || len(frame) != lookback {
			return fmt.Errorf("frame %d has length %d, model expects %d, %w", i, len(frame), lookback, ErrLookbackMismatch)
		}
	}
	return nil
}
