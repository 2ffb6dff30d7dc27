package window

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLookback = errors.New("lookback must be at least 1")
	ErrSeriesTooShort  = errors.New("series must be longer than the lookback")
)

// Frame is a fixed length input window of normalized values ordered oldest first.
type Frame []float64

// Copy returns an independent copy of the frame.
func (f Frame) Copy() Frame {
	dst := make(Frame, len(f))
	copy(dst, f)
	return dst
}

// Shift drops the oldest value and appends next, keeping the frame length. The receiver is
// left untouched.
func (f Frame) Shift(next float64) Frame {
	if len(f) == 0 {
		return Frame{}
	}
	dst := make(Frame, len(f))
	copy(dst, f[1:])
	dst[len(dst)-1] = next
	return dst
}

// MakeFrames slices y into len(y)-lookback frames. Frame i holds y[i:i+lookback] and its
// target is y[i+lookback].
func MakeFrames(y []float64, lookback int) ([]Frame, []float64, error) {
	if lookback < 1 {
		return nil, nil, fmt.Errorf("got %d, %w", lookback, ErrInvalidLookback)
	}
	if len(y) <= lookback {
		return nil, nil, fmt.Errorf("series length %d with lookback %d, %w", len(y), lookback, ErrSeriesTooShort)
	}

	n := len(y) - lookback
	frames := make([]Frame, n)
	targets := make([]float64, n)
	for i := 0; i < n; i++ {
		frames[i] = Frame(y[i : i+lookback]).Copy()
		targets[i] = y[i+lookback]
	}
	return frames, targets, nil
}

// LastFrame returns the newest lookback values of y. Unlike the frames from MakeFrames it has
// no target, it is the input used to predict the first value after the series ends.
func LastFrame(y []float64, lookback int) (Frame, error) {
	if lookback < 1 {
		return nil, fmt.Errorf("got %d, %w", lookback, ErrInvalidLookback)
	}
	if len(y) < lookback {
		return nil, fmt.Errorf("series length %d with lookback %d, %w", len(y), lookback, ErrSeriesTooShort)
	}
	return Frame(y[len(y)-lookback:]).Copy(), nil
}
