package predictor

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

var (
	ErrUnknownModelType = errors.New("unknown model type")
	ErrInvalidLookback  = errors.New("model lookback must be at least 1")
	ErrMissingWeights   = errors.New("model is missing weights for its type")
	ErrShapeMismatch    = errors.New("weight shape does not match model dimensions")
)

type Type string

const (
	TypeLSTM        Type = "lstm"
	TypeLinear      Type = "linear"
	TypePersistence Type = "persistence"
)

// InputLayout controls how a frame is fed to a recurrent model.
type InputLayout string

const (
	// LayoutFeatures feeds the frame as one timestep holding lookback features.
	LayoutFeatures InputLayout = "features"
	// LayoutSequence feeds the frame as lookback timesteps of one feature each.
	LayoutSequence InputLayout = "sequence"
)

// Model is the serializeable form of a pretrained single-step predictor.
type Model struct {
	Name     string         `json:"name,omitempty"`
	Type     Type           `json:"type"`
	Lookback int            `json:"lookback"`
	Layout   InputLayout    `json:"layout,omitempty"`
	LSTM     *LSTMWeights   `json:"lstm,omitempty"`
	Dense    *DenseWeights  `json:"dense,omitempty"`
	Linear   *LinearWeights `json:"linear,omitempty"`
}

// LSTMWeights uses the Keras layout with gates ordered input, forget, cell, output.
type LSTMWeights struct {
	Units           int         `json:"units"`
	Kernel          [][]float64 `json:"kernel"`           // features x 4*units
	RecurrentKernel [][]float64 `json:"recurrent_kernel"` // units x 4*units
	Bias            []float64   `json:"bias"`             // 4*units
}

type DenseWeights struct {
	Kernel [][]float64 `json:"kernel"` // units x 1
	Bias   []float64   `json:"bias"`   // 1
}

type LinearWeights struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewFromModel builds a ready to use predictor from a model description.
func NewFromModel(m Model) (BatchPredictor, error) {
	if m.Lookback < 1 {
		return nil, fmt.Errorf("got %d, %w", m.Lookback, ErrInvalidLookback)
	}

	switch m.Type {
	case TypeLSTM:
		return newLSTM(m)
	case TypeLinear:
		return newLinear(m)
	case TypePersistence:
		return &Persistence{lookback: m.Lookback}, nil
	default:
		return nil, fmt.Errorf("%q, %w", m.Type, ErrUnknownModelType)
	}
}

// Load reads a JSON model file and initializes its predictor.
func Load(path string) (BatchPredictor, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read model file, %w", err)
	}

	var m Model
	if err := json.Unmarshal(bytes, &m); err != nil {
		return nil, fmt.Errorf("unable to decode model file %s, %w", path, err)
	}

	p, err := NewFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize model from %s, %w", path, err)
	}
	return p, nil
}
