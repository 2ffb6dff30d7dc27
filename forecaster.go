package forecaster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pasar-banyumas/pangan-forecaster/config"
	"github.com/pasar-banyumas/pangan-forecaster/forecast"
	"github.com/pasar-banyumas/pangan-forecaster/predictor"
	"github.com/pasar-banyumas/pangan-forecaster/scaler"
	"github.com/pasar-banyumas/pangan-forecaster/series"
	"github.com/pasar-banyumas/pangan-forecaster/storage"
	"github.com/pasar-banyumas/pangan-forecaster/timedataset"
	"github.com/pasar-banyumas/pangan-forecaster/window"
)

var (
	ErrNonPositiveHorizon = errors.New("horizon must be a positive number of days")
	ErrNilConfig          = errors.New("no configuration")
	ErrNoInputs           = errors.New("no commodity inputs")
	ErrMissingSeries      = errors.New("commodity input is missing a site series")
)

const DefaultResultCacheSize = 16

type (
	Commodity = config.Commodity
	Site      = config.Site
)

// Input is one commodity with its two site histories already loaded and the predictor that
// forecasts both of them.
type Input struct {
	Commodity Commodity
	A         *timedataset.PriceSeries
	B         *timedataset.PriceSeries
	Model     predictor.Predictor
}

// siteSeries is the read-only state derived from one history when the forecaster is built.
type siteSeries struct {
	hist   *timedataset.PriceSeries
	params scaler.Params
	norm   []float64
	last   window.Frame
}

type commodityState struct {
	Commodity
	model  predictor.Predictor
	series [2]*siteSeries
}

// Forecaster holds the loaded histories, their fitted normalization and the model handles for
// every configured commodity. It is built once per process and reused for every run.
type Forecaster struct {
	cfg         *config.Config
	sites       [2]Site
	commodities []*commodityState
	results     *lru.Cache[int, *Results]
}

// New loads every history file named in cfg and resolves each model through reg. A nil
// registry gets a private one sized from the configuration.
func New(cfg *config.Config, reg *predictor.Registry) (*Forecaster, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}
	if reg == nil {
		var err error
		reg, err = predictor.NewRegistry(cfg.Cache.Models)
		if err != nil {
			return nil, err
		}
	}

	inputs := make([]Input, 0, len(cfg.Commodities))
	for _, cm := range cfg.Commodities {
		a, b, err := storage.LoadHistory(cfg.Path(cm.HistoryPath), cfg.Sites[0].Column, cfg.Sites[1].Column)
		if err != nil {
			return nil, fmt.Errorf("unable to load %s history, %w", cm.Key, err)
		}
		model, err := reg.Get(cfg.Path(cm.ModelPath))
		if err != nil {
			return nil, fmt.Errorf("unable to load %s model, %w", cm.Key, err)
		}
		inputs = append(inputs, Input{Commodity: cm, A: a, B: b, Model: model})
	}
	return NewFromInputs(cfg, inputs)
}

// NewFromInputs builds a forecaster over histories and predictors supplied by the caller.
// Normalization params are fitted per series, so each site of each commodity is scaled
// by its own range.
func NewFromInputs(cfg *config.Config, inputs []Input) (*Forecaster, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	if cfg.Lookback < 1 {
		return nil, fmt.Errorf("got %d, %w", cfg.Lookback, config.ErrInvalidLookback)
	}
	if len(cfg.Sites) != 2 {
		return nil, fmt.Errorf("got %d, %w", len(cfg.Sites), config.ErrSiteCount)
	}

	size := cfg.Cache.Results
	if size < 1 {
		size = DefaultResultCacheSize
	}
	results, err := lru.New[int, *Results](size)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize result cache, %w", err)
	}

	f := &Forecaster{
		cfg:     cfg,
		sites:   [2]Site{cfg.Sites[0], cfg.Sites[1]},
		results: results,
	}
	for _, in := range inputs {
		if in.Model == nil {
			return nil, fmt.Errorf("commodity %s, %w", in.Commodity.Key, predictor.ErrNilPredictor)
		}
		cs := &commodityState{Commodity: in.Commodity, model: in.Model}
		for j, hist := range []*timedataset.PriceSeries{in.A, in.B} {
			if hist.Len() == 0 {
				return nil, fmt.Errorf("commodity %s site %s, %w", in.Commodity.Key, f.sites[j].Name, ErrMissingSeries)
			}
			ss, err := newSiteSeries(hist, cfg.Lookback)
			if err != nil {
				return nil, fmt.Errorf("commodity %s site %s, %w", in.Commodity.Key, f.sites[j].Name, err)
			}
			cs.series[j] = ss
		}
		f.commodities = append(f.commodities, cs)
	}
	return f, nil
}

func newSiteSeries(hist *timedataset.PriceSeries, lookback int) (*siteSeries, error) {
	params, err := scaler.Fit(hist.Y)
	if err != nil {
		return nil, fmt.Errorf("unable to fit scaler, %w", err)
	}
	norm := params.TransformSlice(hist.Y)
	last, err := window.LastFrame(norm, lookback)
	if err != nil {
		return nil, fmt.Errorf("unable to build input frame, %w", err)
	}
	return &siteSeries{
		hist:   hist.Copy(),
		params: params,
		norm:   norm,
		last:   last,
	}, nil
}

// Sites returns the two market sites in column order.
func (f *Forecaster) Sites() [2]Site {
	return f.sites
}

// Commodities returns the configured commodities in order.
func (f *Forecaster) Commodities() []Commodity {
	res := make([]Commodity, len(f.commodities))
	for i, cs := range f.commodities {
		res[i] = cs.Commodity
	}
	return res
}

// Run forecasts horizon days past the end of every history and merges the two sites of each
// commodity into one table. Results are cached per horizon and shared between callers, they
// must not be modified. A predictor failure aborts the run and nothing is returned.
func (f *Forecaster) Run(ctx context.Context, horizon int) (*Results, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("got %d, %w", horizon, ErrNonPositiveHorizon)
	}
	if res, ok := f.results.Get(horizon); ok {
		slog.Debug("forecast served from cache", "horizon", horizon)
		return res, nil
	}

	first, err := f.firstSteps(ctx)
	if err != nil {
		return nil, err
	}

	res := &Results{
		Horizon:     horizon,
		Sites:       f.sites,
		Commodities: make([]*Result, 0, len(f.commodities)),
	}
	for i, cs := range f.commodities {
		var assembled [2]*series.Assembled
		for j, ss := range cs.series {
			steps, err := forecast.Continue(ctx, cs.model, ss.last, first[i][j], horizon)
			if err != nil {
				return nil, fmt.Errorf("unable to forecast %s at %s, %w", cs.Key, f.sites[j].Name, err)
			}
			assembled[j], err = series.Assemble(ss.hist, forecast.Values(steps), ss.params)
			if err != nil {
				return nil, fmt.Errorf("unable to assemble %s at %s, %w", cs.Key, f.sites[j].Name, err)
			}
		}

		table, err := series.Merge(assembled[0], assembled[1])
		if err != nil {
			return nil, fmt.Errorf("unable to merge %s, %w", cs.Key, err)
		}
		res.Commodities = append(res.Commodities, &Result{
			Commodity: cs.Commodity,
			Series:    assembled,
			Table:     table,
		})
	}

	f.results.Add(horizon, res)
	return res, nil
}

type firstStepGroup struct {
	model  predictor.Predictor
	frames []window.Frame
	refs   [][2]int
}

// firstSteps scores the step 0 frame of every series with one call per distinct model file.
func (f *Forecaster) firstSteps(ctx context.Context) ([][2]float64, error) {
	var (
		order  []string
		groups = map[string]*firstStepGroup{}
	)
	for i, cs := range f.commodities {
		g, ok := groups[cs.ModelPath]
		if !ok {
			g = &firstStepGroup{model: cs.model}
			groups[cs.ModelPath] = g
			order = append(order, cs.ModelPath)
		}
		for j, ss := range cs.series {
			g.frames = append(g.frames, ss.last)
			g.refs = append(g.refs, [2]int{i, j})
		}
	}

	first := make([][2]float64, len(f.commodities))
	for _, path := range order {
		g := groups[path]
		vals, err := forecast.FirstSteps(ctx, g.model, g.frames)
		if err != nil {
			return nil, fmt.Errorf("unable to forecast with model %s, %w", path, err)
		}
		for k, ref := range g.refs {
			first[ref[0]][ref[1]] = vals[k]
		}
	}
	return first, nil
}
