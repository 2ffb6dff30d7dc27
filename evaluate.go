package forecaster

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/pasar-banyumas/pangan-forecaster/predictor"
	"github.com/pasar-banyumas/pangan-forecaster/score"
	"github.com/pasar-banyumas/pangan-forecaster/window"
)

// Evaluation is the one-step fit of a model over the history of one commodity at one site.
// Every frame of the history is scored against the observed next day, both in price units.
type Evaluation struct {
	Commodity string        `json:"commodity"`
	Site      string        `json:"site"`
	Scores    *score.Scores `json:"scores"`
}

// Evaluate scores the one-step predictions of every series in a single batched call per
// series.
func (f *Forecaster) Evaluate(ctx context.Context) ([]Evaluation, error) {
	evals := make([]Evaluation, 0, 2*len(f.commodities))
	for _, cs := range f.commodities {
		for j, ss := range cs.series {
			frames, targets, err := window.MakeFrames(ss.norm, f.cfg.Lookback)
			if err != nil {
				return nil, fmt.Errorf("unable to frame %s at %s, %w", cs.Key, f.sites[j].Name, err)
			}
			pred, err := predictor.PredictAll(ctx, cs.model, frames)
			if err != nil {
				return nil, fmt.Errorf("unable to predict %s at %s, %w", cs.Key, f.sites[j].Name, err)
			}

			scores, err := score.NewScores(ss.params.InverseSlice(pred), ss.params.InverseSlice(targets))
			if err != nil {
				return nil, fmt.Errorf("unable to score %s at %s, %w", cs.Key, f.sites[j].Name, err)
			}
			evals = append(evals, Evaluation{
				Commodity: cs.Key,
				Site:      f.sites[j].Name,
				Scores:    scores,
			})
		}
	}
	return evals, nil
}

// WriteEvaluations prints evaluations as an aligned text table.
func WriteEvaluations(w io.Writer, evals []Evaluation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "commodity\tsite\tpoints\trmse\tmape\tr2\t")
	for _, e := range evals {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.4f\t%.4f\t\n",
			e.Commodity, e.Site, e.Scores.N, e.Scores.RMSE, e.Scores.MAPE, e.Scores.R2,
		)
	}
	return tw.Flush()
}

// WriteEvaluationsJSON encodes evaluations as an indented JSON array.
func WriteEvaluationsJSON(w io.Writer, evals []Evaluation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(evals)
}
