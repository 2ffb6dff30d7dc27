package forecaster

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pasar-banyumas/pangan-forecaster/storage"
)

var ErrUnknownCommodity = errors.New("commodity not in results")

// SaveResult reports the outcome of persisting one commodity table.
type SaveResult struct {
	Key  string
	Path string
	Err  error
}

// Save writes the merged table of every commodity in res, or only of keys when given. Each
// file is written independently so one failure does not block the others, and res stays
// usable for a retry of the failed keys. A nil res saves nothing.
func (f *Forecaster) Save(res *Results, keys ...string) []SaveResult {
	if res == nil {
		return nil
	}
	targets := res.Commodities
	if len(keys) > 0 {
		targets = make([]*Result, 0, len(keys))
		for _, key := range keys {
			r, ok := res.Get(key)
			if !ok {
				targets = append(targets, &Result{Commodity: Commodity{Key: key}})
				continue
			}
			targets = append(targets, r)
		}
	}

	out := make([]SaveResult, 0, len(targets))
	for _, r := range targets {
		sr := SaveResult{Key: r.Commodity.Key}
		if r.Table == nil {
			sr.Err = fmt.Errorf("%q, %w", r.Commodity.Key, ErrUnknownCommodity)
			out = append(out, sr)
			continue
		}

		sr.Path = f.cfg.Path(r.Commodity.OutputPath)
		sr.Err = storage.WriteTable(sr.Path, r.Table, res.Sites[0].Name, res.Sites[1].Name)
		if sr.Err != nil {
			slog.Warn("unable to save forecast", "commodity", sr.Key, "path", sr.Path, "error", sr.Err)
		}
		out = append(out, sr)
	}
	return out
}

// Failed returns the keys whose save returned an error.
func Failed(results []SaveResult) []string {
	var keys []string
	for _, sr := range results {
		if sr.Err != nil {
			keys = append(keys, sr.Key)
		}
	}
	return keys
}
