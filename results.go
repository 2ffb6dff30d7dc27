package forecaster

import (
	"github.com/pasar-banyumas/pangan-forecaster/series"
)

// Result is the forecast of one commodity at both market sites.
type Result struct {
	Commodity Commodity
	Series    [2]*series.Assembled
	Table     *series.Table
}

// Results holds one run over every configured commodity.
type Results struct {
	Horizon     int
	Sites       [2]Site
	Commodities []*Result
}

// Get returns the result of the commodity registered under key.
func (r *Results) Get(key string) (*Result, bool) {
	if r == nil {
		return nil, false
	}
	for _, res := range r.Commodities {
		if res.Commodity.Key == key {
			return res, true
		}
	}
	return nil, false
}
