package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pasar-banyumas/pangan-forecaster/timedataset"
)

const DateColumn = "tanggal"

type historyRow struct {
	t time.Time
	a float64
	b float64
}

// LoadHistory reads a daily price history with a date column and one price column per market
// site. Column names match case-insensitively. Rows may come in any order, they are sorted by
// date before the series are built.
func LoadHistory(path, colA, colB string) (*timedataset.PriceSeries, *timedataset.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open history %s, %w", path, err)
	}
	defer f.Close()

	a, b, err := ReadHistory(f, colA, colB)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read history %s, %w", path, err)
	}
	return a, b, nil
}

// ReadHistory is LoadHistory over an arbitrary reader.
func ReadHistory(r io.Reader, colA, colB string) (*timedataset.PriceSeries, *timedataset.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, timedataset.ErrNoData
		}
		return nil, nil, err
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make([]int, 3)
	for i, name := range []string{DateColumn, colA, colB} {
		c, ok := idx[strings.ToLower(name)]
		if !ok {
			return nil, nil, fmt.Errorf("%q, %w", name, ErrMissingColumn)
		}
		cols[i] = c
	}

	var rows []historyRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		t, err := parseDate(strings.TrimSpace(rec[cols[0]]))
		if err != nil {
			return nil, nil, fmt.Errorf("line %d, %w", line, err)
		}
		row := historyRow{t: timedataset.Truncate(t)}
		for i, dst := range []*float64{&row.a, &row.b} {
			raw := strings.TrimSpace(rec[cols[i+1]])
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d column %q value %q, %w", line, header[cols[i+1]], raw, ErrParse)
			}
			*dst = v
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil, timedataset.ErrNoData
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].t.Before(rows[j].t)
	})

	t := make([]time.Time, len(rows))
	ya := make([]float64, len(rows))
	yb := make([]float64, len(rows))
	for i, row := range rows {
		t[i] = row.t
		ya[i] = row.a
		yb[i] = row.b
	}

	ts := timedataset.TimeSlice(t)
	slog.Debug("history read", "start", ts.StartTime().Format(time.DateOnly), "end", ts.EndTime().Format(time.DateOnly), "rows", len(t))
	if freq, err := ts.EstimateFreq(); err == nil && freq != timedataset.Day {
		slog.Warn("history is not sampled daily, forecast dates still advance one day per step", "freq", freq)
	}
	if gaps := ts.Gaps(timedataset.Day); len(gaps) > 0 {
		slog.Warn("history is not contiguous daily data", "gaps", len(gaps), "first_gap", t[gaps[0]].Format(time.DateOnly))
	}

	a, err := timedataset.NewPriceSeries(t, ya)
	if err != nil {
		return nil, nil, fmt.Errorf("column %q, %w", colA, err)
	}
	b, err := timedataset.NewPriceSeries(t, yb)
	if err != nil {
		return nil, nil, fmt.Errorf("column %q, %w", colB, err)
	}
	return a, b, nil
}
