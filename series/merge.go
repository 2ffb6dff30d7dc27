package series

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrCoverageMismatch = errors.New("series do not cover the same dates")

// Row is one date of a merged two-site table.
type Row struct {
	Date       time.Time
	A          float64
	B          float64
	Keterangan Provenance
}

// Table is the wide, date ordered view of one commodity at both market sites.
type Table struct {
	Rows []Row
}

// Merge joins two assembled series of the same commodity on their dates. Both must cover
// exactly the same dates with the same provenance on each, otherwise ErrCoverageMismatch is
// returned.
func Merge(a, b *Assembled) (*Table, error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("site a has %d dates, site b has %d, %w", a.Len(), b.Len(), ErrCoverageMismatch)
	}

	bByDate := make(map[string]Point, b.Len())
	for _, p := range b.Points {
		if _, exists := bByDate[dateKey(p.Date)]; exists {
			return nil, fmt.Errorf("site b repeats %s, %w", p.Date.Format(time.DateOnly), ErrCoverageMismatch)
		}
		bByDate[dateKey(p.Date)] = p
	}

	rows := make([]Row, 0, a.Len())
	seen := make(map[string]struct{}, a.Len())
	for _, pa := range a.Points {
		key := dateKey(pa.Date)
		if _, exists := seen[key]; exists {
			return nil, fmt.Errorf("site a repeats %s, %w", pa.Date.Format(time.DateOnly), ErrCoverageMismatch)
		}
		seen[key] = struct{}{}

		pb, ok := bByDate[key]
		if !ok {
			return nil, fmt.Errorf("site b has no value on %s, %w", pa.Date.Format(time.DateOnly), ErrCoverageMismatch)
		}
		if pb.Provenance != pa.Provenance {
			return nil, fmt.Errorf(
				"%s is %s at site a and %s at site b, %w",
				key, pa.Provenance, pb.Provenance, ErrCoverageMismatch,
			)
		}
		rows = append(rows, Row{
			Date:       pa.Date,
			A:          pa.Value(),
			B:          pb.Value(),
			Keterangan: pa.Provenance,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
	return &Table{Rows: rows}, nil
}

func dateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Count returns how many rows carry the given provenance.
func (t *Table) Count(prov Provenance) int {
	if t == nil {
		return 0
	}
	var n int
	for _, r := range t.Rows {
		if r.Keterangan == prov {
			n++
		}
	}
	return n
}

// Between returns a table restricted to rows dated within [start, end]. A zero bound is open.
func (t *Table) Between(start, end time.Time) *Table {
	if t == nil {
		return &Table{}
	}
	rows := make([]Row, 0, t.Len())
	for _, r := range t.Rows {
		if !start.IsZero() && r.Date.Before(start) {
			continue
		}
		if !end.IsZero() && r.Date.After(end) {
			continue
		}
		rows = append(rows, r)
	}
	return &Table{Rows: rows}
}

// Span returns the first and last dates of the table.
func (t *Table) Span() (time.Time, time.Time) {
	if t.Len() == 0 {
		return time.Time{}, time.Time{}
	}
	return t.Rows[0].Date, t.Rows[len(t.Rows)-1].Date
}
