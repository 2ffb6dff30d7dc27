package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rickar/cal/v2"
)

var (
	ErrStartAfterEnd = errors.New("holiday range start is after end")
	ErrNoHolidayName = errors.New("no holiday name")
	ErrUnsetDate     = errors.New("unset holiday date")
)

// National holidays with a rule based date. Lunar calendar holidays (Idul Fitri, Idul Adha,
// Nyepi, Waisak, Imlek) are announced yearly and must be supplied as extra dated entries.
var (
	NewYear = &cal.Holiday{
		Name:  "Tahun Baru Masehi",
		Type:  cal.ObservancePublic,
		Month: time.January,
		Day:   1,
		Func:  cal.CalcDayOfMonth,
	}
	LabourDay = &cal.Holiday{
		Name:  "Hari Buruh Internasional",
		Type:  cal.ObservancePublic,
		Month: time.May,
		Day:   1,
		Func:  cal.CalcDayOfMonth,
	}
	PancasilaDay = &cal.Holiday{
		Name:      "Hari Lahir Pancasila",
		Type:      cal.ObservancePublic,
		Month:     time.June,
		Day:       1,
		StartYear: 2017,
		Func:      cal.CalcDayOfMonth,
	}
	IndependenceDay = &cal.Holiday{
		Name:  "Hari Kemerdekaan",
		Type:  cal.ObservancePublic,
		Month: time.August,
		Day:   17,
		Func:  cal.CalcDayOfMonth,
	}
	ChristmasDay = &cal.Holiday{
		Name:  "Hari Raya Natal",
		Type:  cal.ObservancePublic,
		Month: time.December,
		Day:   25,
		Func:  cal.CalcDayOfMonth,
	}
	GoodFriday = &cal.Holiday{
		Name:   "Wafat Isa Almasih",
		Type:   cal.ObservancePublic,
		Offset: -2,
		Func:   calcEasterOffset,
	}
	EasterSunday = &cal.Holiday{
		Name: "Hari Paskah",
		Type: cal.ObservancePublic,
		Func: calcEasterOffset,
	}
	AscensionDay = &cal.Holiday{
		Name:   "Kenaikan Isa Almasih",
		Type:   cal.ObservancePublic,
		Offset: 39,
		Func:   calcEasterOffset,
	}

	National = []*cal.Holiday{
		NewYear,
		GoodFriday,
		EasterSunday,
		LabourDay,
		AscensionDay,
		PancasilaDay,
		IndependenceDay,
		ChristmasDay,
	}
)

// calcEasterOffset returns Gregorian Easter Sunday of year moved by h.Offset days.
func calcEasterOffset(h *cal.Holiday, year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := (19*a + b - b/4 - (b-(b+8)/25+1)/3 + 15) % 30
	e := (32 + 2*(b%4) + 2*(c/4) - d - c%4) % 7
	f := d + e - 7*((a+11*d+22*e)/451) + 114
	month := f / 31
	day := f%31 + 1
	return time.Date(year, time.Month(month), day+h.Offset, 0, 0, 0, 0, time.UTC)
}

// Holiday is a single dated occurrence.
type Holiday struct {
	Name string    `json:"name" yaml:"name"`
	Date time.Time `json:"date" yaml:"date"`
}

func (h Holiday) Valid() error {
	if h.Date.IsZero() {
		return ErrUnsetDate
	}
	if h.Name == "" {
		return ErrNoHolidayName
	}
	return nil
}

// Calendar combines the rule based national holidays with extra dated entries.
type Calendar struct {
	rules []*cal.Holiday
	extra []Holiday
}

// New returns a calendar over the national holidays plus extra. Extra entries are truncated
// to their UTC day.
func New(extra ...Holiday) (*Calendar, error) {
	c := &Calendar{rules: National}
	for _, h := range extra {
		if err := h.Valid(); err != nil {
			return nil, fmt.Errorf("extra holiday %q, %w", h.Name, err)
		}
		c.extra = append(c.extra, Holiday{Name: h.Name, Date: day(h.Date)})
	}
	return c, nil
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Holidays returns every holiday dated within [start, end] ordered by date. Both bounds are
// compared by UTC day.
func (c *Calendar) Holidays(start, end time.Time) ([]Holiday, error) {
	start, end = day(start), day(end)
	if start.After(end) {
		return nil, ErrStartAfterEnd
	}

	res := []Holiday{}
	inRange := func(t time.Time) bool {
		return !t.Before(start) && !t.After(end)
	}
	for year := start.Year(); year <= end.Year(); year++ {
		for _, hol := range c.rules {
			_, observed := hol.Calc(year)
			if observed.IsZero() {
				continue
			}
			// rules compute in cal.DefaultLoc, keep the civil date rather than the instant
			observed = time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, time.UTC)
			if inRange(observed) {
				res = append(res, Holiday{Name: hol.Name, Date: observed})
			}
		}
	}
	for _, h := range c.extra {
		if inRange(h.Date) {
			res = append(res, h)
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Date.Before(res[j].Date)
	})
	return res, nil
}

// Lookup indexes Holidays by ISO date. Names of holidays sharing a date are joined.
func (c *Calendar) Lookup(start, end time.Time) (map[string]string, error) {
	hols, err := c.Holidays(start, end)
	if err != nil {
		return nil, err
	}
	lookup := make(map[string]string, len(hols))
	for _, h := range hols {
		key := h.Date.Format(time.DateOnly)
		if name, exists := lookup[key]; exists {
			lookup[key] = name + ", " + h.Name
			continue
		}
		lookup[key] = h.Name
	}
	return lookup, nil
}
