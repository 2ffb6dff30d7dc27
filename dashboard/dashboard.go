package dashboard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pasar-banyumas/pangan-forecaster/calendar"
	"github.com/pasar-banyumas/pangan-forecaster/config"
	"github.com/pasar-banyumas/pangan-forecaster/series"
	"github.com/pasar-banyumas/pangan-forecaster/storage"
)

var (
	ErrInvalidRange = errors.New("start date is after end date")
	ErrSiteCount    = errors.New("a view needs exactly two sites")
	ErrNoForecast   = errors.New("table has no forecast rows")
	ErrUnknownSite  = errors.New("unknown site")
)

// View is everything needed to render the page of one commodity.
type View struct {
	Key      string
	Name     string
	Sites    []config.Site
	Table    *series.Table
	Holidays map[string]string
}

// Filter restricts table to [start, end]. Zero bounds are open.
func Filter(table *series.Table, start, end time.Time) (*series.Table, error) {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return nil, fmt.Errorf("%s after %s, %w", start.Format(time.DateOnly), end.Format(time.DateOnly), ErrInvalidRange)
	}
	return table.Between(start, end), nil
}

// LoadView reads the saved workbook of cm and prepares it for rendering. Site names come from
// the workbook header, coordinates from the matching configured site.
func LoadView(cfg *config.Config, cm config.Commodity, cal *calendar.Calendar, start, end time.Time) (*View, error) {
	table, names, err := storage.ReadTable(cfg.Path(cm.OutputPath))
	if err != nil {
		return nil, err
	}
	table, err = Filter(table, start, end)
	if err != nil {
		return nil, err
	}

	sites := make([]config.Site, len(names))
	for i, name := range names {
		sites[i] = config.Site{Name: name}
		for _, s := range cfg.Sites {
			if s.Name == name {
				sites[i] = s
				break
			}
		}
	}

	v := &View{
		Key:      cm.Key,
		Name:     cm.Name,
		Sites:    sites,
		Table:    table,
		Holidays: map[string]string{},
	}
	if cal != nil && table.Len() > 0 {
		first, last := table.Span()
		v.Holidays, err = cal.Lookup(first, last)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Render writes <key>.html and one <key>_<site>.png per site for every view into dir.
func Render(dir string, views []*View) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create output directory, %w", err)
	}

	var written []string
	for _, v := range views {
		path := filepath.Join(dir, v.Key+".html")
		if err := writeFile(path, func(f *os.File) error { return Page(f, v) }); err != nil {
			return written, err
		}
		written = append(written, path)

		for i, site := range v.Sites {
			path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", v.Key, Slug(site.Name)))
			err := writeFile(path, func(f *os.File) error { return SitePlot(f, v, i) })
			if errors.Is(err, ErrNoForecast) {
				continue
			}
			if err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func writeFile(path string, render func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s, %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("unable to render %s, %w", path, err)
	}
	return f.Close()
}
