package dashboard

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/pasar-banyumas/pangan-forecaster/series"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 7 * vg.Inch
	plotHeight = 3 * vg.Inch
)

// SitePlot renders the forecast segment of one site as a PNG, the chart shown when a market
// is picked on the map.
func SitePlot(w io.Writer, v *View, site int) error {
	if site < 0 || site >= len(v.Sites) || site > 1 {
		return fmt.Errorf("site index %d, %w", site, ErrUnknownSite)
	}

	xys := make(plotter.XYs, 0, v.Table.Len())
	for _, r := range v.Table.Rows {
		if r.Keterangan != series.Forecast {
			continue
		}
		y := r.A
		if site == 1 {
			y = r.B
		}
		if math.IsNaN(y) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(r.Date.Unix()), Y: y})
	}
	if len(xys) == 0 {
		return fmt.Errorf("%s at %s, %w", v.Key, v.Sites[site].Name, ErrNoForecast)
	}

	p := plot.New()
	p.Title.Text = "Forecast " + v.Sites[site].Name
	p.Title.TextStyle.Font.Size = vg.Points(15)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.X.Tick.Label.Font.Size = vg.Points(7)
	p.Y.Tick.Label.Font.Size = vg.Points(7)
	p.Y.Label.Text = "Rp"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("unable to build forecast line, %w", err)
	}
	line.LineStyle.Color = color.RGBA{R: 220, A: 255}
	line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(string(series.Forecast), line)
	p.Legend.Top = true

	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("unable to create png writer, %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
