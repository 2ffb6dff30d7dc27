package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pasar-banyumas/pangan-forecaster/series"
)

// missing is the echarts placeholder for a gap in a line series.
const missing = "-"

// LineForecast generates an echart line chart of one site with the historical segment drawn
// solid and the forecast segment dashed on a shared date axis.
func LineForecast(title string, table *series.Table, site int) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Rp", Scale: opts.Bool(true)}),
	)

	dates := make([]string, 0, table.Len())
	hist := make([]opts.LineData, 0, table.Len())
	fc := make([]opts.LineData, 0, table.Len())
	for i, r := range table.Rows {
		dates = append(dates, r.Date.Format(time.DateOnly))
		v := r.A
		if site == 1 {
			v = r.B
		}

		switch {
		case math.IsNaN(v):
			hist = append(hist, opts.LineData{Value: missing})
			fc = append(fc, opts.LineData{Value: missing})
		case r.Keterangan == series.Historical:
			hist = append(hist, opts.LineData{Value: v})
			// the last observed day also opens the forecast line so both segments connect
			if i+1 < table.Len() && table.Rows[i+1].Keterangan == series.Forecast {
				fc = append(fc, opts.LineData{Value: v})
			} else {
				fc = append(fc, opts.LineData{Value: missing})
			}
		default:
			hist = append(hist, opts.LineData{Value: missing})
			fc = append(fc, opts.LineData{Value: v})
		}
	}

	line.SetXAxis(dates).
		AddSeries(string(series.Historical), hist,
			charts.WithLineStyleOpts(opts.LineStyle{Type: "solid"}),
		).
		AddSeries(string(series.Forecast), fc,
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Color: "red"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "red"}),
		)
	return line
}

// ScatterMarkets places every site at its coordinates, longitude on x and latitude on y.
func ScatterMarkets(v *View) *charts.Scatter {
	scatter := charts.NewScatter()

	minLon, maxLon := math.Inf(1), math.Inf(-1)
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	data := make([]opts.ScatterData, 0, len(v.Sites))
	for _, s := range v.Sites {
		data = append(data, opts.ScatterData{
			Name:       s.Name,
			Value:      []float64{s.Lon, s.Lat},
			SymbolSize: 18,
		})
		minLon, maxLon = math.Min(minLon, s.Lon), math.Max(maxLon, s.Lon)
		minLat, maxLat = math.Min(minLat, s.Lat), math.Max(maxLat, s.Lat)
	}
	const pad = 0.005

	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Lokasi Pasar"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: "{b}"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", Type: "value", Min: minLon - pad, Max: maxLon + pad}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", Type: "value", Min: minLat - pad, Max: maxLat + pad}),
	)
	scatter.AddSeries("Pasar", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right", Formatter: "{b}"}),
	)
	return scatter
}

var tableTmpl = template.Must(template.New("table").Parse(`
<div class="container" style="display:block;margin:24px auto;max-width:900px">
<h3>List Harga {{.Name}}</h3>
<table style="border-collapse:collapse;width:100%">
<thead><tr>
<th style="text-align:left">Date</th>
{{range .Sites}}<th style="text-align:right">{{.}}</th>{{end}}
<th style="text-align:left">Keterangan</th>
<th style="text-align:left">Hari Libur</th>
</tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.Date}}</td><td style="text-align:right">{{.A}}</td><td style="text-align:right">{{.B}}</td>
<td>{{.Keterangan}}</td><td>{{.Holiday}}</td>
</tr>
{{end}}</tbody>
</table>
</div>
`))

type tableRow struct {
	Date       string
	A          string
	B          string
	Keterangan string
	Holiday    string
}

// Page renders the dashboard of one commodity: a forecast chart per site, the market map and
// the formatted price table.
func Page(w io.Writer, v *View) error {
	if len(v.Sites) != 2 {
		return fmt.Errorf("got %d, %w", len(v.Sites), ErrSiteCount)
	}

	page := components.NewPage()
	page.PageTitle = "Forecast Harga " + v.Name
	for i, s := range v.Sites {
		page.AddCharts(LineForecast(fmt.Sprintf("Forecast %s %s", v.Name, s.Name), v.Table, i))
	}
	page.AddCharts(ScatterMarkets(v))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("unable to render charts, %w", err)
	}

	rows := make([]tableRow, 0, v.Table.Len())
	for _, r := range v.Table.Rows {
		key := r.Date.Format(time.DateOnly)
		rows = append(rows, tableRow{
			Date:       key,
			A:          Rupiah(r.A),
			B:          Rupiah(r.B),
			Keterangan: string(r.Keterangan),
			Holiday:    v.Holidays[key],
		})
	}
	var table bytes.Buffer
	err := tableTmpl.Execute(&table, struct {
		Name  string
		Sites []string
		Rows  []tableRow
	}{
		Name:  v.Name,
		Sites: []string{v.Sites[0].Name, v.Sites[1].Name},
		Rows:  rows,
	})
	if err != nil {
		return fmt.Errorf("unable to render price table, %w", err)
	}

	html := buf.Bytes()
	end := bytes.LastIndex(html, []byte("</body>"))
	if end < 0 {
		end = len(html)
	}
	for _, chunk := range [][]byte{html[:end], table.Bytes(), html[end:]} {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}
