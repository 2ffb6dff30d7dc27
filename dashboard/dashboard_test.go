package dashboard

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pasar-banyumas/pangan-forecaster/calendar"
	"github.com/pasar-banyumas/pangan-forecaster/config"
	"github.com/pasar-banyumas/pangan-forecaster/series"
	"github.com/pasar-banyumas/pangan-forecaster/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func date(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func testView() *View {
	cfg := config.Default()
	return &View{
		Key:   "daging_ayam",
		Name:  "Daging Ayam",
		Sites: cfg.Sites,
		Table: &series.Table{Rows: []series.Row{
			{Date: date(8, 15), A: 35000, B: 34000, Keterangan: series.Historical},
			{Date: date(8, 16), A: 35500, B: 34250.5, Keterangan: series.Historical},
			{Date: date(8, 17), A: 35712.4, B: 34400, Keterangan: series.Forecast},
			{Date: date(8, 18), A: 35800, B: 34500, Keterangan: series.Forecast},
		}},
		Holidays: map[string]string{"2024-08-17": "Hari Kemerdekaan"},
	}
}

func TestRupiah(t *testing.T) {
	testData := map[string]struct {
		v        float64
		expected string
	}{
		"thousands": {v: 35000, expected: "Rp 35.000,00"},
		"cents":     {v: 34250.5, expected: "Rp 34.250,50"},
		"small":     {v: 500, expected: "Rp 500,00"},
		"millions":  {v: 1234567.891, expected: "Rp 1.234.567,89"},
		"negative":  {v: -1500, expected: "-Rp 1.500,00"},
		"absent":    {v: math.NaN(), expected: "-"},
		"infinite":  {v: math.Inf(1), expected: "-"},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, Rupiah(td.v))
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "pasar_manis", Slug("Pasar Manis"))
	assert.Equal(t, "pasar_wage", Slug("  Pasar   Wage "))
}

func TestFilter(t *testing.T) {
	v := testView()

	got, err := Filter(v.Table, date(8, 16), date(8, 17))
	require.Nil(t, err)
	assert.Equal(t, 2, got.Len())

	got, err = Filter(v.Table, time.Time{}, time.Time{})
	require.Nil(t, err)
	assert.Equal(t, 4, got.Len())

	_, err = Filter(v.Table, date(8, 18), date(8, 15))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestPage(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, Page(&buf, testView()))

	html := buf.String()
	assert.Contains(t, html, "Forecast Daging Ayam Pasar Manis")
	assert.Contains(t, html, "Forecast Daging Ayam Pasar Wage")
	assert.Contains(t, html, "Lokasi Pasar")
	assert.Contains(t, html, "Rp 35.712,40")
	assert.Contains(t, html, "Hari Kemerdekaan")
	assert.Contains(t, html, "dashed")

	tableAt := strings.Index(html, "List Harga Daging Ayam")
	bodyEnd := strings.LastIndex(html, "</body>")
	require.True(t, tableAt > 0)
	assert.Less(t, tableAt, bodyEnd)

	v := testView()
	v.Sites = v.Sites[:1]
	assert.ErrorIs(t, Page(&buf, v), ErrSiteCount)
}

func TestSitePlot(t *testing.T) {
	v := testView()

	for site := range v.Sites {
		var buf bytes.Buffer
		require.Nil(t, SitePlot(&buf, v, site))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	}

	assert.ErrorIs(t, SitePlot(&bytes.Buffer{}, v, 2), ErrUnknownSite)

	v.Table = v.Table.Between(time.Time{}, date(8, 16))
	assert.ErrorIs(t, SitePlot(&bytes.Buffer{}, v, 0), ErrNoForecast)
}

func TestRender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	historical := testView()
	historical.Key = "bawang_merah"
	historical.Table = historical.Table.Between(time.Time{}, date(8, 16))

	written, err := Render(dir, []*View{testView(), historical})
	require.Nil(t, err)

	expected := []string{
		filepath.Join(dir, "daging_ayam.html"),
		filepath.Join(dir, "daging_ayam_pasar_manis.png"),
		filepath.Join(dir, "daging_ayam_pasar_wage.png"),
		filepath.Join(dir, "bawang_merah.html"),
	}
	assert.Equal(t, expected, written)
	for _, path := range written {
		info, err := os.Stat(path)
		require.Nil(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestLoadView(t *testing.T) {
	cfg := config.Default()
	cfg.BasePath = t.TempDir()
	cm := cfg.Commodities[0]

	v := testView()
	require.Nil(t, storage.WriteTable(cfg.Path(cm.OutputPath), v.Table, "Pasar Manis", "Pasar Wage"))

	cal, err := calendar.New()
	require.Nil(t, err)

	got, err := LoadView(cfg, cm, cal, date(8, 16), time.Time{})
	require.Nil(t, err)
	assert.Equal(t, "daging_ayam", got.Key)
	assert.Equal(t, 3, got.Table.Len())
	assert.Equal(t, cfg.Sites, got.Sites)
	assert.Equal(t, map[string]string{"2024-08-17": "Hari Kemerdekaan"}, got.Holidays)

	_, err = LoadView(cfg, cfg.Commodities[1], cal, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, storage.ErrDirNotFound)
}
