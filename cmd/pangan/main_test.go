package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pasar-banyumas/pangan-forecaster/config"
	"github.com/pasar-banyumas/pangan-forecaster/predictor"
	"github.com/pasar-banyumas/pangan-forecaster/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestPromptHorizon(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected int
		err      error
	}{
		"empty line":      {input: "\n", expected: 0},
		"end of input":    {input: "", expected: 0},
		"number":          {input: "30\n", expected: 30},
		"padded":          {input: "  7 \n", expected: 7},
		"no newline":      {input: "93", expected: 93},
		"negative":        {input: "-1\n", expected: -1},
		"not a number":    {input: "tiga\n", err: ErrInvalidAnswer},
		"fractional days": {input: "1.5\n", err: ErrInvalidAnswer},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			n, err := promptHorizon(reader(td.input), &out)
			assert.Contains(t, out.String(), "jumlah hari")
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, n)
		})
	}
}

func TestConfirm(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected bool
	}{
		"y":            {input: "y\n", expected: true},
		"upper yes":    {input: "YES\n", expected: true},
		"ya":           {input: " ya \n", expected: true},
		"n":            {input: "n\n"},
		"empty":        {input: "\n"},
		"end of input": {input: ""},
		"other":        {input: "mungkin\n"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			ok, err := confirm(reader(td.input), &out, "retry? ")
			require.Nil(t, err)
			assert.Equal(t, td.expected, ok)
			assert.Equal(t, "retry? ", out.String())
		})
	}
}

func TestDescribeSaveError(t *testing.T) {
	testData := map[string]struct {
		err      error
		contains string
	}{
		"missing directory": {
			err:      fmt.Errorf("%w, %w", storage.ErrDirNotFound, os.ErrNotExist),
			contains: "direktori tidak ditemukan",
		},
		"permission": {
			err:      fmt.Errorf("%w, %w", storage.ErrPermission, os.ErrPermission),
			contains: "izin",
		},
		"other": {
			err:      fmt.Errorf("%w, disk full", storage.ErrIO),
			contains: "disk full",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, describeSaveError(td.err), td.contains)
		})
	}
}

func TestParseDateFlag(t *testing.T) {
	d, err := parseDateFlag("start", "")
	require.Nil(t, err)
	assert.True(t, d.IsZero())

	d, err = parseDateFlag("start", "2024-02-29")
	require.Nil(t, err)
	assert.Equal(t, "2024-02-29", d.Format("2006-01-02"))

	_, err = parseDateFlag("end", "29/02/2024")
	assert.ErrorContains(t, err, "--end")
}

func deployment(t *testing.T) *config.Config {
	t.Helper()
	c := config.Default()
	c.BasePath = t.TempDir()

	for _, cm := range c.Commodities {
		content := "tanggal,pasar manis,pasar wage\n" +
			"2024-01-01,30000,28000\n2024-01-02,31000,28500\n2024-01-03,29000,29500\n"
		require.Nil(t, os.WriteFile(c.Path(cm.HistoryPath), []byte(content), 0o644))

		modelPath := c.Path(cm.ModelPath)
		require.Nil(t, os.MkdirAll(filepath.Dir(modelPath), 0o755))
		data, err := json.Marshal(predictor.Model{Type: predictor.TypePersistence, Lookback: 1})
		require.Nil(t, err)
		require.Nil(t, os.WriteFile(modelPath, data, 0o644))
	}
	return c
}

func TestRunForecast(t *testing.T) {
	cfg = deployment(t)
	t.Cleanup(func() { cfg = nil })

	var out bytes.Buffer
	require.Nil(t, runForecast(context.Background(), reader(""), &out, 3))

	for _, cm := range cfg.Commodities {
		assert.Contains(t, out.String(), "Data "+cm.Key+" berhasil disimpan")
		table, sites, err := storage.ReadTable(cfg.Path(cm.OutputPath))
		require.Nil(t, err)
		assert.Equal(t, []string{"Pasar Manis", "Pasar Wage"}, sites)
		assert.Equal(t, 6, table.Len())
	}
}

func TestRunForecastDeclinedRetry(t *testing.T) {
	cfg = deployment(t)
	t.Cleanup(func() { cfg = nil })
	cfg.Commodities[1].OutputPath = filepath.Join("missing", "out.xlsx")

	var out bytes.Buffer
	err := runForecast(context.Background(), reader("n\n"), &out, 2)
	assert.ErrorContains(t, err, "1 of 2 forecasts were not saved")
	assert.Contains(t, out.String(), "Data "+cfg.Commodities[0].Key+" berhasil disimpan")
	assert.Contains(t, out.String(), "direktori tidak ditemukan")
}

func TestRunForecastRetry(t *testing.T) {
	cfg = deployment(t)
	t.Cleanup(func() { cfg = nil })
	cfg.Commodities[1].OutputPath = filepath.Join("later", "out.xlsx")

	// The first attempt fails, the operator creates the directory and retries.
	in := reader("y\n")
	var out bytes.Buffer
	w := &hookWriter{Writer: &out, onPrompt: func() {
		require.Nil(t, os.MkdirAll(cfg.Path("later"), 0o755))
	}}
	require.Nil(t, runForecast(context.Background(), in, w, 2))
	assert.Equal(t, 1, strings.Count(out.String(), "Data "+cfg.Commodities[0].Key+" berhasil disimpan"),
		"a commodity already saved is not written again")
	assert.Contains(t, out.String(), "Data "+cfg.Commodities[1].Key+" berhasil disimpan")
}

// hookWriter calls onPrompt the first time the retry question is written.
type hookWriter struct {
	Writer   *bytes.Buffer
	onPrompt func()
	fired    bool
}

func (h *hookWriter) Write(p []byte) (int, error) {
	if !h.fired && strings.Contains(string(p), "Coba simpan ulang") {
		h.fired = true
		h.onPrompt()
	}
	return h.Writer.Write(p)
}
