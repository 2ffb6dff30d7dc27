package storage

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pasar-banyumas/pangan-forecaster/series"
	"github.com/xuri/excelize/v2"
)

const (
	Sheet              = "Sheet1"
	HeaderDate         = "Date"
	HeaderKeterangan   = "Keterangan"
	priceFormatBuiltin = 4 // #,##0.00
)

// WriteTable persists the merged table of one commodity as an xlsx workbook with the columns
// Date, siteA, siteB, Keterangan. The workbook is written to a temporary file next to path
// and renamed over it, so a failed write never leaves a truncated file behind. Errors are
// classified with ErrDirNotFound, ErrPermission or ErrIO.
func WriteTable(path string, table *series.Table, siteA, siteB string) error {
	if table == nil {
		table = &series.Table{}
	}

	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{HeaderDate, siteA, siteB, HeaderKeterangan}
	if err := f.SetSheetRow(Sheet, "A1", &header); err != nil {
		return fmt.Errorf("unable to write header, %w", err)
	}
	for i, r := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Date.Format(time.DateOnly), priceCell(r.A), priceCell(r.B), string(r.Keterangan)}
		if err := f.SetSheetRow(Sheet, cell, &row); err != nil {
			return fmt.Errorf("unable to write row %d, %w", i+2, err)
		}
	}

	if table.Len() > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: priceFormatBuiltin})
		if err != nil {
			return err
		}
		last := fmt.Sprintf("C%d", table.Len()+1)
		if err := f.SetCellStyle(Sheet, "B2", last, style); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(Sheet, "A", "D", 18); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("unable to save %s, %w", path, classify(err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to save %s, %w", path, classify(err))
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to save %s, %w", path, classify(err))
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("unable to save %s, %w", path, classify(err))
	}
	return nil
}

// ReadTable loads a workbook written by WriteTable. It returns the table and the two site
// names taken from the header.
func ReadTable(path string) (*series.Table, []string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open %s, %w", path, classify(err))
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read %s, %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s has no header, %w", path, ErrMissingColumn)
	}

	header := rows[0]
	if len(header) < 4 {
		return nil, nil, fmt.Errorf("%s header %v, %w", path, header, ErrMissingColumn)
	}
	if !strings.EqualFold(header[0], HeaderDate) {
		return nil, nil, fmt.Errorf("%s first column %q, want %q, %w", path, header[0], HeaderDate, ErrMissingColumn)
	}
	if !strings.EqualFold(header[3], HeaderKeterangan) {
		return nil, nil, fmt.Errorf("%s fourth column %q, want %q, %w", path, header[3], HeaderKeterangan, ErrMissingColumn)
	}
	sites := []string{header[1], header[2]}

	table := &series.Table{Rows: make([]series.Row, 0, len(rows)-1)}
	for i, rec := range rows[1:] {
		line := i + 2
		if len(rec) == 0 {
			continue
		}
		for len(rec) < 4 {
			rec = append(rec, "")
		}

		date, err := parseCellDate(rec[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d, %w", path, line, err)
		}
		a, err := parseCellPrice(rec[1])
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d, %w", path, line, err)
		}
		b, err := parseCellPrice(rec[2])
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d, %w", path, line, err)
		}
		prov, err := series.ParseProvenance(rec[3])
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d, %w", path, line, err)
		}
		table.Rows = append(table.Rows, series.Row{Date: date, A: a, B: b, Keterangan: prov})
	}
	return table, sites, nil
}

// parseCellDate accepts ISO dates as written by WriteTable and excel date serials from
// workbooks edited by hand.
func parseCellDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("date serial %q, %w", s, ErrParse)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// priceCell leaves an absent price as an empty cell.
func priceCell(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// parseCellPrice treats an empty cell as an absent value.
func parseCellPrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q, %w", s, ErrParse)
	}
	return v, nil
}
