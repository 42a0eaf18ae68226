package flatfile

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
)

// Columns is the artifact's stable column order. Downstream dashboards bind
// to these names; do not reorder.
var Columns = []string{
	"city",
	"timestamp",
	"temperature",
	"wind_speed",
	"precipitation",
	"pm10",
	"temperature_band",
	"wind_category",
	"is_weekend",
	"is_new_years_eve",
	"heating_season",
}

// Writer emits the enriched dataset as a single tabular artifact. A .xlsx
// output path produces an Excel workbook, anything else a CSV.
type Writer struct {
	Path   string
	Logger *slog.Logger
}

// Write serializes the records atomically: the artifact is built in a
// temporary file next to the target and moved into place, so a failed run
// never leaves a partial artifact. An existing artifact is overwritten.
func (w *Writer) Write(records []domain.EnrichedRecord) error {
	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.WriteError{Path: w.Path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return &domain.WriteError{Path: w.Path, Err: err}
	}
	tmpPath := tmp.Name()

	var werr error
	if strings.EqualFold(filepath.Ext(w.Path), ".xlsx") {
		tmp.Close()
		werr = writeXLSX(tmpPath, records)
	} else {
		werr = writeCSV(tmp, records)
		if cerr := tmp.Close(); werr == nil {
			werr = cerr
		}
	}
	if werr != nil {
		os.Remove(tmpPath)
		return &domain.WriteError{Path: w.Path, Err: werr}
	}

	if err := os.Rename(tmpPath, w.Path); err != nil {
		os.Remove(tmpPath)
		return &domain.WriteError{Path: w.Path, Err: err}
	}

	if w.Logger != nil {
		w.Logger.Info("artifact written", "path", w.Path, "records", len(records))
	}
	return nil
}

func writeCSV(f *os.File, records []domain.EnrichedRecord) error {
	cw := csv.NewWriter(f)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(recordRow(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(path string, records []domain.EnrichedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for i, name := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	for rowIdx, rec := range records {
		for colIdx, value := range recordRow(rec) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

func recordRow(rec domain.EnrichedRecord) []string {
	return []string{
		rec.City,
		rec.Timestamp.Format(time.RFC3339),
		formatFloat(rec.TemperatureC),
		formatFloat(rec.WindSpeedKmh),
		formatFloat(rec.PrecipitationMm),
		formatFloat(rec.PM10),
		string(rec.TemperatureBand),
		string(rec.WindCategory),
		strconv.FormatBool(rec.IsWeekend),
		strconv.FormatBool(rec.IsNewYearsEve),
		strconv.FormatBool(rec.HeatingSeason),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteAtomic is the temp-and-rename helper shared with the report package:
// fill runs once per file, and rename makes the file appear complete or not
// at all.
func WriteAtomic(path string, fill func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	err = fill(tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
