package flatfile

import (
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
)

func sampleEnriched() []domain.EnrichedRecord {
	return []domain.EnrichedRecord{
		{
			City:            "Kraków",
			Timestamp:       time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			TemperatureC:    -2.5,
			WindSpeedKmh:    8,
			PrecipitationMm: 0,
			PM10:            120.5,
			TemperatureBand: domain.BandBelowZero,
			WindCategory:    domain.WindLow,
			IsWeekend:       false,
			IsNewYearsEve:   true,
			HeatingSeason:   true,
			Scenario:        domain.ScenarioColdCalm,
		},
		{
			City:            "Gdańsk",
			Timestamp:       time.Date(2024, time.July, 6, 0, 0, 0, 0, time.UTC),
			TemperatureC:    21,
			WindSpeedKmh:    18,
			PrecipitationMm: 1.2,
			PM10:            15,
			TemperatureBand: domain.BandAboveTen,
			WindCategory:    domain.WindHigh,
			IsWeekend:       true,
			Scenario:        domain.ScenarioSummer,
		},
	}
}

func TestWriter_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "enriched.csv")
	w := &Writer{Path: path, Logger: slog.Default()}

	require.NoError(t, w.Write(sampleEnriched()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Columns, rows[0], "stable column order")
	assert.Equal(t, []string{
		"Kraków", "2024-01-01T00:00:00Z", "-2.5", "8", "0", "120.5",
		"<0", "low", "false", "true", "true",
	}, rows[1])
	assert.Equal(t, "Gdańsk", rows[2][0])
	assert.Equal(t, "high", rows[2][7])
}

func TestWriter_OverwritesExistingArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	w := &Writer{Path: path}
	require.NoError(t, w.Write(sampleEnriched()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "city,timestamp,"))
}

func TestWriter_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Path: filepath.Join(dir, "enriched.csv")}
	require.NoError(t, w.Write(sampleEnriched()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "enriched.csv", entries[0].Name())
}

func TestWriter_WriteErrorOnUnwritableTarget(t *testing.T) {
	// A directory at the target path makes the final rename fail.
	dir := t.TempDir()
	target := filepath.Join(dir, "enriched.csv")
	require.NoError(t, os.Mkdir(target, 0o755))

	w := &Writer{Path: target}
	err := w.Write(sampleEnriched())
	require.Error(t, err)

	var werr *domain.WriteError
	assert.True(t, errors.As(err, &werr))
}

func TestWriter_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.xlsx")
	w := &Writer{Path: path}

	require.NoError(t, w.Write(sampleEnriched()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "Kraków", rows[1][0])
}

func TestWriteAtomic_CleansUpOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.csv")

	err := WriteAtomic(path, func(*os.File) error { return errors.New("boom") })
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "failed write must not leave an artifact")
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "temp file must be removed")
}
