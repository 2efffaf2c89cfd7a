package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldspec/spectevol/internal/spectrum"
	"github.com/fieldspec/spectevol/internal/storage"
)

// writeRampFile writes a sample file whose reflectance rises linearly with
// wavelength, offset by off.
func writeRampFile(t *testing.T, dir, name string, headerLines int, off float64) {
	t.Helper()

	var b strings.Builder
	for i := 0; i < headerLines; i++ {
		fmt.Fprintf(&b, "header line %d\n", i+1)
	}
	for w := spectrum.WavelengthStart; w <= spectrum.WavelengthEnd; w++ {
		fmt.Fprintf(&b, "%d\t%.6f\n", w, float64(w)/10000+off)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o644); err != nil {
		t.Fatalf("writing sample file: %v", err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	sampleDir := t.TempDir()
	writeRampFile(t, sampleDir, "a.sed", 3, 0)
	writeRampFile(t, sampleDir, "b.sed", 3, 0.01)

	outDir := t.TempDir()
	dbPath := filepath.Join(outDir, "results.sqlite")
	exportDir := filepath.Join(outDir, "csv")

	headerLines, window, poly := 3, 11, 2
	config := &Config{
		Input:     InputConfig{Dir: sampleDir, HeaderLines: &headerLines},
		Smoothing: SmoothingConfig{Enabled: true, WindowLength: &window, PolyOrder: &poly},
		Analysis: AnalysisConfig{
			Sensor:  "general",
			Method:  "centerband",
			Indices: []IndexConfig{{Name: "ndvi"}, {Name: "gci"}},
		},
		Storage: StorageConfig{Path: dbPath},
		Export:  ExportConfig{Dir: exportDir},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Run(context.Background(), config, logger); err != nil {
		t.Fatalf("Run() returned %v", err)
	}

	for _, name := range []string{rawExportName, smoothedExportName, indicesExportName} {
		if _, err := os.Stat(filepath.Join(exportDir, name)); err != nil {
			t.Errorf("export %s: %v", name, err)
		}
	}
	head, err := os.ReadFile(filepath.Join(exportDir, rawExportName))
	if err != nil {
		t.Fatalf("reading raw export: %v", err)
	}
	if !strings.HasPrefix(string(head), "sample,350,351,") {
		t.Errorf("raw export starts with %q", string(head[:24]))
	}

	store := storage.NewSqliteStore(dbPath)
	defer func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	}()

	ctx := context.Background()
	datasets, err := store.Datasets(ctx)
	if err != nil {
		t.Fatalf("Datasets() returned %v", err)
	}
	if len(datasets) != 1 {
		t.Fatalf("Datasets() returned %d datasets, want 1", len(datasets))
	}

	ds := datasets[0]
	if ds.FileCount != 2 || ds.RowCount != 2 {
		t.Errorf("dataset counts = %d files, %d rows, want 2 and 2", ds.FileCount, ds.RowCount)
	}
	if ds.Sensor != "general" || ds.Method != "centerband" {
		t.Errorf("dataset analysis = %s/%s", ds.Sensor, ds.Method)
	}
	if ds.WindowLength == nil || *ds.WindowLength != 11 || ds.PolyOrder == nil || *ds.PolyOrder != 2 {
		t.Errorf("dataset smoothing = %v/%v, want 11/2", ds.WindowLength, ds.PolyOrder)
	}
	if ds.Config == nil || !strings.Contains(*ds.Config, `"sensor":"general"`) {
		t.Errorf("dataset config snapshot = %v", ds.Config)
	}

	series, err := store.IndexSeries(ctx, ds.ID)
	if err != nil {
		t.Fatalf("IndexSeries() returned %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("IndexSeries() returned %d series, want 2", len(series))
	}
	if series[0].Index != "gci" || series[1].Index != "ndvi" {
		t.Fatalf("series order = %s, %s", series[0].Index, series[1].Index)
	}

	// A ramp puts 0.075 at the NIR center (750 nm) and 0.0645 at the red
	// center (645 nm); NDVI for the first sample rounds to 0.075.
	ndvi := series[1]
	if len(ndvi.Values) != 2 {
		t.Fatalf("ndvi series has %d values, want 2", len(ndvi.Values))
	}
	if math.Abs(ndvi.Values[0]-0.075) > 1e-9 {
		t.Errorf("ndvi[0] = %v, want 0.075", ndvi.Values[0])
	}
}

func TestRunRejectsUnknownSensor(t *testing.T) {
	headerLines := 3
	config := &Config{
		Input:    InputConfig{Dir: t.TempDir(), HeaderLines: &headerLines},
		Analysis: AnalysisConfig{Sensor: "modis", Method: "centerband"},
		Storage:  StorageConfig{Path: filepath.Join(t.TempDir(), "results.sqlite")},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Run(context.Background(), config, logger); err == nil {
		t.Fatal("Run() accepted an unknown sensor")
	}
}

func TestRunRejectsUnknownNIRBand(t *testing.T) {
	sampleDir := t.TempDir()
	writeRampFile(t, sampleDir, "a.sed", 3, 0)

	headerLines := 3
	config := &Config{
		Input: InputConfig{Dir: sampleDir, HeaderLines: &headerLines},
		Analysis: AnalysisConfig{
			Sensor:  "general",
			Method:  "centerband",
			Indices: []IndexConfig{{Name: "ndvi", NIRBand: "nira"}},
		},
		Storage: StorageConfig{Path: filepath.Join(t.TempDir(), "results.sqlite")},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := Run(context.Background(), config, logger)
	if err == nil {
		t.Fatal("Run() accepted a band the sensor does not define")
	}
	if !strings.Contains(err.Error(), "nira") {
		t.Errorf("error = %q, want the band name", err)
	}
}
