package export

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldspec/spectevol/internal/spectrum"
	"github.com/fieldspec/spectevol/internal/vegindex"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return records
}

func TestWriteTable(t *testing.T) {
	table, err := spectrum.NewTable(
		[]int{500, 501, 502},
		[]float64{0.1, 0.23456, math.NaN(), 0.9, 1.0, 0.5},
	)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "reflectance.csv")
	if err := WriteTable(path, table); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("wrote %d records, want 3", len(records))
	}

	header := records[0]
	if len(header) != 4 || header[0] != "sample" || header[1] != "500" || header[3] != "502" {
		t.Errorf("header = %v", header)
	}
	if records[1][0] != "0" || records[2][0] != "1" {
		t.Errorf("sample indices = %s, %s", records[1][0], records[2][0])
	}
	if records[1][1] != "0.100" {
		t.Errorf("value = %s, want 0.100", records[1][1])
	}
	if records[1][2] != "0.235" {
		t.Errorf("value = %s, want 0.235", records[1][2])
	}
	if records[1][3] != "" {
		t.Errorf("NaN field = %q, want empty", records[1][3])
	}
	if records[2][1] != "0.900" {
		t.Errorf("value = %s, want 0.900", records[2][1])
	}
}

func TestWriteSeries(t *testing.T) {
	series := []*vegindex.Series{
		{Index: "ndvi", Values: []float64{0.5, 0.25}},
		{Index: "ndvi", NIRBand: "nira", Values: []float64{0.52, 0.27}},
		{Index: "gci", Values: []float64{1.5, math.Inf(1)}},
		{Index: "msavi", Values: []float64{math.NaN(), 0.75}},
	}

	path := filepath.Join(t.TempDir(), "indices.csv")
	if err := WriteSeries(path, series); err != nil {
		t.Fatalf("WriteSeries() error = %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("wrote %d records, want 3", len(records))
	}

	header := records[0]
	want := []string{"sample", "ndvi", "ndvi_nira", "gci", "msavi"}
	if len(header) != len(want) {
		t.Fatalf("header = %v, want %v", header, want)
	}
	for i := range want {
		if header[i] != want[i] {
			t.Errorf("header[%d] = %s, want %s", i, header[i], want[i])
		}
	}

	if records[1][1] != "0.500" || records[2][1] != "0.250" {
		t.Errorf("ndvi column = %s, %s", records[1][1], records[2][1])
	}
	if records[1][2] != "0.520" {
		t.Errorf("ndvi_nira value = %s, want 0.520", records[1][2])
	}
	if records[2][3] != "" {
		t.Errorf("Inf field = %q, want empty", records[2][3])
	}
	if records[1][4] != "" {
		t.Errorf("NaN field = %q, want empty", records[1][4])
	}
}
