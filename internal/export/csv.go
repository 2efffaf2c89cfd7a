// Package export writes processing results to CSV files. Reflectance values
// and index values are formatted with three decimal places; non-finite
// values produce empty fields, full fidelity stays in the results store.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/fieldspec/spectevol/internal/spectrum"
	"github.com/fieldspec/spectevol/internal/vegindex"
)

// exportBufferSize absorbs write syscall overhead for the wide reflectance
// rows.
const exportBufferSize = 256 * 1024

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// SeriesLabel is the CSV column label for an index series: the index name,
// qualified with the NIR band when an alternate one was selected.
func SeriesLabel(s *vegindex.Series) string {
	if s.NIRBand != "" && s.NIRBand != "nir" {
		return s.Index + "_" + s.NIRBand
	}
	return s.Index
}

// WriteTable writes a reflectance table to path. The header row carries
// "sample" followed by the wavelength labels in nanometers; each data row
// starts with its sample index.
func WriteTable(path string, t *spectrum.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer closeWithError(f, &err)

	bw := bufio.NewWriterSize(f, exportBufferSize)
	cw := csv.NewWriter(bw)

	header := make([]string, 0, t.Cols()+1)
	header = append(header, "sample")
	for _, w := range t.Wavelengths() {
		header = append(header, strconv.Itoa(w))
	}
	if err = cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(header))
	for i := 0; i < t.Rows(); i++ {
		record[0] = strconv.Itoa(i)
		for j, v := range t.Row(i) {
			record[j+1] = formatValue(v)
		}
		if err = cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err = cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	return nil
}

// WriteSeries writes vegetation index series to path, one column per series
// and one row per sample.
func WriteSeries(path string, series []*vegindex.Series) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer closeWithError(f, &err)

	bw := bufio.NewWriterSize(f, exportBufferSize)
	cw := csv.NewWriter(bw)

	header := make([]string, 0, len(series)+1)
	header = append(header, "sample")
	rows := 0
	for _, s := range series {
		header = append(header, SeriesLabel(s))
		if len(s.Values) > rows {
			rows = len(s.Values)
		}
	}
	if err = cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(header))
	for i := 0; i < rows; i++ {
		record[0] = strconv.Itoa(i)
		for j, s := range series {
			if i < len(s.Values) {
				record[j+1] = formatValue(s.Values[i])
			} else {
				record[j+1] = ""
			}
		}
		if err = cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err = cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	return nil
}
