// Package spectrum defines the reflectance table shared between the ingestion
// pipeline, the index engine and the results store. A table is a rectangular
// block of reflectance values whose columns are labeled with integer
// wavelengths in nanometers; the standard field spectroradiometer grid covers
// 350-2500 nm at 1 nm resolution.
package spectrum

import (
	"errors"
	"fmt"
	"math"
)

const (
	// WavelengthStart is the first wavelength of the standard grid, in nm.
	WavelengthStart = 350

	// WavelengthEnd is the last wavelength of the standard grid, in nm.
	WavelengthEnd = 2500

	// WavelengthCount is the number of columns on the standard grid.
	WavelengthCount = WavelengthEnd - WavelengthStart + 1
)

var (
	// ErrColumnNotFound indicates that a requested wavelength, or every
	// wavelength of a requested range, is absent from the table.
	ErrColumnNotFound = errors.New("column not found")

	// ErrShape indicates that a value buffer does not divide evenly into
	// rows of the table's wavelength grid.
	ErrShape = errors.New("value count does not fit the wavelength grid")
)

// Wavelengths returns the standard grid labels, 350 through 2500 nm inclusive.
func Wavelengths() []int {
	w := make([]int, WavelengthCount)
	for i := range w {
		w[i] = WavelengthStart + i
	}
	return w
}

// Table is an immutable 2D reflectance table. Rows are independent samples,
// columns are wavelengths in ascending order. Values are stored row-major.
// Construct tables with NewTable; a Table must not be modified afterwards,
// operations that change data (such as smoothing) produce a new Table.
type Table struct {
	wavelengths []int
	index       map[int]int // wavelength -> column offset
	data        []float64   // row-major, rows*cols values
	rows, cols  int
}

// NewTable builds a table over the given wavelength labels from a row-major
// value buffer. Labels must be non-empty and strictly ascending; the buffer
// length must be an exact multiple of the label count.
func NewTable(wavelengths []int, values []float64) (*Table, error) {
	if len(wavelengths) == 0 {
		return nil, errors.New("creating table: no wavelengths")
	}
	for i := 1; i < len(wavelengths); i++ {
		if wavelengths[i] <= wavelengths[i-1] {
			return nil, fmt.Errorf("creating table: wavelengths not ascending at %d nm", wavelengths[i])
		}
	}
	if len(values)%len(wavelengths) != 0 {
		return nil, fmt.Errorf("creating table from %d values over %d wavelengths: %w",
			len(values), len(wavelengths), ErrShape)
	}

	index := make(map[int]int, len(wavelengths))
	for i, w := range wavelengths {
		index[w] = i
	}

	return &Table{
		wavelengths: wavelengths,
		index:       index,
		data:        values,
		rows:        len(values) / len(wavelengths),
		cols:        len(wavelengths),
	}, nil
}

// Rows returns the number of sample rows.
func (t *Table) Rows() int { return t.rows }

// Cols returns the number of wavelength columns.
func (t *Table) Cols() int { return t.cols }

// Wavelengths returns the column labels in ascending order. The returned
// slice is shared with the table and must not be modified.
func (t *Table) Wavelengths() []int { return t.wavelengths }

// Row returns one sample row. The returned slice aliases the table's backing
// buffer and must not be modified.
func (t *Table) Row(i int) []float64 {
	return t.data[i*t.cols : (i+1)*t.cols]
}

// Column returns a copy of the column at the exact wavelength, one value per
// sample row. A wavelength that is not a column label fails with
// ErrColumnNotFound.
func (t *Table) Column(wavelength int) ([]float64, error) {
	col, ok := t.index[wavelength]
	if !ok {
		return nil, fmt.Errorf("column %d nm: %w", wavelength, ErrColumnNotFound)
	}

	values := make([]float64, t.rows)
	for r := 0; r < t.rows; r++ {
		values[r] = t.data[r*t.cols+col]
	}
	return values, nil
}

// MeanInRange returns, per sample row, the arithmetic mean over every column
// whose wavelength lies within [low, high] inclusive. The bounds are real
// valued; a column qualifies when low <= wavelength <= high. A range that
// matches no column fails with ErrColumnNotFound.
func (t *Table) MeanInRange(low, high float64) ([]float64, error) {
	first, count := -1, 0
	for i, w := range t.wavelengths {
		if low <= float64(w) && float64(w) <= high {
			if first < 0 {
				first = i
			}
			count++
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("range %g-%g nm: %w", low, high, ErrColumnNotFound)
	}

	// Labels are ascending, so the qualifying columns are contiguous.
	values := make([]float64, t.rows)
	for r := 0; r < t.rows; r++ {
		var sum float64
		for c := first; c < first+count; c++ {
			sum += t.data[r*t.cols+c]
		}
		values[r] = sum / float64(count)
	}
	return values, nil
}

// Round returns a copy of the table with every value rounded to the given
// number of decimal places. Rounding is an output concern, computation on the
// original table keeps full precision.
func (t *Table) Round(decimals int) *Table {
	scale := math.Pow(10, float64(decimals))
	data := make([]float64, len(t.data))
	for i, v := range t.data {
		data[i] = math.Round(v*scale) / scale
	}
	return &Table{
		wavelengths: t.wavelengths,
		index:       t.index,
		data:        data,
		rows:        t.rows,
		cols:        t.cols,
	}
}
