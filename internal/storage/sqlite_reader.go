package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldspec/spectevol/internal/spectrum"
)

// ErrNoData indicates either that no sample data exists for the given
// parameters, or that all available data has been read from the reader.
var ErrNoData = fmt.Errorf("no data available")

// SampleReader provides an iterator-based interface for reading stored
// spectra with optional row and wavelength filtering.
type SampleReader interface {
	// Dataset returns metadata about the dataset this reader is accessing.
	Dataset() *spectrum.Dataset

	// Next advances the iterator and returns true if there is another
	// spectrum row to read, false when the iteration is complete or if an
	// error occurred.
	Next(context.Context) bool

	// Current returns the current spectrum row in the iteration.
	// If called after Next() returns false, the behavior is undefined.
	Current() *spectrum.SampleRow

	// Error returns any error that occurred during iteration.
	// If Next() returns false, Error() should be checked to distinguish
	// between end of data and an error condition.
	Error() error

	// Close releases any resources associated with the reader.
	// After Close is called, the reader should not be used.
	Close() error
}

// ReaderOption configures a SampleReader with specific filtering criteria.
type ReaderOption func(*SqliteSampleReader)

// WithKind selects which processing stage to read. The default is the raw
// reflectance rows.
func WithKind(kind spectrum.Kind) ReaderOption {
	return func(r *SqliteSampleReader) {
		r.kind = kind
	}
}

// WithRowRange restricts iteration to rows with indices in [first, last].
func WithRowRange(first, last int) ReaderOption {
	return func(r *SqliteSampleReader) {
		r.firstRow = &first
		r.lastRow = &last
	}
}

// WithWavelengthRange restricts each row to wavelengths in [low, high]
// nanometers inclusive.
func WithWavelengthRange(low, high int) ReaderOption {
	return func(r *SqliteSampleReader) {
		r.minWavelength = &low
		r.maxWavelength = &high
	}
}

// newSqliteSampleReader creates a new SampleReader instance for reading
// spectra from a database, applying optional filters.
func newSqliteSampleReader(ctx context.Context, db *sql.DB, datasetID int64, opts ...ReaderOption) (*SqliteSampleReader, error) {
	sr := &SqliteSampleReader{
		db:        db,
		datasetID: datasetID,
		kind:      spectrum.KindRaw,
	}
	for _, opt := range opts {
		opt(sr)
	}
	if err := sr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return sr, nil
}

// SqliteSampleReader implements SampleReader for SQLite database backend.
type SqliteSampleReader struct {
	db *sql.DB

	datasetID int64
	dataset   *spectrum.Dataset
	kind      spectrum.Kind

	firstRow      *int // Optional first row index filter
	lastRow       *int // Optional last row index filter
	minWavelength *int // Optional minimum wavelength filter
	maxWavelength *int // Optional maximum wavelength filter

	rowCapacity int  // expected samples per row, a preallocation hint
	empty       bool // dataset has no samples of the requested kind

	currentRow     *spectrum.SampleRow
	nextIndex      int // first sample of next row
	nextWavelength int
	nextValue      float64
	nextExists     bool
	rows           *sql.Rows
	err            error
}

func (sr *SqliteSampleReader) init(ctx context.Context) error {
	if sr.db == nil {
		return errors.New("database connection required")
	}
	if sr.datasetID <= 0 {
		return errors.New("dataset ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading dataset", fn: sr.loadDataset},
		{msg: "initializing filters", fn: sr.initFilters},
		{msg: "initializing query", fn: sr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (sr *SqliteSampleReader) loadDataset(ctx context.Context) (err error) {
	stmt, err := sr.db.PrepareContext(ctx, selectDatasetSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var row datasetRow
	if err = row.scan(stmt.QueryRowContext(ctx, sr.datasetID)); err != nil {
		return fmt.Errorf("querying dataset: %w", err)
	}

	sr.dataset = row.toDataset()
	return
}

// initFilters fills in any bound the caller left open with the stored
// minimum or maximum, so the samples query can always filter with BETWEEN.
func (sr *SqliteSampleReader) initFilters(ctx context.Context) (err error) {
	rowsSet := sr.firstRow != nil && sr.lastRow != nil
	wavelengthsSet := sr.minWavelength != nil && sr.maxWavelength != nil

	if rowsSet {
		if *sr.firstRow > *sr.lastRow {
			return fmt.Errorf("first row %d is after last row %d", *sr.firstRow, *sr.lastRow)
		}
	}
	if wavelengthsSet {
		if *sr.minWavelength > *sr.maxWavelength {
			return fmt.Errorf("min wavelength %d is greater than max wavelength %d", *sr.minWavelength, *sr.maxWavelength)
		}
	}

	stmt, err := sr.db.PrepareContext(ctx, selectSampleBoundsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var firstRow, lastRow, minWavelength, maxWavelength sql.NullInt64
	if err = stmt.QueryRowContext(ctx, sr.datasetID, string(sr.kind)).Scan(&firstRow, &lastRow, &minWavelength, &maxWavelength); err != nil {
		return fmt.Errorf("scanning filter bounds: %w", err)
	}

	// Aggregates over zero samples come back NULL.
	if !firstRow.Valid {
		sr.empty = true
		return nil
	}

	if sr.firstRow == nil {
		sr.firstRow = fromNullInt(firstRow)
	}
	if sr.lastRow == nil {
		sr.lastRow = fromNullInt(lastRow)
	}
	if sr.minWavelength == nil {
		sr.minWavelength = fromNullInt(minWavelength)
	}
	if sr.maxWavelength == nil {
		sr.maxWavelength = fromNullInt(maxWavelength)
	}
	sr.rowCapacity = *sr.maxWavelength - *sr.minWavelength + 1

	return nil
}

func (sr *SqliteSampleReader) initQuery(ctx context.Context) (err error) {
	if sr.empty {
		return nil
	}

	stmt, err := sr.db.PrepareContext(ctx, selectSamplesSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if sr.rows, err = stmt.QueryContext(ctx, sr.datasetID, string(sr.kind), sr.firstRow, sr.lastRow, sr.minWavelength, sr.maxWavelength); err != nil {
		return err
	}
	return nil
}

func (sr *SqliteSampleReader) newRow(index int) *spectrum.SampleRow {
	return &spectrum.SampleRow{
		Index:       index,
		Kind:        sr.kind,
		Wavelengths: make([]int, 0, sr.rowCapacity),
		Values:      make([]float64, 0, sr.rowCapacity),
	}
}

func (sr *SqliteSampleReader) Dataset() *spectrum.Dataset {
	return sr.dataset
}

// Next assembles the next spectrum row from the per-wavelength sample
// records. Records arrive ordered by row index then wavelength, so a change
// of row index marks the start of the next spectrum.
func (sr *SqliteSampleReader) Next(ctx context.Context) bool {
	if sr.err != nil || sr.rows == nil {
		return false
	}

	if sr.nextExists {
		sr.currentRow = sr.newRow(sr.nextIndex)
		sr.currentRow.Wavelengths = append(sr.currentRow.Wavelengths, sr.nextWavelength)
		sr.currentRow.Values = append(sr.currentRow.Values, sr.nextValue)
		sr.nextExists = false
	}

	for {
		select {
		case <-ctx.Done():
			sr.err = ctx.Err()
			return false
		default:
		}

		if !sr.rows.Next() {
			if sr.currentRow != nil && len(sr.currentRow.Values) > 0 {
				sr.err = ErrNoData
				return true
			}
			return false
		}

		var rowIdx, wavelength int
		var value sql.NullFloat64
		if err := sr.rows.Scan(&rowIdx, &wavelength, &value); err != nil {
			sr.err = fmt.Errorf("scanning sample: %w", err)
			return false
		}

		if sr.currentRow == nil {
			sr.currentRow = sr.newRow(rowIdx)
			sr.currentRow.Wavelengths = append(sr.currentRow.Wavelengths, wavelength)
			sr.currentRow.Values = append(sr.currentRow.Values, fromStoredValue(value))
			continue
		}

		// Row index rollover completes the current spectrum.
		if rowIdx != sr.currentRow.Index {
			sr.nextIndex = rowIdx
			sr.nextWavelength = wavelength
			sr.nextValue = fromStoredValue(value)
			sr.nextExists = true
			return true
		}

		sr.currentRow.Wavelengths = append(sr.currentRow.Wavelengths, wavelength)
		sr.currentRow.Values = append(sr.currentRow.Values, fromStoredValue(value))
	}
}

func (sr *SqliteSampleReader) Current() *spectrum.SampleRow {
	return sr.currentRow
}

func (sr *SqliteSampleReader) Error() error {
	if sr.err != nil && !errors.Is(sr.err, ErrNoData) {
		return sr.err
	}
	if sr.rows != nil {
		return sr.rows.Err()
	}
	return nil
}

func (sr *SqliteSampleReader) Close() error {
	if sr.rows != nil {
		err := sr.rows.Close()
		sr.currentRow = nil
		sr.nextExists = false
		sr.rows = nil
		return err
	}
	return nil
}
