package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fieldspec/spectevol/internal/spectrum"
	"github.com/fieldspec/spectevol/internal/vegindex"
)

// maxBatchVariables is SQLite's default bound-variable limit per statement.
const maxBatchVariables = 999

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a new database connection and initializes the schema
// using the Sqlite database
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateDataset(ctx context.Context, ds *spectrum.Dataset, config any) (datasetID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch config.(type) {
		case string:
			configData.Valid = true
			configData.String = config.(string)

		case []byte:
			configData.Valid = true
			configData.String = string(config.([]byte))

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertDatasetSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(
		ctx,
		ds.SourceDir,
		ds.Sensor,
		ds.Method,
		ds.HeaderLines,
		toNullInt(ds.WindowLength),
		toNullInt(ds.PolyOrder),
		ds.FileCount,
		ds.RowCount,
		configData,
	)
	if err != nil {
		err = fmt.Errorf("inserting dataset: %w", err)
		return
	}

	datasetID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting dataset ID: %w", err)
	}
	return
}

func (s *SqliteStore) Dataset(ctx context.Context, id int64) (ds *spectrum.Dataset, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectDatasetSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var row datasetRow
	if err = row.scan(stmt.QueryRowContext(ctx, id)); err != nil {
		err = fmt.Errorf("scanning dataset: %w", err)
		return
	}

	return row.toDataset(), nil
}

func (s *SqliteStore) Datasets(ctx context.Context) (ds []*spectrum.Dataset, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectDatasetsSQL)
	if err != nil {
		err = fmt.Errorf("querying datasets: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var row datasetRow
		if err = row.scan(rows); err != nil {
			err = fmt.Errorf("scanning dataset: %w", err)
			return
		}
		ds = append(ds, row.toDataset())
	}

	err = rows.Err()
	return
}

// batchInsert executes a multi-row VALUES insert, chunked so each statement
// stays under SQLite's bound-variable limit. args holds the bind values for
// all rows flattened in order, columns values per row.
func batchInsert(ctx context.Context, tx *sql.Tx, insertSQL, placeholder string, columns int, args []any) error {
	perChunk := (maxBatchVariables / columns) * columns

	var sb strings.Builder
	for start := 0; start < len(args); start += perChunk {
		end := start + perChunk
		if end > len(args) {
			end = len(args)
		}
		chunk := args[start:end]

		sb.Reset()
		sb.WriteString(insertSQL)
		for i := 0; i < len(chunk)/columns; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(placeholder)
		}

		if _, err := tx.ExecContext(ctx, sb.String(), chunk...); err != nil {
			return fmt.Errorf("batch inserting rows: %w", err)
		}
	}

	return nil
}

const insertSamplesSQL = `
    INSERT INTO samples (
        dataset_id,
        row_idx,
        kind,
        wavelength,
        reflectance
    )
    VALUES `

func (s *SqliteStore) StoreSpectra(ctx context.Context, datasetID int64, kind spectrum.Kind, table *spectrum.Table) (err error) {
	if table == nil || table.Rows() == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	wavelengths := table.Wavelengths()
	values := make([]any, 0, table.Rows()*len(wavelengths)*5)

	for r := 0; r < table.Rows(); r++ {
		row := table.Row(r)
		for c, w := range wavelengths {
			values = append(values, datasetID, r, string(kind), w, toStoredValue(row[c]))
		}
	}

	if err = batchInsert(ctx, tx, insertSamplesSQL, "(?, ?, ?, ?, ?)", 5, values); err != nil {
		return fmt.Errorf("inserting samples: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

const insertIndexValuesSQL = `
    INSERT INTO index_values (
        dataset_id,
        row_idx,
        index_name,
        nir_band,
        value
    )
    VALUES `

func (s *SqliteStore) StoreIndexSeries(ctx context.Context, datasetID int64, series *vegindex.Series) (err error) {
	if series == nil || len(series.Values) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	values := make([]any, 0, len(series.Values)*5)
	for i, v := range series.Values {
		values = append(values, datasetID, i, series.Index, series.NIRBand, toStoredValue(v))
	}

	if err = batchInsert(ctx, tx, insertIndexValuesSQL, "(?, ?, ?, ?, ?)", 5, values); err != nil {
		return fmt.Errorf("inserting index values: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) IndexSeries(ctx context.Context, datasetID int64) (series []*vegindex.Series, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectIndexSeriesSQL, datasetID)
	if err != nil {
		err = fmt.Errorf("querying index values: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	var current *vegindex.Series
	for rows.Next() {
		var name, band string
		var rowIdx int
		var value sql.NullFloat64
		if err = rows.Scan(&name, &band, &rowIdx, &value); err != nil {
			err = fmt.Errorf("scanning index value: %w", err)
			return
		}

		if current == nil || current.Index != name || current.NIRBand != band {
			current = &vegindex.Series{Index: name, NIRBand: band}
			series = append(series, current)
		}
		current.Values = append(current.Values, fromStoredValue(value))
	}

	err = rows.Err()
	return
}

// ReadSpectra creates a new SampleReader that iterates over the stored
// reflectance rows of a dataset, assembled back into full spectra.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - datasetID: Unique identifier of the dataset to read from
//   - opts: Optional configuration parameters for the reader (WithKind,
//     WithRowRange, WithWavelengthRange)
//
// The returned SampleReader must be closed after use to release database
// resources. Each reader instance should only be used from a single
// goroutine.
//
// Returns error if reader creation fails or the dataset doesn't exist.
func (s *SqliteStore) ReadSpectra(ctx context.Context, datasetID int64, opts ...ReaderOption) (*SqliteSampleReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteSampleReader(ctx, db, datasetID, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		switch {
		case writeErr != nil && readErr != nil:
			s.closeErr = errors.Join(writeErr, readErr)
		case writeErr != nil:
			s.closeErr = writeErr
		case readErr != nil:
			s.closeErr = readErr
		}
	})

	return s.closeErr
}
