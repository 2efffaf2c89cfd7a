package storage

import (
	"context"

	"github.com/fieldspec/spectevol/internal/spectrum"
	"github.com/fieldspec/spectevol/internal/vegindex"
)

// Store provides an interface for managing spectral processing results.
// It handles dataset metadata, reflectance samples and vegetation index
// values. All operations that write to the database should be considered
// atomic.
type Store interface {
	// CreateDataset records the metadata of a processing run and returns its
	// unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - ds: Dataset metadata; the ID and CreatedAt fields are ignored and
	//     assigned by the store
	//   - config: Optional run configuration. Can be string, []byte, or a
	//     JSON-serializable object
	//
	// Returns:
	//   - datasetID: Unique identifier for the created dataset
	//   - error: If dataset creation fails or context is cancelled
	CreateDataset(ctx context.Context, ds *spectrum.Dataset, config any) (datasetID int64, err error)

	// Dataset retrieves a specific dataset by its ID.
	Dataset(ctx context.Context, id int64) (ds *spectrum.Dataset, err error)

	// Datasets returns all datasets stored in the database, ordered by
	// creation.
	Datasets(ctx context.Context) (ds []*spectrum.Dataset, err error)

	// StoreSpectra saves every row of a reflectance table under the given
	// dataset and kind in a single transaction. Values are rounded to three
	// decimal places; NaN is stored as NULL.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - datasetID: ID of the dataset the table belongs to
	//   - kind: Which processing stage the table represents (raw, smoothed)
	//   - table: Reflectance table to persist
	//
	// Returns:
	//   - error: If storage fails or context is cancelled
	StoreSpectra(ctx context.Context, datasetID int64, kind spectrum.Kind, table *spectrum.Table) error

	// StoreIndexSeries saves one vegetation index series, one value per
	// table row, in a single transaction. Values are rounded to three
	// decimal places; NaN is stored as NULL.
	StoreIndexSeries(ctx context.Context, datasetID int64, series *vegindex.Series) error

	// IndexSeries returns every vegetation index series stored for a
	// dataset, ordered by index name. NULL values read back as NaN.
	IndexSeries(ctx context.Context, datasetID int64) (series []*vegindex.Series, err error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	Close() error
}
