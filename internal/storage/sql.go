package storage

import (
	_ "embed"
)

// Indexes are created when the store closes, so batch inserts during
// processing do not pay for index maintenance.

//go:embed schema.sql
var initSchemaSQL string

//go:embed indexes.sql
var initIndexesSQL string

const (
	insertDatasetSQL = `
INSERT INTO datasets (
                      created_at,
                      source_dir,
                      sensor,
                      method,
                      header_lines,
                      window_length,
                      poly_order,
                      file_count,
                      row_count,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectDatasetSQL = `
SELECT
    id,
    created_at,
    source_dir,
    sensor,
    method,
    header_lines,
    window_length,
    poly_order,
    file_count,
    row_count,
    config
FROM datasets
WHERE
    id = ?`

	selectDatasetsSQL = `
SELECT
    id,
    created_at,
    source_dir,
    sensor,
    method,
    header_lines,
    window_length,
    poly_order,
    file_count,
    row_count,
    config
FROM datasets
ORDER BY id`

	selectSampleBoundsSQL = `
SELECT
    MIN(row_idx),
    MAX(row_idx),
    MIN(wavelength),
    MAX(wavelength)
FROM samples
WHERE
    dataset_id = ?
    AND kind = ?`

	selectSamplesSQL = `
SELECT
    row_idx,
    wavelength,
    reflectance
FROM samples
WHERE
    dataset_id = ?
    AND kind = ?
    AND row_idx BETWEEN ? AND ?
    AND wavelength BETWEEN ? AND ?
ORDER BY row_idx, wavelength`

	selectIndexSeriesSQL = `
SELECT
    index_name,
    nir_band,
    row_idx,
    value
FROM index_values
WHERE
    dataset_id = ?
ORDER BY index_name, nir_band, row_idx`
)
