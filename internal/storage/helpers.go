package storage

import (
	"database/sql"
	"errors"
	"math"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// rollbackWithError ignores ErrTxDone: rolling back after a successful
// commit is the normal deferred path, not a failure.
func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

// round3 rounds to the three decimal places kept at the storage boundary.
// Computation upstream runs at full precision.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// toStoredValue converts a measurement for storage. NaN has no SQL
// representation and is stored as NULL; infinities survive as REAL values.
func toStoredValue(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: round3(v), Valid: true}
}

// fromStoredValue is the inverse of toStoredValue: NULL reads back as NaN.
func fromStoredValue(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func toNullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
