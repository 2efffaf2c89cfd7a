package storage

import (
	"database/sql"
	"time"

	"github.com/fieldspec/spectevol/internal/spectrum"
)

type datasetRow struct {
	ID           int64
	CreatedAt    time.Time
	SourceDir    string
	Sensor       string
	Method       string
	HeaderLines  int
	WindowLength sql.NullInt64
	PolyOrder    sql.NullInt64
	FileCount    int
	RowCount     int
	Config       sql.NullString
}

func (r *datasetRow) scan(s interface{ Scan(...any) error }) error {
	return s.Scan(
		&r.ID,
		&r.CreatedAt,
		&r.SourceDir,
		&r.Sensor,
		&r.Method,
		&r.HeaderLines,
		&r.WindowLength,
		&r.PolyOrder,
		&r.FileCount,
		&r.RowCount,
		&r.Config,
	)
}

func (r *datasetRow) toDataset() *spectrum.Dataset {
	ds := spectrum.Dataset{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		SourceDir:    r.SourceDir,
		Sensor:       r.Sensor,
		Method:       r.Method,
		HeaderLines:  r.HeaderLines,
		WindowLength: fromNullInt(r.WindowLength),
		PolyOrder:    fromNullInt(r.PolyOrder),
		FileCount:    r.FileCount,
		RowCount:     r.RowCount,
	}
	if r.Config.Valid {
		ds.Config = &r.Config.String
	}
	return &ds
}
