package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/fieldspec/spectevol/internal/export"
	"github.com/fieldspec/spectevol/internal/savgol"
	"github.com/fieldspec/spectevol/internal/sed"
	"github.com/fieldspec/spectevol/internal/sensor"
	"github.com/fieldspec/spectevol/internal/spectrum"
	"github.com/fieldspec/spectevol/internal/storage"
	"github.com/fieldspec/spectevol/internal/vegindex"
)

const (
	rawExportName      = "reflectance_raw.csv"
	smoothedExportName = "reflectance_smoothed.csv"
	indicesExportName  = "indices.csv"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	engine, err := vegindex.New(sensor.Sensor(config.Analysis.Sensor), sensor.Method(config.Analysis.Method))
	if err != nil {
		return err
	}
	if err = checkIndexBands(&config.Analysis); err != nil {
		return err
	}

	files, err := collectInputs(&config.Input)
	if err != nil {
		return err
	}

	parser := sed.NewParser(sed.WithHeaderLines(*config.Input.HeaderLines), sed.WithLogger(logger))
	batch, err := parser.ParseFiles(ctx, files)
	if err != nil {
		return fmt.Errorf("parsing sample files: %w", err)
	}

	raw := batch.Table
	logger.Info("parsed sample files",
		slog.Int("files", len(batch.Sources)),
		slog.Int("skipped", len(batch.Skipped)),
		slog.Int("samples", raw.Rows()))
	if raw.Rows() == 0 {
		return fmt.Errorf("no readable sample files")
	}

	// Indices are computed over the smoothed spectra when smoothing is on,
	// over the raw spectra otherwise.
	analysis := raw
	var smoothed *spectrum.Table
	if config.Smoothing.Enabled {
		filter, err := savgol.NewFilter(*config.Smoothing.WindowLength, *config.Smoothing.PolyOrder)
		if err != nil {
			return fmt.Errorf("creating smoothing filter: %w", err)
		}
		if smoothed, err = filter.SmoothTable(raw); err != nil {
			return fmt.Errorf("smoothing spectra: %w", err)
		}
		analysis = smoothed
		logger.Debug("smoothed spectra",
			slog.Int("windowLength", filter.Window()),
			slog.Int("polyOrder", filter.PolyOrder()))
	}

	series, err := computeSeries(engine, analysis, config.Analysis.Indices)
	if err != nil {
		return err
	}

	if config.Storage.Path != "" {
		datasetID, err := persistResults(ctx, config, batch, raw, smoothed, series)
		if err != nil {
			return fmt.Errorf("storing results: %w", err)
		}
		logger.Info("stored results",
			slog.Int64("dataset", datasetID),
			slog.String("path", config.Storage.Path))
	}

	if config.Export.Dir != "" {
		if err = exportResults(config.Export.Dir, raw, smoothed, series); err != nil {
			return fmt.Errorf("exporting results: %w", err)
		}
		logger.Info("exported results", slog.String("dir", config.Export.Dir))
	}

	values := raw.Rows() * raw.Cols()
	if smoothed != nil {
		values += smoothed.Rows() * smoothed.Cols()
	}
	logger.Info("processing complete",
		slog.Int("samples", raw.Rows()),
		slog.Int("indices", len(series)),
		slog.String("values", humanize.Comma(int64(values))))

	return nil
}

// checkIndexBands verifies NIR band overrides against the sensor's band set
// before any file is read.
func checkIndexBands(config *AnalysisConfig) error {
	def, err := sensor.Lookup(sensor.Sensor(config.Sensor))
	if err != nil {
		return err
	}
	for _, idx := range config.Indices {
		if idx.NIRBand == "" {
			continue
		}
		if _, ok := def.Band(idx.NIRBand); !ok {
			return fmt.Errorf("index %s: sensor %s: band %q: %w", idx.Name, def.ID, idx.NIRBand, sensor.ErrUnknownBand)
		}
	}
	return nil
}

func collectInputs(config *InputConfig) ([]string, error) {
	files := config.Files
	if config.Dir != "" {
		var err error
		if files, err = sed.Discover(config.Dir); err != nil {
			return nil, fmt.Errorf("discovering sample files: %w", err)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no sample files in %s", config.Dir)
	}
	return files, nil
}

func computeSeries(engine *vegindex.Engine, t *spectrum.Table, indices []IndexConfig) ([]*vegindex.Series, error) {
	series := make([]*vegindex.Series, 0, len(indices))
	for _, idx := range indices {
		var opts []vegindex.Option
		if idx.NIRBand != "" {
			opts = append(opts, vegindex.WithNIRBand(idx.NIRBand))
		}
		values, err := engine.Compute(t, idx.Name, opts...)
		if err != nil {
			return nil, fmt.Errorf("computing %s: %w", idx.Name, err)
		}
		series = append(series, &vegindex.Series{Index: idx.Name, NIRBand: idx.NIRBand, Values: values})
	}
	return series, nil
}

func persistResults(ctx context.Context, config *Config, batch *sed.BatchResult, raw, smoothed *spectrum.Table, series []*vegindex.Series) (datasetID int64, err error) {
	store := storage.NewSqliteStore(config.Storage.Path)
	defer func() {
		if cErr := store.Close(); cErr != nil {
			err = errors.Join(err, cErr)
		}
	}()

	ds := &spectrum.Dataset{
		SourceDir:   config.Input.Dir,
		Sensor:      config.Analysis.Sensor,
		Method:      config.Analysis.Method,
		HeaderLines: *config.Input.HeaderLines,
		FileCount:   len(batch.Sources),
		RowCount:    raw.Rows(),
	}
	if config.Smoothing.Enabled {
		ds.WindowLength = config.Smoothing.WindowLength
		ds.PolyOrder = config.Smoothing.PolyOrder
	}

	if datasetID, err = store.CreateDataset(ctx, ds, config); err != nil {
		return 0, fmt.Errorf("creating dataset: %w", err)
	}
	if err = store.StoreSpectra(ctx, datasetID, spectrum.KindRaw, raw); err != nil {
		return 0, fmt.Errorf("storing raw spectra: %w", err)
	}
	if smoothed != nil {
		if err = store.StoreSpectra(ctx, datasetID, spectrum.KindSmoothed, smoothed); err != nil {
			return 0, fmt.Errorf("storing smoothed spectra: %w", err)
		}
	}
	for _, s := range series {
		if err = store.StoreIndexSeries(ctx, datasetID, s); err != nil {
			return 0, fmt.Errorf("storing %s series: %w", s.Index, err)
		}
	}
	return datasetID, nil
}

func exportResults(dir string, raw, smoothed *spectrum.Table, series []*vegindex.Series) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := export.WriteTable(filepath.Join(dir, rawExportName), raw); err != nil {
		return err
	}
	if smoothed != nil {
		if err := export.WriteTable(filepath.Join(dir, smoothedExportName), smoothed); err != nil {
			return err
		}
	}
	if len(series) > 0 {
		if err := export.WriteSeries(filepath.Join(dir, indicesExportName), series); err != nil {
			return err
		}
	}
	return nil
}
