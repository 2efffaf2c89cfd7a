package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/fieldspec/spectevol/internal/spectrum"
	"github.com/fieldspec/spectevol/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	return renderDataset(ctx, store, config, logger)
}

func renderDataset(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) error {
	opts := []storage.ReaderOption{storage.WithKind(config.Kind)}
	filters := []any{slog.String("kind", string(config.Kind))}

	if config.RowFirst != nil {
		opts = append(opts, storage.WithRowRange(*config.RowFirst, *config.RowLast))
		filters = append(filters,
			slog.Int("firstRow", *config.RowFirst),
			slog.Int("lastRow", *config.RowLast))
	}

	if config.MinWavelength != nil || config.MaxWavelength != nil {
		low, high := spectrum.WavelengthStart, spectrum.WavelengthEnd
		if config.MinWavelength != nil {
			low = *config.MinWavelength
		}
		if config.MaxWavelength != nil {
			high = *config.MaxWavelength
		}

		opts = append(opts, storage.WithWavelengthRange(low, high))
		filters = append(filters,
			slog.Int("minWavelength", low),
			slog.Int("maxWavelength", high))
	}

	logger.Info("reader configuration", filters...)

	reader, err := store.ReadSpectra(ctx, config.DatasetID, opts...)
	if err != nil {
		return err
	}
	defer reader.Close()

	var rows []*spectrum.SampleRow
	for reader.Next(ctx) {
		rows = append(rows, reader.Current())
	}
	if err = reader.Error(); err != nil {
		return err
	}

	logger.Debug("collected sample rows", slog.Int("rows", len(rows)))

	plot, err := NewPlotData(reader.Dataset(), config.Kind, rows, config.Samples, config.Seed)
	if err != nil {
		return err
	}

	logger.Info("spectra loaded",
		slog.Group("stats",
			slog.Int("rows", plot.TotalRows),
			slog.String("minWavelength", fmt.Sprintf("%dnm", plot.WavelengthMin)),
			slog.String("maxWavelength", fmt.Sprintf("%dnm", plot.WavelengthMax)),
			slog.String("minReflectance", fmt.Sprintf("%0.3f", plot.ValueMin)),
			slog.String("maxReflectance", fmt.Sprintf("%0.3f", plot.ValueMax)),
		))

	logger.Info("rendering spectra",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("width", config.Width),
			slog.Int("height", config.Height),
			slog.Int("samples", len(plot.Rows)),
		))

	renderer := NewChartRenderer(RenderConfig{
		Width:       config.Width,
		Height:      config.Height,
		Annotations: !config.NoAnnotations,
	})

	img, err := renderer.Render(plot)
	if err != nil {
		return fmt.Errorf("rendering spectra: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}

	if cErr := out.Close(); cErr != nil && err == nil {
		err = cErr
	}
	return err
}
