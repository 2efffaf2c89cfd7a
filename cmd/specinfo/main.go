// Command specinfo prints the sensor band catalog and inspects results
// databases.
//
// Usage:
//
//	specinfo [flags]
//
// Without flags it prints the band model catalog.
//
// Examples:
//
//	specinfo
//	specinfo -sensor sentinel-2
//	specinfo -indices
//	specinfo -db results.sqlite
//	specinfo -db results.sqlite -d 3
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fieldspec/spectevol/internal/sensor"
	"github.com/fieldspec/spectevol/internal/spectrum"
	"github.com/fieldspec/spectevol/internal/storage"
	"github.com/fieldspec/spectevol/internal/vegindex"
)

var indexFormulas = map[string]string{
	vegindex.IndexNDVI:  "(NIR - RED) / (NIR + RED + eps)",
	vegindex.IndexEVI:   "2.5 * (NIR - RED) / (NIR + 6*RED - 7.5*BLUE + 1 + eps)",
	vegindex.IndexSAVI:  "((NIR - RED) / (NIR + RED + 0.5 + eps)) * 1.5",
	vegindex.IndexMSAVI: "(2*NIR + 1 - sqrt((2*NIR+1)^2 - 8*(NIR-RED))) / 2",
	vegindex.IndexGCI:   "NIR / GREEN - 1",
}

func main() {
	sensorID := flag.String("sensor", "", "Limit the catalog to one sensor")
	indices := flag.Bool("indices", false, "Print the supported vegetation indices")
	dbPath := flag.String("db", "", "Path to a results database file")
	datasetID := flag.Int64("d", 0, "Dataset ID to inspect (requires -db)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: specinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the sensor band catalog, the supported vegetation indices,\n")
		fmt.Fprintf(os.Stderr, "or the contents of a results database.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  specinfo\n")
		fmt.Fprintf(os.Stderr, "  specinfo -sensor sentinel-2\n")
		fmt.Fprintf(os.Stderr, "  specinfo -indices\n")
		fmt.Fprintf(os.Stderr, "  specinfo -db results.sqlite\n")
		fmt.Fprintf(os.Stderr, "  specinfo -db results.sqlite -d 3\n")
	}
	flag.Parse()

	if *datasetID > 0 && *dbPath == "" {
		fmt.Fprintf(os.Stderr, "error: the -d flag requires -db\n")
		os.Exit(1)
	}

	if err := run(*sensorID, *indices, *dbPath, *datasetID); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(sensorID string, indices bool, dbPath string, datasetID int64) error {
	switch {
	case dbPath != "":
		return printDatabase(dbPath, datasetID)
	case indices:
		return printIndices()
	default:
		return printCatalog(sensorID)
	}
}

func printCatalog(sensorID string) error {
	ids := sensor.Sensors()
	if sensorID != "" {
		ids = []sensor.Sensor{sensor.Sensor(sensorID)}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Sensor\tBand\tRange [nm]\tCenter [nm]\n")
	fmt.Fprintf(tw, "------\t----\t----------\t-----------\n")

	for _, id := range ids {
		def, err := sensor.Lookup(id)
		if err != nil {
			return err
		}

		for _, name := range def.BandNames() {
			b, _ := def.Band(name)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", def.ID, name, bandRange(def, b), b.Center())
		}
	}
	return tw.Flush()
}

func bandRange(def *sensor.Definition, b sensor.Band) string {
	if def.Discrete {
		return fmt.Sprintf("%.0f (discrete)", b.Low)
	}
	return fmt.Sprintf("%.0f-%.0f", b.Low, b.High)
}

func printIndices() error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Index\tFormula\n")
	fmt.Fprintf(tw, "-----\t-------\n")
	for _, name := range vegindex.Indices() {
		fmt.Fprintf(tw, "%s\t%s\n", name, indexFormulas[name])
	}
	return tw.Flush()
}

func printDatabase(dbPath string, datasetID int64) error {
	if _, err := os.Stat(dbPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", dbPath, err)
	}

	store := storage.NewSqliteStore(dbPath)
	defer store.Close()

	ctx := context.Background()
	if datasetID > 0 {
		return printDataset(ctx, store, datasetID)
	}
	return printDatasets(ctx, store)
}

func printDatasets(ctx context.Context, store *storage.SqliteStore) error {
	datasets, err := store.Datasets(ctx)
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		fmt.Println("no datasets stored")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tCreated\tSource\tSensor\tMethod\tSmoothing\tFiles\tSamples\n")
	fmt.Fprintf(tw, "--\t-------\t------\t------\t------\t---------\t-----\t-------\n")
	for _, ds := range datasets {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			ds.ID,
			humanize.Time(ds.CreatedAt),
			ds.SourceDir,
			ds.Sensor,
			ds.Method,
			smoothingLabel(ds),
			ds.FileCount,
			ds.RowCount,
		)
	}
	return tw.Flush()
}

func printDataset(ctx context.Context, store *storage.SqliteStore, id int64) error {
	ds, err := store.Dataset(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Dataset %d: %s/%s, %d files, %d samples, created %s\n",
		ds.ID, ds.Sensor, ds.Method, ds.FileCount, ds.RowCount, humanize.Time(ds.CreatedAt))
	fmt.Printf("Source: %s; header lines: %d; smoothing: %s\n",
		ds.SourceDir, ds.HeaderLines, smoothingLabel(ds))

	series, err := store.IndexSeries(ctx, id)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		fmt.Println("no index series stored")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Index\tNIR band\tSamples\tFinite\tMin\tMean\tMax\n")
	fmt.Fprintf(tw, "-----\t--------\t-------\t------\t---\t----\t---\n")
	for _, s := range series {
		finite := finiteValues(s.Values)

		lo, mean, hi := math.NaN(), math.NaN(), math.NaN()
		if len(finite) > 0 {
			lo, hi = floats.Min(finite), floats.Max(finite)
			mean = stat.Mean(finite, nil)
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.3f\t%.3f\t%.3f\n",
			s.Index, s.NIRBand, len(s.Values), len(finite), lo, mean, hi)
	}
	return tw.Flush()
}

func smoothingLabel(ds *spectrum.Dataset) string {
	if ds.WindowLength == nil || ds.PolyOrder == nil {
		return "off"
	}
	return fmt.Sprintf("window %d, order %d", *ds.WindowLength, *ds.PolyOrder)
}

func finiteValues(values []float64) []float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		finite = append(finite, v)
	}
	return finite
}
