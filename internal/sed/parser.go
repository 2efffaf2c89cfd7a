// Package sed reads field spectroradiometer sample files (.sed) into
// reflectance tables. A sample file carries a fixed-length metadata header
// followed by one tab-separated wavelength/reflectance line per nanometer
// over the 350-2500 nm grid; only the reflectance column is consumed.
package sed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fieldspec/spectevol/internal/spectrum"
)

// DefaultHeaderLines is the header length of the instrument's file format.
const DefaultHeaderLines = 27

// ParseError reports malformed content within a sample file. Unlike an
// unreadable file, which only skips that file, malformed content fails the
// whole batch.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WithHeaderLines overrides the number of header lines skipped per file.
func WithHeaderLines(n int) func(*Parser) {
	return func(p *Parser) {
		p.headerLines = n
	}
}

// WithLogger sets the logger used for per-file progress and skip reports.
func WithLogger(logger *slog.Logger) func(*Parser) {
	return func(p *Parser) {
		p.logger = logger
	}
}

// Parser reads batches of sample files into a reflectance table.
type Parser struct {
	headerLines int
	logger      *slog.Logger
}

// NewParser creates a Parser with a discard logger and the default header
// length.
func NewParser(options ...func(*Parser)) *Parser {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	p := Parser{
		headerLines: DefaultHeaderLines,
		logger:      logger,
	}

	for _, option := range options {
		option(&p)
	}

	return &p
}

// BatchResult is the outcome of parsing a batch of sample files.
type BatchResult struct {
	Table   *spectrum.Table // spectra on the standard wavelength grid, one row per sample
	Sources []string        // files that contributed rows, in input order
	Skipped []string        // files that could not be read
}

// ParseFiles parses the given sample files into one reflectance table on the
// standard 350-2500 nm grid, one row per file in input order. Cancelling ctx
// stops the batch between files.
//
// Unreadable files are logged, recorded in Skipped and do not fail the
// batch; the remaining files still contribute rows. Malformed content fails
// the batch with a ParseError naming the file and line. After all files are
// read, a total value count that does not divide into whole spectra fails
// with spectrum.ErrShape referencing the malformed total. Values keep full
// precision; rounding is left to output boundaries.
func (p *Parser) ParseFiles(ctx context.Context, files []string) (*BatchResult, error) {
	if p.headerLines < 0 {
		return nil, fmt.Errorf("parsing sample files: negative header line count %d", p.headerLines)
	}

	var result BatchResult
	var values []float64

	for _, file := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fileValues, err := p.parseFile(file)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				return nil, err
			}

			p.logger.Warn("skipping unreadable sample file",
				slog.String("file", file),
				slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, file)
			continue
		}

		p.logger.Debug("parsed sample file",
			slog.String("file", file),
			slog.Int("values", len(fileValues)))

		values = append(values, fileValues...)
		result.Sources = append(result.Sources, file)
	}

	if len(values)%spectrum.WavelengthCount != 0 {
		return nil, fmt.Errorf("parsed %d values from %d files, not a multiple of %d per spectrum: %w",
			len(values), len(result.Sources), spectrum.WavelengthCount, spectrum.ErrShape)
	}

	table, err := spectrum.NewTable(spectrum.Wavelengths(), values)
	if err != nil {
		return nil, fmt.Errorf("assembling reflectance table: %w", err)
	}

	result.Table = table
	return &result, nil
}

// parseFile reads one sample file into its reflectance values. I/O errors
// wrap the underlying os error; malformed content returns a ParseError.
// Values are buffered per file, so a failed file leaves the batch untouched.
func (p *Parser) parseFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sample file: %w", err)
	}
	defer f.Close()

	var values []float64
	line := 0

	scanner := bufio.NewScanner(f)
	for line < p.headerLines && scanner.Scan() {
		line++
	}

	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return nil, &ParseError{File: path, Line: line, Err: errors.New("expected tab-separated wavelength and reflectance")}
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, &ParseError{File: path, Line: line, Err: fmt.Errorf("invalid reflectance %q", fields[1])}
		}

		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sample file: %w", err)
	}

	if len(values) == 0 {
		return nil, &ParseError{File: path, Line: line, Err: errors.New("no data lines after header")}
	}

	return values, nil
}
