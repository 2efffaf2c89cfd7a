package app

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/fieldspec/spectevol/internal/spectrum"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

const (
	defaultSamples = 12
	defaultWidth   = 1280
	defaultHeight  = 640

	minWidth  = 320
	minHeight = 200
)

// ImageFormat is an output image encoding.
type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

var validKinds = map[spectrum.Kind]struct{}{
	spectrum.KindRaw:      {},
	spectrum.KindSmoothed: {},
}

type Config struct {
	DBPath        string
	DatasetID     int64
	OutputFile    string
	Format        ImageFormat
	Kind          spectrum.Kind
	Samples       int
	Seed          int64
	RowFirst      *int
	RowLast       *int
	MinWavelength *int
	MaxWavelength *int
	Width         int
	Height        int
	NoAnnotations bool
	Verbose       bool
}

func NewConfig() *Config {
	return &Config{
		Format:  ImagePNG,
		Kind:    spectrum.KindRaw,
		Samples: defaultSamples,
		Seed:    1,
		Width:   defaultWidth,
		Height:  defaultHeight,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat, kind, rows string
	var minWavelength, maxWavelength int
	flag.StringVar(&c.DBPath, "db", "", "Path to the results database file")
	flag.Int64Var(&c.DatasetID, "d", 1, "Dataset ID")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&kind, "kind", string(spectrum.KindRaw), "Processing stage to plot. [raw, smoothed]")
	flag.IntVar(&c.Samples, "samples", defaultSamples, "Number of sample spectra to draw")
	flag.Int64Var(&c.Seed, "seed", 1, "Seed for sample selection")
	flag.StringVar(&rows, "rows", "", "Row range to plot as first:last, zero-based inclusive")
	flag.IntVar(&minWavelength, "min-wavelength", 0, "Lower wavelength bound in nm")
	flag.IntVar(&maxWavelength, "max-wavelength", 0, "Upper wavelength bound in nm")
	flag.IntVar(&c.Width, "width", defaultWidth, "Plot area width in pixels")
	flag.IntVar(&c.Height, "height", defaultHeight, "Plot area height in pixels")
	flag.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as scales and the info bar")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	c.Format = ImageFormat(strings.ToLower(imageFormat))
	c.Kind = spectrum.Kind(strings.ToLower(kind))

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "min-wavelength" {
			c.MinWavelength = &minWavelength
		}
		if f.Name == "max-wavelength" {
			c.MaxWavelength = &maxWavelength
		}
	})

	if rows != "" {
		first, last, err := parseRowRange(rows)
		if err != nil {
			flag.Usage()
			return nil, err
		}
		c.RowFirst, c.RowLast = &first, &last
	}

	if err := c.validate(); err != nil {
		flag.Usage()
		return nil, err
	}

	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}

func (c *Config) validate() error {
	switch {
	case c.DBPath == "":
		return errors.New("db path is required")
	case c.DatasetID <= 0:
		return errors.New("dataset id is required")
	case c.OutputFile == "":
		return errors.New("output file is required")
	}

	if _, ok := validImageFormats[c.Format]; !ok {
		return fmt.Errorf("invalid image format: %s", c.Format)
	}
	if _, ok := validKinds[c.Kind]; !ok {
		return fmt.Errorf("invalid kind: %s", c.Kind)
	}
	if c.Samples < 1 {
		return fmt.Errorf("at least one sample spectrum is required: %d given", c.Samples)
	}
	if c.Width < minWidth || c.Height < minHeight {
		return fmt.Errorf("plot size %dx%d is below the minimum %dx%d", c.Width, c.Height, minWidth, minHeight)
	}
	if c.MinWavelength != nil && c.MaxWavelength != nil && *c.MinWavelength > *c.MaxWavelength {
		return fmt.Errorf("wavelength bounds are inverted: %d > %d", *c.MinWavelength, *c.MaxWavelength)
	}

	return nil
}

// parseRowRange parses a "first:last" row selection, zero-based inclusive.
func parseRowRange(s string) (first, last int, err error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid row range %q: expected first:last", s)
	}
	if first, err = strconv.Atoi(lo); err != nil {
		return 0, 0, fmt.Errorf("invalid row range %q: %w", s, err)
	}
	if last, err = strconv.Atoi(hi); err != nil {
		return 0, 0, fmt.Errorf("invalid row range %q: %w", s, err)
	}
	if first < 0 || last < first {
		return 0, 0, fmt.Errorf("invalid row range %q: first must be >= 0 and not above last", s)
	}
	return first, last, nil
}
