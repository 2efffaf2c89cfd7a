package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldspec/spectevol/internal/sed"
	"github.com/fieldspec/spectevol/internal/sensor"
	"github.com/fieldspec/spectevol/internal/vegindex"
)

const (
	defaultWindowLength = 11
	defaultPolyOrder    = 2
)

var validIndices = func() map[string]struct{} {
	m := make(map[string]struct{}, len(vegindex.Indices()))
	for _, name := range vegindex.Indices() {
		m[name] = struct{}{}
	}
	return m
}()

// Config represents the main application configuration
type Config struct {
	Settings  Settings        `yaml:"settings" json:"settings"`
	Input     InputConfig     `yaml:"input" json:"input"`
	Smoothing SmoothingConfig `yaml:"smoothing" json:"smoothing"`
	Analysis  AnalysisConfig  `yaml:"analysis" json:"analysis"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Export    ExportConfig    `yaml:"export" json:"export"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel" json:"logLevel"`
}

// InputConfig selects the sample files to ingest, either a directory of
// .sed files or an explicit file list.
type InputConfig struct {
	Dir         string   `yaml:"dir" json:"dir"`
	Files       []string `yaml:"files" json:"files"`
	HeaderLines *int     `yaml:"headerLines" json:"headerLines"` // default 27
}

// SmoothingConfig configures the Savitzky-Golay pass over ingested spectra
type SmoothingConfig struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`
	WindowLength *int `yaml:"windowLength" json:"windowLength"` // default 11
	PolyOrder    *int `yaml:"polyOrder" json:"polyOrder"`       // default 2
}

// AnalysisConfig selects the sensor band model and the indices to compute
type AnalysisConfig struct {
	Sensor  string        `yaml:"sensor" json:"sensor"`   // default general
	Method  string        `yaml:"method" json:"method"`   // default centerband
	Indices []IndexConfig `yaml:"indices" json:"indices"` // optional
}

// IndexConfig names one vegetation index to compute. NIRBand redirects the
// NIR channel and applies to NDVI only.
type IndexConfig struct {
	Name    string `yaml:"name" json:"name"`
	NIRBand string `yaml:"nirBand" json:"nirBand"`
}

// StorageConfig represents results store settings
type StorageConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ExportConfig represents CSV export settings
type ExportConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// LoadConfig reads, defaults and validates a configuration file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening configuration: %w", err)
	}
	defer f.Close()

	var config Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Input.HeaderLines == nil {
		n := sed.DefaultHeaderLines
		c.Input.HeaderLines = &n
	}
	if c.Smoothing.WindowLength == nil {
		n := defaultWindowLength
		c.Smoothing.WindowLength = &n
	}
	if c.Smoothing.PolyOrder == nil {
		n := defaultPolyOrder
		c.Smoothing.PolyOrder = &n
	}
	if c.Analysis.Sensor == "" {
		c.Analysis.Sensor = string(sensor.General)
	}
	if c.Analysis.Method == "" {
		c.Analysis.Method = string(sensor.Centerband)
	}
}

// Validate checks everything that can be checked without touching the
// filesystem or the band catalog, so a bad configuration fails before any
// work starts. Sensor, method and band checks happen when the index engine
// is constructed.
func (c *Config) Validate() error {
	if c.Input.Dir == "" && len(c.Input.Files) == 0 {
		return fmt.Errorf("app.Config: input requires a directory or explicit files")
	}
	if c.Input.Dir != "" && len(c.Input.Files) > 0 {
		return fmt.Errorf("app.Config: specify either input.dir or input.files, not both")
	}
	if *c.Input.HeaderLines < 0 {
		return fmt.Errorf("app.Config: header lines must not be negative: %d given", *c.Input.HeaderLines)
	}

	if c.Smoothing.Enabled {
		window, poly := *c.Smoothing.WindowLength, *c.Smoothing.PolyOrder
		if window < 1 || window%2 == 0 {
			return fmt.Errorf("app.Config: smoothing window length must be a positive odd number: %d given", window)
		}
		if poly < 0 {
			return fmt.Errorf("app.Config: smoothing polynomial order must not be negative: %d given", poly)
		}
		if poly >= window {
			return fmt.Errorf("app.Config: smoothing polynomial order must be less than window length: %d >= %d", poly, window)
		}
	}

	seen := make(map[IndexConfig]struct{}, len(c.Analysis.Indices))
	for _, idx := range c.Analysis.Indices {
		if _, ok := validIndices[idx.Name]; !ok {
			return fmt.Errorf("app.Config: unknown index: %q", idx.Name)
		}
		if idx.NIRBand != "" && idx.Name != vegindex.IndexNDVI {
			return fmt.Errorf("app.Config: nirBand applies to %s only: given for %s", vegindex.IndexNDVI, idx.Name)
		}
		if _, ok := seen[idx]; ok {
			return fmt.Errorf("app.Config: duplicate index: %s", idx.Name)
		}
		seen[idx] = struct{}{}
	}

	if c.Storage.Path == "" && c.Export.Dir == "" {
		return fmt.Errorf("app.Config: no outputs configured: set storage.path or export.dir")
	}

	return nil
}
