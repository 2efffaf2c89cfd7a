package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func validConfig() *Config {
	headerLines, window, poly := 27, 11, 2
	return &Config{
		Input:     InputConfig{Dir: "testdata", HeaderLines: &headerLines},
		Smoothing: SmoothingConfig{Enabled: true, WindowLength: &window, PolyOrder: &poly},
		Analysis: AnalysisConfig{
			Sensor: "general",
			Method: "centerband",
			Indices: []IndexConfig{
				{Name: "ndvi"},
				{Name: "ndvi", NIRBand: "nir"},
				{Name: "gci"},
			},
		},
		Storage: StorageConfig{Path: "results.sqlite"},
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
settings:
  logLevel: debug
input:
  dir: testdata/samples
  headerLines: 25
smoothing:
  enabled: true
  windowLength: 9
  polyOrder: 3
analysis:
  sensor: sentinel-2
  method: centerband
  indices:
    - name: ndvi
    - name: ndvi
      nirBand: nira
    - name: msavi
storage:
  path: out/results.sqlite
export:
  dir: out/csv
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() returned %v", err)
	}

	if config.Settings.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.Settings.LogLevel)
	}
	if config.Input.Dir != "testdata/samples" {
		t.Errorf("Input.Dir = %q", config.Input.Dir)
	}
	if *config.Input.HeaderLines != 25 {
		t.Errorf("HeaderLines = %d, want 25", *config.Input.HeaderLines)
	}
	if !config.Smoothing.Enabled || *config.Smoothing.WindowLength != 9 || *config.Smoothing.PolyOrder != 3 {
		t.Errorf("Smoothing = %+v, want enabled 9/3", config.Smoothing)
	}
	if config.Analysis.Sensor != "sentinel-2" || config.Analysis.Method != "centerband" {
		t.Errorf("Analysis = %s/%s", config.Analysis.Sensor, config.Analysis.Method)
	}
	if len(config.Analysis.Indices) != 3 {
		t.Fatalf("Indices = %d entries, want 3", len(config.Analysis.Indices))
	}
	if config.Analysis.Indices[1].NIRBand != "nira" {
		t.Errorf("Indices[1].NIRBand = %q, want nira", config.Analysis.Indices[1].NIRBand)
	}
	if config.Storage.Path != "out/results.sqlite" || config.Export.Dir != "out/csv" {
		t.Errorf("outputs = %q/%q", config.Storage.Path, config.Export.Dir)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
input:
  files:
    - a.sed
    - b.sed
storage:
  path: results.sqlite
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() returned %v", err)
	}

	if *config.Input.HeaderLines != 27 {
		t.Errorf("HeaderLines = %d, want 27", *config.Input.HeaderLines)
	}
	if *config.Smoothing.WindowLength != 11 || *config.Smoothing.PolyOrder != 2 {
		t.Errorf("smoothing defaults = %d/%d, want 11/2", *config.Smoothing.WindowLength, *config.Smoothing.PolyOrder)
	}
	if config.Smoothing.Enabled {
		t.Error("smoothing enabled by default")
	}
	if config.Analysis.Sensor != "general" {
		t.Errorf("Sensor = %q, want general", config.Analysis.Sensor)
	}
	if config.Analysis.Method != "centerband" {
		t.Errorf("Method = %q, want centerband", config.Analysis.Method)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig() returned nil for a missing file")
	}
}

func TestLoadConfigUnknownField(t *testing.T) {
	path := writeConfigFile(t, `
input:
  directory: testdata
storage:
  path: results.sqlite
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() accepted an unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name: "smoothing disabled skips filter checks",
			mutate: func(c *Config) {
				c.Smoothing.Enabled = false
				*c.Smoothing.WindowLength = 4
			},
		},
		{
			name:    "no inputs",
			mutate:  func(c *Config) { c.Input.Dir = "" },
			wantErr: "requires a directory",
		},
		{
			name:    "both dir and files",
			mutate:  func(c *Config) { c.Input.Files = []string{"a.sed"} },
			wantErr: "not both",
		},
		{
			name:    "negative header lines",
			mutate:  func(c *Config) { *c.Input.HeaderLines = -1 },
			wantErr: "header lines",
		},
		{
			name:    "even window",
			mutate:  func(c *Config) { *c.Smoothing.WindowLength = 10 },
			wantErr: "odd",
		},
		{
			name:    "negative polynomial order",
			mutate:  func(c *Config) { *c.Smoothing.PolyOrder = -1 },
			wantErr: "polynomial order",
		},
		{
			name:    "order not below window",
			mutate:  func(c *Config) { *c.Smoothing.PolyOrder = 11 },
			wantErr: "less than window",
		},
		{
			name:    "unknown index",
			mutate:  func(c *Config) { c.Analysis.Indices = append(c.Analysis.Indices, IndexConfig{Name: "arvi"}) },
			wantErr: "unknown index",
		},
		{
			name:    "nir band on non-ndvi index",
			mutate:  func(c *Config) { c.Analysis.Indices = append(c.Analysis.Indices, IndexConfig{Name: "evi", NIRBand: "nira"}) },
			wantErr: "nirBand applies to ndvi only",
		},
		{
			name:    "duplicate index",
			mutate:  func(c *Config) { c.Analysis.Indices = append(c.Analysis.Indices, IndexConfig{Name: "gci"}) },
			wantErr: "duplicate index",
		},
		{
			name: "no outputs",
			mutate: func(c *Config) {
				c.Storage.Path = ""
				c.Export.Dir = ""
			},
			wantErr: "no outputs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() returned %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() returned nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
