package sed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldspec/spectevol/internal/spectrum"
)

func constValues(n int, v float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return values
}

func writeSampleFile(t *testing.T, dir, name string, header int, values []float64) string {
	t.Helper()

	var b strings.Builder
	for i := 0; i < header; i++ {
		fmt.Fprintf(&b, "header line %d: instrument metadata\n", i+1)
	}
	for i, v := range values {
		fmt.Fprintf(&b, "%d\t%.4f\n", spectrum.WavelengthStart+i, v)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}

	return path
}

func TestParseFilesRowPerFile(t *testing.T) {
	dir := t.TempDir()
	first := writeSampleFile(t, dir, "plot_a.sed", DefaultHeaderLines, constValues(spectrum.WavelengthCount, 0.1))
	second := writeSampleFile(t, dir, "plot_b.sed", DefaultHeaderLines, constValues(spectrum.WavelengthCount, 0.2))

	result, err := NewParser().ParseFiles(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}

	if got := result.Table.Rows(); got != 2 {
		t.Fatalf("Rows() = %d, want 2", got)
	}
	if got := result.Table.Cols(); got != spectrum.WavelengthCount {
		t.Fatalf("Cols() = %d, want %d", got, spectrum.WavelengthCount)
	}
	if len(result.Sources) != 2 || result.Sources[0] != first || result.Sources[1] != second {
		t.Errorf("Sources = %v, want [%s %s]", result.Sources, first, second)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", result.Skipped)
	}
	if got := result.Table.Row(0)[0]; got != 0.1 {
		t.Errorf("Row(0)[0] = %v, want 0.1", got)
	}
	if got := result.Table.Row(1)[spectrum.WavelengthCount-1]; got != 0.2 {
		t.Errorf("Row(1) last = %v, want 0.2", got)
	}
}

func TestParseFilesTruncated(t *testing.T) {
	dir := t.TempDir()
	full := writeSampleFile(t, dir, "full.sed", DefaultHeaderLines, constValues(spectrum.WavelengthCount, 0.1))
	short := writeSampleFile(t, dir, "short.sed", DefaultHeaderLines, constValues(spectrum.WavelengthCount-1, 0.2))

	_, err := NewParser().ParseFiles(context.Background(), []string{full, short})
	if !errors.Is(err, spectrum.ErrShape) {
		t.Fatalf("ParseFiles() error = %v, want spectrum.ErrShape", err)
	}
	if want := fmt.Sprintf("%d", 2*spectrum.WavelengthCount-1); !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not reference total %s", err, want)
	}
}

func TestParseFilesMissingFile(t *testing.T) {
	dir := t.TempDir()
	present := writeSampleFile(t, dir, "present.sed", DefaultHeaderLines, constValues(spectrum.WavelengthCount, 0.3))
	missing := filepath.Join(dir, "missing.sed")

	result, err := NewParser().ParseFiles(context.Background(), []string{present, missing})
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}

	if got := result.Table.Rows(); got != 1 {
		t.Fatalf("Rows() = %d, want 1", got)
	}
	if len(result.Sources) != 1 || result.Sources[0] != present {
		t.Errorf("Sources = %v, want [%s]", result.Sources, present)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != missing {
		t.Errorf("Skipped = %v, want [%s]", result.Skipped, missing)
	}
}

func TestParseFilesMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"bad number", "354\tnot-a-number"},
		{"missing column", "354 0.5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()

			var b strings.Builder
			for i := 0; i < 3; i++ {
				fmt.Fprintf(&b, "header line %d\n", i+1)
			}
			b.WriteString("350\t0.1\n")
			b.WriteString("351\t0.2\n")
			b.WriteString("352\t0.3\n")
			b.WriteString("353\t0.4\n")
			b.WriteString(tc.line + "\n")

			path := filepath.Join(dir, "bad.sed")
			if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
				t.Fatalf("writing bad.sed: %v", err)
			}

			_, err := NewParser(WithHeaderLines(3)).ParseFiles(context.Background(), []string{path})

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("ParseFiles() error = %v, want *ParseError", err)
			}
			if perr.File != path {
				t.Errorf("ParseError.File = %s, want %s", perr.File, path)
			}
			if perr.Line != 8 {
				t.Errorf("ParseError.Line = %d, want 8", perr.Line)
			}
		})
	}
}

func TestParseFilesHeaderLines(t *testing.T) {
	dir := t.TempDir()
	path := writeSampleFile(t, dir, "short_header.sed", 3, constValues(spectrum.WavelengthCount, 0.5))

	result, err := NewParser(WithHeaderLines(3)).ParseFiles(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}
	if got := result.Table.Rows(); got != 1 {
		t.Fatalf("Rows() = %d, want 1", got)
	}
	if got := result.Table.Row(0)[0]; got != 0.5 {
		t.Errorf("Row(0)[0] = %v, want 0.5", got)
	}
}

func TestParseFilesNegativeHeaderLines(t *testing.T) {
	_, err := NewParser(WithHeaderLines(-1)).ParseFiles(context.Background(), nil)
	if err == nil {
		t.Fatal("ParseFiles() error = nil, want error")
	}
}

func TestParseFilesCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeSampleFile(t, dir, "plot.sed", DefaultHeaderLines, constValues(spectrum.WavelengthCount, 0.1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().ParseFiles(ctx, []string{path})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ParseFiles() error = %v, want context.Canceled", err)
	}
}

func TestParseFilesHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeSampleFile(t, dir, "header_only.sed", DefaultHeaderLines, nil)

	_, err := NewParser().ParseFiles(context.Background(), []string{path})

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("ParseFiles() error = %v, want *ParseError", err)
	}
}

func TestParseFilesBlankLinesIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeSampleFile(t, dir, "trailing.sed", DefaultHeaderLines, constValues(spectrum.WavelengthCount, 0.7))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	if _, err := f.WriteString("\n\n"); err != nil {
		t.Fatalf("appending blank lines: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing %s: %v", path, err)
	}

	result, err := NewParser().ParseFiles(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}
	if got := result.Table.Rows(); got != 1 {
		t.Fatalf("Rows() = %d, want 1", got)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"b.sed", "a.sed", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.sed"), 0o755); err != nil {
		t.Fatalf("creating nested dir: %v", err)
	}

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{filepath.Join(dir, "a.sed"), filepath.Join(dir, "b.sed")}
	if len(files) != len(want) {
		t.Fatalf("Discover() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("Discover()[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "does-not-exist"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Discover() error = %v, want fs.ErrNotExist", err)
	}
}
