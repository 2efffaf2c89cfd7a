package spectrum

import (
	"errors"
	"math"
	"testing"
)

func TestNewTable(t *testing.T) {
	tests := []struct {
		name        string
		wavelengths []int
		values      []float64
		wantRows    int
		wantErr     bool
	}{
		{
			name:        "single row",
			wavelengths: []int{500, 501, 502},
			values:      []float64{0.1, 0.2, 0.3},
			wantRows:    1,
		},
		{
			name:        "two rows",
			wavelengths: []int{500, 501, 502},
			values:      []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
			wantRows:    2,
		},
		{
			name:        "empty values",
			wavelengths: []int{500, 501, 502},
			values:      nil,
			wantRows:    0,
		},
		{
			name:        "no wavelengths",
			wavelengths: nil,
			values:      []float64{0.1},
			wantErr:     true,
		},
		{
			name:        "wavelengths not ascending",
			wavelengths: []int{500, 500, 502},
			values:      []float64{0.1, 0.2, 0.3},
			wantErr:     true,
		},
		{
			name:        "value count does not divide",
			wavelengths: []int{500, 501, 502},
			values:      []float64{0.1, 0.2, 0.3, 0.4},
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab, err := NewTable(tt.wavelengths, tt.values)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tab.Rows() != tt.wantRows {
				t.Errorf("Rows() = %d, want %d", tab.Rows(), tt.wantRows)
			}
			if tab.Cols() != len(tt.wavelengths) {
				t.Errorf("Cols() = %d, want %d", tab.Cols(), len(tt.wavelengths))
			}
		})
	}
}

func TestNewTableShapeError(t *testing.T) {
	_, err := NewTable([]int{500, 501}, []float64{0.1, 0.2, 0.3})
	if !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
}

func TestWavelengthsGrid(t *testing.T) {
	w := Wavelengths()
	if len(w) != WavelengthCount {
		t.Fatalf("grid length = %d, want %d", len(w), WavelengthCount)
	}
	if w[0] != WavelengthStart {
		t.Errorf("first wavelength = %d, want %d", w[0], WavelengthStart)
	}
	if w[len(w)-1] != WavelengthEnd {
		t.Errorf("last wavelength = %d, want %d", w[len(w)-1], WavelengthEnd)
	}
}

func TestColumn(t *testing.T) {
	tab, err := NewTable([]int{600, 601, 602}, []float64{
		0.1, 0.2, 0.3,
		0.4, 0.5, 0.6,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	col, err := tab.Column(601)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0.2, 0.5}
	if len(col) != len(want) {
		t.Fatalf("column length = %d, want %d", len(col), len(want))
	}
	for i := range want {
		if col[i] != want[i] {
			t.Errorf("col[%d] = %g, want %g", i, col[i], want[i])
		}
	}

	if _, err = tab.Column(999); !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestMeanInRange(t *testing.T) {
	tab, err := NewTable([]int{600, 610, 620, 630}, []float64{
		1, 2, 3, 4,
		10, 20, 30, 40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		low, high float64
		want      []float64
		wantErr   bool
	}{
		{
			name: "bounds exactly on columns",
			low:  600, high: 610,
			want: []float64{1.5, 15},
		},
		{
			name: "full range",
			low:  600, high: 630,
			want: []float64{2.5, 25},
		},
		{
			name: "fractional bounds include interior labels",
			low:  609.5, high: 620.5,
			want: []float64{2.5, 25},
		},
		{
			name: "single column",
			low:  620, high: 620,
			want: []float64{3, 30},
		},
		{
			name: "no columns in range",
			low:  621, high: 629,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tab.MeanInRange(tt.low, tt.high)
			if tt.wantErr {
				if !errors.Is(err, ErrColumnNotFound) {
					t.Fatalf("expected ErrColumnNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("row %d mean = %g, want %g", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRound(t *testing.T) {
	tab, err := NewTable([]int{500, 501}, []float64{0.12345, 0.56789})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rounded := tab.Round(3)
	row := rounded.Row(0)
	if row[0] != 0.123 || row[1] != 0.568 {
		t.Errorf("rounded row = %v, want [0.123 0.568]", row)
	}

	// The source table keeps full precision.
	if tab.Row(0)[0] != 0.12345 {
		t.Errorf("source table modified: %v", tab.Row(0))
	}
}
