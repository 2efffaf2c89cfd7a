package app

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/fieldspec/spectevol/internal/spectrum"
)

// PlotData is the slice of a dataset selected for drawing: the sampled rows
// plus the axis bounds derived from them.
type PlotData struct {
	Dataset   *spectrum.Dataset
	Kind      spectrum.Kind
	Rows      []*spectrum.SampleRow
	TotalRows int

	WavelengthMin int
	WavelengthMax int
	ValueMin      float64
	ValueMax      float64
}

// NewPlotData selects up to maxRows spectra and derives the plot bounds.
// Selection is seeded and deterministic, and preserves row order.
func NewPlotData(ds *spectrum.Dataset, kind spectrum.Kind, rows []*spectrum.SampleRow, maxRows int, seed int64) (*PlotData, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %d has no %s spectra", ds.ID, kind)
	}

	p := &PlotData{
		Dataset:   ds,
		Kind:      kind,
		Rows:      sampleRows(rows, maxRows, seed),
		TotalRows: len(rows),
	}
	if err := p.computeBounds(); err != nil {
		return nil, err
	}
	return p, nil
}

// Points returns the number of data points across the selected rows.
func (p *PlotData) Points() int {
	n := 0
	for _, row := range p.Rows {
		n += len(row.Values)
	}
	return n
}

func sampleRows(rows []*spectrum.SampleRow, n int, seed int64) []*spectrum.SampleRow {
	if n >= len(rows) {
		return rows
	}

	rng := rand.New(rand.NewSource(seed))
	picks := rng.Perm(len(rows))[:n]
	sort.Ints(picks)

	selected := make([]*spectrum.SampleRow, n)
	for i, idx := range picks {
		selected[i] = rows[idx]
	}
	return selected
}

func (p *PlotData) computeBounds() error {
	p.WavelengthMin, p.WavelengthMax = math.MaxInt32, math.MinInt32
	vMin, vMax := math.Inf(1), math.Inf(-1)

	for _, row := range p.Rows {
		if len(row.Wavelengths) == 0 {
			continue
		}
		if w := row.Wavelengths[0]; w < p.WavelengthMin {
			p.WavelengthMin = w
		}
		if w := row.Wavelengths[len(row.Wavelengths)-1]; w > p.WavelengthMax {
			p.WavelengthMax = w
		}
		for _, v := range row.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v < vMin {
				vMin = v
			}
			if v > vMax {
				vMax = v
			}
		}
	}

	if vMin > vMax {
		return fmt.Errorf("dataset %d has no finite %s reflectance values", p.Dataset.ID, p.Kind)
	}
	if p.WavelengthMin >= p.WavelengthMax {
		return fmt.Errorf("dataset %d spans a single wavelength, nothing to plot", p.Dataset.ID)
	}
	if vMin == vMax {
		// Flat spectra still need a vertical extent.
		vMin, vMax = vMin-0.5, vMax+0.5
	}

	p.ValueMin, p.ValueMax = vMin, vMax
	return nil
}
