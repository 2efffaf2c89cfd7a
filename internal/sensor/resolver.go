package sensor

import (
	"errors"
	"fmt"

	"github.com/fieldspec/spectevol/internal/spectrum"
)

// Method selects how a band maps onto table columns.
type Method string

const (
	// Centerband reads the single column at the band's center wavelength.
	Centerband Method = "centerband"

	// Average reads the per-row mean over every column within the band's
	// interval, bounds inclusive.
	Average Method = "average"
)

// ErrInvalidConfiguration indicates a sensor/method combination that cannot
// be resolved, or an unrecognized method value.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Resolver turns band names into per-row channel values under a fixed
// resolution method. The method is chosen per instance, not per call, so a
// caller computing several indices gets internally consistent channels.
type Resolver struct {
	def     *Definition
	method  Method
	centers map[string]int // centerband wavelengths, derived at construction
}

// NewResolver validates the sensor/method combination and derives the
// centerband map. Discrete-band sensors (Sentinel-2) have no intervals to
// average over, so combining one with Average fails immediately, as does an
// unrecognized method.
func NewResolver(def *Definition, method Method) (*Resolver, error) {
	switch method {
	case Centerband, Average:
	default:
		return nil, fmt.Errorf("sensor %s: method %q: %w", def.ID, method, ErrInvalidConfiguration)
	}
	if method == Average && def.Discrete {
		return nil, fmt.Errorf("sensor %s defines discrete band centers, method %q requires intervals: %w",
			def.ID, method, ErrInvalidConfiguration)
	}

	centers := make(map[string]int, len(def.Bands))
	for name, b := range def.Bands {
		centers[name] = b.Center()
	}

	return &Resolver{def: def, method: method, centers: centers}, nil
}

// Sensor returns the resolver's sensor identifier.
func (r *Resolver) Sensor() Sensor { return r.def.ID }

// Method returns the resolver's resolution method.
func (r *Resolver) Method() Method { return r.method }

// Resolve returns the named band's channel values, one per table row.
// An unknown band name fails with ErrUnknownBand; a band whose wavelengths
// are missing from the table fails with spectrum.ErrColumnNotFound.
func (r *Resolver) Resolve(t *spectrum.Table, band string) ([]float64, error) {
	switch r.method {
	case Centerband:
		center, ok := r.centers[band]
		if !ok {
			return nil, fmt.Errorf("sensor %s: band %q: %w", r.def.ID, band, ErrUnknownBand)
		}
		values, err := t.Column(center)
		if err != nil {
			return nil, fmt.Errorf("resolving band %q of sensor %s: %w", band, r.def.ID, err)
		}
		return values, nil

	case Average:
		b, ok := r.def.Bands[band]
		if !ok {
			return nil, fmt.Errorf("sensor %s: band %q: %w", r.def.ID, band, ErrUnknownBand)
		}
		values, err := t.MeanInRange(b.Low, b.High)
		if err != nil {
			return nil, fmt.Errorf("resolving band %q of sensor %s: %w", band, r.def.ID, err)
		}
		return values, nil
	}

	// Unreachable, construction validates the method.
	return nil, fmt.Errorf("method %q: %w", r.method, ErrInvalidConfiguration)
}
