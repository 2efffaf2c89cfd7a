// Package vegindex derives standard vegetation indices from a reflectance
// table using a sensor band model. Each index resolves the channels it needs
// through a band resolver and applies its formula elementwise, producing one
// value per sample row.
//
// Numerical edge cases are not errors: a negative MSAVI radicand yields NaN
// and a zero GCI denominator yields an infinity, both propagated per IEEE
// semantics for the caller to filter downstream.
package vegindex

import (
	"errors"
	"fmt"
	"math"

	"github.com/fieldspec/spectevol/internal/sensor"
	"github.com/fieldspec/spectevol/internal/spectrum"
)

// Supported index names, as accepted by Compute.
const (
	IndexNDVI  = "ndvi"
	IndexEVI   = "evi"
	IndexSAVI  = "savi"
	IndexMSAVI = "msavi"
	IndexGCI   = "gci"
)

// Formula constants. Epsilon pads denominators that can legitimately reach
// zero (sums of non-negative reflectances); its magnitude is part of the
// contract and must not change, results would drift across runs otherwise.
// GCI carries no epsilon and divides the green channel directly.
const (
	epsilon = 1e-10

	eviL  = 1.0
	eviC1 = 6.0
	eviC2 = 7.5
	eviG  = 2.5

	saviL = 0.5
)

// ErrUnknownIndex indicates an index name Compute does not support.
var ErrUnknownIndex = errors.New("unknown index")

// Indices returns the supported index names in canonical order.
func Indices() []string {
	return []string{IndexNDVI, IndexEVI, IndexSAVI, IndexMSAVI, IndexGCI}
}

// Series holds one computed index over a dataset, one value per sample row.
type Series struct {
	Index   string    `json:"index"`             // Index name (e.g. "ndvi")
	NIRBand string    `json:"nirBand,omitempty"` // Alternate NIR band, if one was selected
	Values  []float64 `json:"values"`            // One value per sample row
}

// Option adjusts a single index computation.
type Option func(*options)

type options struct {
	nirBand string
}

// WithNIRBand selects an alternate NIR band for NDVI, for sensors exposing
// several NIR channels (Sentinel-2 "nira", "nir1", "nir2").
func WithNIRBand(name string) Option {
	return func(o *options) {
		o.nirBand = name
	}
}

// Engine computes vegetation indices for one sensor under one resolution
// method. Construction validates the sensor and method eagerly, formula
// calls never fail on configuration.
type Engine struct {
	resolver *sensor.Resolver
}

// New builds an engine for the given sensor and resolution method. Unknown
// sensors fail with sensor.ErrUnknownSensor, invalid sensor/method
// combinations with sensor.ErrInvalidConfiguration.
func New(id sensor.Sensor, method sensor.Method) (*Engine, error) {
	def, err := sensor.Lookup(id)
	if err != nil {
		return nil, fmt.Errorf("creating index engine: %w", err)
	}
	r, err := sensor.NewResolver(def, method)
	if err != nil {
		return nil, fmt.Errorf("creating index engine: %w", err)
	}
	return &Engine{resolver: r}, nil
}

// NewWithResolver builds an engine over an existing resolver.
func NewWithResolver(r *sensor.Resolver) *Engine {
	return &Engine{resolver: r}
}

// Sensor returns the engine's sensor identifier.
func (e *Engine) Sensor() sensor.Sensor { return e.resolver.Sensor() }

// Method returns the engine's resolution method.
func (e *Engine) Method() sensor.Method { return e.resolver.Method() }

// Compute dispatches an index computation by name. Options apply where the
// index supports them (WithNIRBand, NDVI only). Unknown names fail with
// ErrUnknownIndex.
func (e *Engine) Compute(t *spectrum.Table, name string, opts ...Option) ([]float64, error) {
	switch name {
	case IndexNDVI:
		return e.NDVI(t, opts...)
	case IndexEVI:
		return e.EVI(t)
	case IndexSAVI:
		return e.SAVI(t)
	case IndexMSAVI:
		return e.MSAVI(t)
	case IndexGCI:
		return e.GCI(t)
	}
	return nil, fmt.Errorf("index %q: %w", name, ErrUnknownIndex)
}

// NDVI computes (NIR - RED) / (NIR + RED + eps). The NIR channel defaults to
// the "nir" band and can be redirected with WithNIRBand.
func (e *Engine) NDVI(t *spectrum.Table, opts ...Option) ([]float64, error) {
	o := options{nirBand: "nir"}
	for _, opt := range opts {
		opt(&o)
	}

	nir, err := e.resolver.Resolve(t, o.nirBand)
	if err != nil {
		return nil, fmt.Errorf("ndvi: %w", err)
	}
	red, err := e.resolver.Resolve(t, "red")
	if err != nil {
		return nil, fmt.Errorf("ndvi: %w", err)
	}

	out := make([]float64, len(nir))
	for i := range out {
		out[i] = (nir[i] - red[i]) / (nir[i] + red[i] + epsilon)
	}
	return out, nil
}

// EVI computes G*(NIR - RED) / (NIR + C1*RED - C2*BLUE + L + eps) with
// L=1, C1=6, C2=7.5, G=2.5.
func (e *Engine) EVI(t *spectrum.Table) ([]float64, error) {
	nir, err := e.resolver.Resolve(t, "nir")
	if err != nil {
		return nil, fmt.Errorf("evi: %w", err)
	}
	red, err := e.resolver.Resolve(t, "red")
	if err != nil {
		return nil, fmt.Errorf("evi: %w", err)
	}
	blue, err := e.resolver.Resolve(t, "blue")
	if err != nil {
		return nil, fmt.Errorf("evi: %w", err)
	}

	out := make([]float64, len(nir))
	for i := range out {
		out[i] = eviG * (nir[i] - red[i]) / (nir[i] + eviC1*red[i] - eviC2*blue[i] + eviL + epsilon)
	}
	return out, nil
}

// SAVI computes ((NIR - RED) / (NIR + RED + L + eps)) * (1 + L) with L=0.5.
func (e *Engine) SAVI(t *spectrum.Table) ([]float64, error) {
	nir, err := e.resolver.Resolve(t, "nir")
	if err != nil {
		return nil, fmt.Errorf("savi: %w", err)
	}
	red, err := e.resolver.Resolve(t, "red")
	if err != nil {
		return nil, fmt.Errorf("savi: %w", err)
	}

	out := make([]float64, len(nir))
	for i := range out {
		out[i] = ((nir[i] - red[i]) / (nir[i] + red[i] + saviL + epsilon)) * (1 + saviL)
	}
	return out, nil
}

// MSAVI computes (2*NIR + 1 - sqrt((2*NIR+1)^2 - 8*(NIR-RED))) / 2. The
// radicand can go negative on pathological input; the NaN from the square
// root propagates into the result.
func (e *Engine) MSAVI(t *spectrum.Table) ([]float64, error) {
	nir, err := e.resolver.Resolve(t, "nir")
	if err != nil {
		return nil, fmt.Errorf("msavi: %w", err)
	}
	red, err := e.resolver.Resolve(t, "red")
	if err != nil {
		return nil, fmt.Errorf("msavi: %w", err)
	}

	out := make([]float64, len(nir))
	for i := range out {
		s := 2*nir[i] + 1
		out[i] = (s - math.Sqrt(s*s-8*(nir[i]-red[i]))) / 2
	}
	return out, nil
}

// GCI computes (NIR / GREEN) - 1. There is no epsilon guard: a zero green
// channel produces an infinity rather than an error.
func (e *Engine) GCI(t *spectrum.Table) ([]float64, error) {
	nir, err := e.resolver.Resolve(t, "nir")
	if err != nil {
		return nil, fmt.Errorf("gci: %w", err)
	}
	green, err := e.resolver.Resolve(t, "green")
	if err != nil {
		return nil, fmt.Errorf("gci: %w", err)
	}

	out := make([]float64, len(nir))
	for i := range out {
		out[i] = nir[i]/green[i] - 1
	}
	return out, nil
}
