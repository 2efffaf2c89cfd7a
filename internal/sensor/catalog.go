// Package sensor defines the satellite band models used to resolve named
// spectral channels (such as "red" or "nir") against a reflectance table.
// Band definitions are embedded domain constants taken from the sensor
// specification documents; they are not configurable at runtime.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Sensor identifies a supported band model. The set is closed: looking up
// any other identifier fails with ErrUnknownSensor.
type Sensor string

const (
	General   Sensor = "general"    // Generic broadband model for unspecified instruments
	Landsat7  Sensor = "landsat-7"  // Landsat-7 ETM+
	Landsat8  Sensor = "landsat-8"  // Landsat-8 OLI
	Landsat9  Sensor = "landsat-9"  // Landsat-9 OLI-2 (same bands as Landsat-8)
	Sentinel2 Sensor = "sentinel-2" // Sentinel-2 MSI, discrete band centers
	Planet    Sensor = "planet"     // Planet SuperDove
)

var (
	// ErrUnknownSensor indicates a sensor identifier absent from the catalog.
	ErrUnknownSensor = errors.New("unknown sensor")

	// ErrUnknownBand indicates a band name absent from a sensor's band set.
	ErrUnknownBand = errors.New("unknown band")
)

// Band is a named channel's wavelength extent in nanometers. Interval bands
// satisfy Low <= High; discrete bands carry the center wavelength in both
// fields.
type Band struct {
	Low  float64
	High float64
}

// Center returns the band's centerband wavelength: the floor of the interval
// midpoint. For a discrete band this is the discrete wavelength itself.
func (b Band) Center() int {
	return int(math.Floor((b.Low + b.High) / 2))
}

// Definition is one sensor's immutable band table.
type Definition struct {
	ID       Sensor
	Discrete bool // bands are single wavelengths rather than intervals
	Bands    map[string]Band
}

// BandNames returns the sensor's band names in sorted order.
func (d *Definition) BandNames() []string {
	names := make([]string, 0, len(d.Bands))
	for name := range d.Bands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Band returns the named band, reporting whether it exists.
func (d *Definition) Band(name string) (Band, bool) {
	b, ok := d.Bands[name]
	return b, ok
}

func discrete(nm float64) Band {
	return Band{Low: nm, High: nm}
}

// Landsat-8 and Landsat-9 carry the same OLI band layout.
var landsatOLIBands = map[string]Band{
	"aerosol": {435, 451},
	"blue":    {452, 512},
	"green":   {533, 590},
	"red":     {636, 673},
	"nir":     {851, 879},
	"swir1":   {1566, 1651},
	"swir2":   {2107, 2294},
	"cirrus":  {1363, 1384},
}

var catalog = map[Sensor]*Definition{
	General: {
		ID: General,
		Bands: map[string]Band{
			"blue":  {450, 520},
			"green": {521, 600},
			"red":   {601, 690},
			"nir":   {700, 800},
		},
	},
	Landsat7: {
		ID: Landsat7,
		Bands: map[string]Band{
			"blue":  {450, 515},
			"green": {525, 605},
			"red":   {630, 690},
			"nir":   {775, 900},
			"swir1": {1550, 1750},
			"swir2": {2090, 2350},
			"pan":   {520, 900},
		},
	},
	Landsat8: {
		ID:    Landsat8,
		Bands: landsatOLIBands,
	},
	Landsat9: {
		ID:    Landsat9,
		Bands: landsatOLIBands,
	},
	Sentinel2: {
		ID:       Sentinel2,
		Discrete: true,
		Bands: map[string]Band{
			"aerosol":      discrete(443),
			"blue":         discrete(490),
			"green":        discrete(560),
			"red":          discrete(665),
			"red-edge":     discrete(705),
			"nir":          discrete(842),
			"nira":         discrete(865),
			"nir1":         discrete(740),
			"nir2":         discrete(783),
			"water_vapour": discrete(945),
			"cirrus":       discrete(1375),
			"swir1":        discrete(1610),
			"swir2":        discrete(2190),
		},
	},
	Planet: {
		ID: Planet,
		Bands: map[string]Band{
			"coastal":  {431, 452},
			"blue":     {465, 515},
			"green1":   {513, 549},
			"green":    {547, 583},
			"yellow":   {600, 620},
			"red":      {650, 680},
			"red-edge": {697, 713},
			"nir":      {845, 885},
		},
	},
}

// Lookup returns the band definition for a sensor. Unknown identifiers fail
// with ErrUnknownSensor; there is no fallback model.
func Lookup(id Sensor) (*Definition, error) {
	def, ok := catalog[id]
	if !ok {
		return nil, fmt.Errorf("sensor %q: %w", id, ErrUnknownSensor)
	}
	return def, nil
}

// Sensors returns the catalog's sensor identifiers in sorted order.
func Sensors() []Sensor {
	ids := make([]Sensor, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
