package spectrum

import (
	"time"
)

// Kind distinguishes the two table snapshots a processing run can produce.
type Kind string

const (
	// KindRaw marks spectra exactly as parsed from the sample files.
	KindRaw Kind = "raw"

	// KindSmoothed marks spectra after Savitzky-Golay smoothing.
	KindSmoothed Kind = "smoothed"
)

// Dataset describes a single processing run over a batch of sample files.
// Each dataset captures where the spectra came from and how they were
// processed, so stored results can be reproduced.
type Dataset struct {
	ID           int64     `json:"ID"`                     // Unique identifier for the dataset
	CreatedAt    time.Time `json:"createdAt"`              // When the processing run started
	SourceDir    string    `json:"sourceDir"`              // Directory the sample files were read from
	Sensor       string    `json:"sensor"`                 // Sensor band model used for index computation
	Method       string    `json:"method"`                 // Band resolution method ("centerband" or "average")
	HeaderLines  int       `json:"headerLines"`            // Header lines skipped in each sample file
	WindowLength *int      `json:"windowLength,omitempty"` // Smoothing window length (nil if smoothing was disabled)
	PolyOrder    *int      `json:"polyOrder,omitempty"`    // Smoothing polynomial order (nil if smoothing was disabled)
	FileCount    int       `json:"fileCount"`              // Number of sample files that contributed rows
	RowCount     int       `json:"rowCount"`               // Number of sample rows in the dataset
	Config       *string   `json:"config,omitempty"`       // Optional run configuration in JSON format
}

// SampleRow is one sample's reflectance spectrum as read back from a store.
// Values are ordered by ascending wavelength; a NaN value marks a reading
// that was stored as undefined.
type SampleRow struct {
	Index       int       `json:"index"`       // Sample row index within the dataset
	Kind        Kind      `json:"kind"`        // Which snapshot the row belongs to
	Wavelengths []int     `json:"wavelengths"` // Column labels in nm, ascending
	Values      []float64 `json:"values"`      // One reflectance value per wavelength
}
