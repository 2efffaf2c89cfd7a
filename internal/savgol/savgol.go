// Package savgol implements Savitzky-Golay smoothing for reflectance
// spectra. The filter replaces each value with a least-squares polynomial
// fit over a sliding window; interior points use a precomputed convolution
// kernel, while the leading and trailing half windows are refit against a
// polynomial over the outermost full window rather than padded.
package savgol

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/fieldspec/spectevol/internal/spectrum"
)

// ErrInvalidFilter indicates window or polynomial order parameters that do
// not describe a usable filter.
var ErrInvalidFilter = errors.New("invalid filter configuration")

// Filter is a configured Savitzky-Golay smoother. A Filter is immutable and
// safe to reuse across rows and tables.
type Filter struct {
	window    int
	polyOrder int
	half      int

	kernel []float64   // centered interior weights, symmetric
	left   [][]float64 // per leading position, weights over the first window
	right  [][]float64 // per trailing position, weights over the last window
}

// NewFilter derives the smoothing weights for the given window length and
// polynomial order. The window must be a positive odd number greater than
// the polynomial order.
func NewFilter(window, polyOrder int) (*Filter, error) {
	switch {
	case window < 1 || window%2 == 0:
		return nil, fmt.Errorf("window length %d must be a positive odd number: %w", window, ErrInvalidFilter)
	case polyOrder < 0:
		return nil, fmt.Errorf("polynomial order %d must not be negative: %w", polyOrder, ErrInvalidFilter)
	case polyOrder >= window:
		return nil, fmt.Errorf("polynomial order %d must be less than window length %d: %w", polyOrder, window, ErrInvalidFilter)
	}

	half := window / 2

	// The interior kernel is the first row of the pseudoinverse of the
	// design matrix on the centered abscissa -half..half: those weights
	// yield the fitted polynomial's value at the window center.
	centered := make([]float64, window)
	for i := range centered {
		centered[i] = float64(i - half)
	}
	pinv, err := pseudoinverse(vandermonde(centered, polyOrder))
	if err != nil {
		return nil, fmt.Errorf("deriving smoothing kernel: %w", err)
	}
	kernel := mat.Row(nil, 0, pinv)

	// Edge weights come from a fit over the outermost window on the
	// abscissa 0..window-1, evaluated at the positions the kernel cannot
	// reach: 0..half-1 on the left, window-half..window-1 on the right.
	edge := make([]float64, window)
	for i := range edge {
		edge[i] = float64(i)
	}
	epinv, err := pseudoinverse(vandermonde(edge, polyOrder))
	if err != nil {
		return nil, fmt.Errorf("deriving edge weights: %w", err)
	}

	left := make([][]float64, half)
	right := make([][]float64, half)
	for i := 0; i < half; i++ {
		left[i] = evalWeights(epinv, float64(i))
		right[i] = evalWeights(epinv, float64(window-half+i))
	}

	return &Filter{
		window:    window,
		polyOrder: polyOrder,
		half:      half,
		kernel:    kernel,
		left:      left,
		right:     right,
	}, nil
}

// Window returns the filter's window length.
func (f *Filter) Window() int { return f.window }

// PolyOrder returns the filter's polynomial order.
func (f *Filter) PolyOrder() int { return f.polyOrder }

// Kernel returns a copy of the interior convolution weights.
func (f *Filter) Kernel() []float64 {
	kernel := make([]float64, len(f.kernel))
	copy(kernel, f.kernel)
	return kernel
}

// Smooth filters one row of values and returns the result as a new slice.
// The row must be at least one window long.
func (f *Filter) Smooth(row []float64) ([]float64, error) {
	n := len(row)
	if n < f.window {
		return nil, fmt.Errorf("row of %d values is shorter than window length %d: %w", n, f.window, ErrInvalidFilter)
	}

	out := make([]float64, n)
	for i := f.half; i < n-f.half; i++ {
		out[i] = floats.Dot(f.kernel, row[i-f.half:i-f.half+f.window])
	}
	for i := 0; i < f.half; i++ {
		out[i] = floats.Dot(f.left[i], row[:f.window])
		out[n-f.half+i] = floats.Dot(f.right[i], row[n-f.window:])
	}

	return out, nil
}

// SmoothTable filters every row of a reflectance table and returns a new
// table on the same wavelength grid.
func (f *Filter) SmoothTable(t *spectrum.Table) (*spectrum.Table, error) {
	values := make([]float64, 0, t.Rows()*t.Cols())
	for i := 0; i < t.Rows(); i++ {
		smoothed, err := f.Smooth(t.Row(i))
		if err != nil {
			return nil, fmt.Errorf("smoothing row %d: %w", i, err)
		}
		values = append(values, smoothed...)
	}

	return spectrum.NewTable(t.Wavelengths(), values)
}

// vandermonde builds the design matrix for a polynomial fit of the given
// order sampled at x.
func vandermonde(x []float64, order int) *mat.Dense {
	a := mat.NewDense(len(x), order+1, nil)
	for i, v := range x {
		p := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, p)
			p *= v
		}
	}
	return a
}

// pseudoinverse computes the Moore-Penrose pseudoinverse of a tall design
// matrix from its QR factorization, solving against the identity.
func pseudoinverse(a *mat.Dense) (*mat.Dense, error) {
	rows, _ := a.Dims()

	eye := mat.NewDense(rows, rows, nil)
	for i := 0; i < rows; i++ {
		eye.Set(i, i, 1)
	}

	var qr mat.QR
	qr.Factorize(a)

	var pinv mat.Dense
	if err := qr.SolveTo(&pinv, false, eye); err != nil {
		return nil, fmt.Errorf("solving least squares system: %w", err)
	}

	return &pinv, nil
}

// evalWeights collapses a pseudoinverse into the row weights that evaluate
// the fitted polynomial at x.
func evalWeights(pinv *mat.Dense, x float64) []float64 {
	orders, window := pinv.Dims()

	w := make([]float64, window)
	p := 1.0
	for k := 0; k < orders; k++ {
		for j := 0; j < window; j++ {
			w[j] += p * pinv.At(k, j)
		}
		p *= x
	}

	return w
}
