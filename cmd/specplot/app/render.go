package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	tickMarkSize   = 5
	pixelsPerLabel = 150.0

	// Default border sizes in pixels
	defaultTopBorder    = 20
	defaultLeftBorder   = 80
	defaultBottomBorder = 70
	defaultRightBorder  = 30
)

var frameColor = color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}

// BorderConfig defines the white space around the plot area
type BorderConfig struct {
	Top    int
	Left   int // Space for the reflectance scale
	Bottom int // Space for the wavelength scale and info bar
	Right  int
}

// RenderConfig holds the chart geometry and annotation settings
type RenderConfig struct {
	Width       int // Plot area width in pixels
	Height      int // Plot area height in pixels
	FontSize    float64
	Borders     BorderConfig
	Annotations bool
}

// ChartRenderer draws sampled spectra as colored polylines over a common
// wavelength axis.
type ChartRenderer struct {
	config RenderConfig
}

// NewChartRenderer creates a renderer, filling zero-valued geometry with
// defaults.
func NewChartRenderer(config RenderConfig) *ChartRenderer {
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.Borders.Top == 0 {
		config.Borders.Top = defaultTopBorder
	}
	if config.Borders.Left == 0 {
		config.Borders.Left = defaultLeftBorder
	}
	if config.Borders.Bottom == 0 {
		config.Borders.Bottom = defaultBottomBorder
	}
	if config.Borders.Right == 0 {
		config.Borders.Right = defaultRightBorder
	}

	return &ChartRenderer{config: config}
}

// Render creates an image of the selected spectra with annotations.
func (r *ChartRenderer) Render(plot *PlotData) (*image.RGBA, error) {
	fullWidth := r.config.Width + r.config.Borders.Left + r.config.Borders.Right
	fullHeight := r.config.Height + r.config.Borders.Top + r.config.Borders.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(
		r.config.Borders.Left,
		r.config.Borders.Top,
		r.config.Borders.Left+r.config.Width,
		r.config.Borders.Top+r.config.Height,
	)

	if r.config.Annotations {
		ann, err := newAnnotator(annotatorConfig{
			FontSize: r.config.FontSize,
			Borders:  r.config.Borders,
		})
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, area, plot); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	drawFrame(img, area)
	r.renderSpectra(img, area, plot)

	return img, nil
}

// renderSpectra draws one polyline per selected row. Non-finite values break
// the line, so gaps stay visible instead of being interpolated over.
func (r *ChartRenderer) renderSpectra(img *image.RGBA, area image.Rectangle, plot *PlotData) {
	palette := seriesPalette(len(plot.Rows))

	for i, row := range plot.Rows {
		c := palette[i]

		prevX, prevY, prevOK := 0, 0, false
		for j, w := range row.Wavelengths {
			v := row.Values[j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				prevOK = false
				continue
			}

			x, y := xAt(area, plot, w), yAt(area, plot, v)
			if prevOK {
				drawLine(img, prevX, prevY, x, y, c)
			} else {
				img.Set(x, y, c)
			}
			prevX, prevY, prevOK = x, y, true
		}
	}
}

// seriesPalette returns n visually spread colors. The hue circle is walked in
// even steps, so a given sample count always maps to the same colors.
func seriesPalette(n int) []color.Color {
	palette := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) * 360.0 / float64(n)
		palette[i] = colorful.Hsv(hue, 1, 0.90)
	}
	return palette
}

func xAt(area image.Rectangle, plot *PlotData, w int) int {
	ratio := float64(w-plot.WavelengthMin) / float64(plot.WavelengthMax-plot.WavelengthMin)
	return area.Min.X + int(ratio*float64(area.Dx()-1))
}

func yAt(area image.Rectangle, plot *PlotData, v float64) int {
	ratio := (v - plot.ValueMin) / (plot.ValueMax - plot.ValueMin)
	return area.Max.Y - 1 - int(ratio*float64(area.Dy()-1))
}

func drawFrame(img *image.RGBA, area image.Rectangle) {
	for x := area.Min.X; x < area.Max.X; x++ {
		img.Set(x, area.Min.Y, frameColor)
		img.Set(x, area.Max.Y-1, frameColor)
	}
	for y := area.Min.Y; y < area.Max.Y; y++ {
		img.Set(area.Min.X, y, frameColor)
		img.Set(area.Max.X-1, y, frameColor)
	}
}

// drawLine rasterizes a segment with the integer Bresenham walk.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
