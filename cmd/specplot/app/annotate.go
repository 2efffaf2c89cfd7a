package app

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fieldspec/spectevol/internal/spectrum"
)

const (
	dpi      = 72.0
	fontSize = 12.0
)

type annotatorConfig struct {
	FontSize float64
	Borders  BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, plot *PlotData) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawWavelengthScale(img, area, plot); err != nil {
		return fmt.Errorf("drawing wavelength scale: %w", err)
	}
	if err := a.drawReflectanceScale(img, area, plot); err != nil {
		return fmt.Errorf("drawing reflectance scale: %w", err)
	}
	if err := a.drawInfoBar(img, area, plot); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

func (a *annotator) drawWavelengthScale(img *image.RGBA, area image.Rectangle, plot *PlotData) error {
	step := niceWavelengthStep(plot.WavelengthMax-plot.WavelengthMin, area.Dx())

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := area.Max.Y + tickMarkSize + fontHeight

	start := (plot.WavelengthMin + step - 1) / step * step
	for w := start; w <= plot.WavelengthMax; w += step {
		x := xAt(area, plot, w)

		// Draw tick mark below the plot
		for y := area.Max.Y; y < area.Max.Y+tickMarkSize; y++ {
			img.Set(x, y, color.Black)
		}

		label := fmt.Sprintf("%d nm", w)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-(width.Round()/2), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing wavelength label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawReflectanceScale(img *image.RGBA, area image.Rectangle, plot *PlotData) error {
	step := niceValueStep(plot.ValueMax-plot.ValueMin, area.Dy())

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	start := math.Ceil(plot.ValueMin/step) * step
	for v := start; v <= plot.ValueMax; v += step {
		y := yAt(area, plot, v)

		// Draw tick mark left of the plot
		for x := area.Min.X - tickMarkSize; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := strconv.FormatFloat(v, 'g', 3, 64)
		width := font.MeasureString(a.fontFace, label)
		textY := y + fontHeight/2 - metrics.Descent.Round()
		pt := freetype.Pt(area.Min.X-tickMarkSize-3-width.Round(), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing reflectance label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, area image.Rectangle, plot *PlotData) error {
	ds := plot.Dataset

	var sb strings.Builder
	fmt.Fprintf(&sb, "Dataset %d: %s/%s", ds.ID, ds.Sensor, ds.Method)
	fmt.Fprintf(&sb, "; %s spectra", plot.Kind)
	if plot.Kind == spectrum.KindSmoothed && ds.WindowLength != nil && ds.PolyOrder != nil {
		fmt.Fprintf(&sb, " (window %d, order %d)", *ds.WindowLength, *ds.PolyOrder)
	}
	fmt.Fprintf(&sb, "; showing %d of %d samples", len(plot.Rows), plot.TotalRows)
	fmt.Fprintf(&sb, "; %d-%d nm", plot.WavelengthMin, plot.WavelengthMax)
	fmt.Fprintf(&sb, "; %s points", humanize.Comma(int64(plot.Points())))

	pt := freetype.Pt(area.Min.X, img.Bounds().Max.Y-8)
	if _, err := a.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}

	return nil
}

// Helper functions

func niceWavelengthStep(span, width int) int {
	// Standard step sizes in nm
	steps := []int{5, 10, 25, 50, 100, 250, 500, 1000}

	desiredSteps := float64(width) / pixelsPerLabel
	targetStep := float64(span) / desiredSteps

	for _, step := range steps {
		if float64(step) >= targetStep {
			// If this step would give us at least 2 points
			if span/step >= 2 {
				return step
			}
			break
		}
	}

	if span >= 4 {
		return span / 2
	}
	return 1
}

func niceValueStep(span float64, height int) float64 {
	steps := []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10}

	// Reflectance labels stack vertically and can sit closer together than
	// wavelength labels.
	desiredSteps := float64(height) / 80
	targetStep := span / desiredSteps

	for _, step := range steps {
		if step >= targetStep {
			if span/step >= 2 {
				return step
			}
			break
		}
	}

	return span / 2
}
