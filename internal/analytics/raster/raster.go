// Package raster captures chart state as a still image for documents that
// cannot run the live SVG renderers.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/salesdash/salesdash/internal/analytics/svg"
	"github.com/salesdash/salesdash/internal/analytics/ui"
)

// Options sizes and encodes captured charts. Width and Height are in CSS
// pixels; Scale multiplies them for sharper output.
type Options struct {
	Width   int
	Height  int
	Scale   float64
	Quality float64
}

// DefaultOptions mirrors the on-screen chart size.
var DefaultOptions = Options{Width: svg.DefaultWidth, Height: svg.DefaultHeight, Scale: 2, Quality: 0.98}

// Capturer turns chart states into JPEG bytes.
type Capturer struct {
	opts   Options
	logger *slog.Logger
}

// NewCapturer builds a capturer. Zero fields in opts take DefaultOptions.
func NewCapturer(opts Options, logger *slog.Logger) *Capturer {
	if opts.Width <= 0 {
		opts.Width = DefaultOptions.Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultOptions.Height
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultOptions.Scale
	}
	if opts.Quality <= 0 || opts.Quality > 1 {
		opts.Quality = DefaultOptions.Quality
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Capturer{opts: opts, logger: logger}
}

// Size returns the pixel size of captured images.
func (c *Capturer) Size() (int, int) {
	return int(math.Round(float64(c.opts.Width) * c.opts.Scale)), int(math.Round(float64(c.opts.Height) * c.opts.Scale))
}

// Capture draws state and encodes it as JPEG. A chart that never received
// data, or one the chart library refuses to draw, yields a blank canvas.
func (c *Capturer) Capture(ctx context.Context, state ui.ChartState) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := c.Size()
	img := blank(w, h)
	if !state.Empty() {
		drawn, err := c.render(state, w, h)
		if err != nil {
			c.logger.Warn("chart render failed, using blank canvas", slog.String("chart", state.ID), slog.Any("error", err))
		} else {
			img = drawn
		}
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, flatten(img), &jpeg.Options{Quality: int(math.Round(c.opts.Quality * 100))}); err != nil {
		return nil, fmt.Errorf("raster: encode %s: %w", state.ID, err)
	}
	return out.Bytes(), nil
}

func (c *Capturer) render(state ui.ChartState, w, h int) (image.Image, error) {
	var buf bytes.Buffer
	var err error
	switch state.Kind {
	case ui.KindBar:
		err = barChart(state, w, h).Render(chart.PNG, &buf)
	case ui.KindPie, ui.KindDoughnut:
		err = pieChart(state, w, h).Render(chart.PNG, &buf)
	case ui.KindLine:
		err = lineChart(state, w, h).Render(chart.PNG, &buf)
	default:
		err = fmt.Errorf("unknown chart kind %q", state.Kind)
	}
	if err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func barChart(state ui.ChartState, w, h int) chart.BarChart {
	bars := make([]chart.Value, len(state.Series))
	for i, v := range state.Series {
		col := hexColor(svg.PaletteColor(state.Colors, i))
		bars[i] = chart.Value{
			Label: state.Labels[i],
			Value: v,
			Style: chart.Style{FillColor: col.WithAlpha(180), StrokeColor: col, StrokeWidth: 1},
		}
	}
	barWidth := (w - 80) / (2 * len(bars))
	if barWidth < 4 {
		barWidth = 4
	}
	return chart.BarChart{
		Title:      state.Title,
		Width:      w,
		Height:     h,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{ValueFormatter: tickFormatter},
		Bars:       bars,
	}
}

func pieChart(state ui.ChartState, w, h int) chart.PieChart {
	values := make([]chart.Value, 0, len(state.Series))
	for i, v := range state.Series {
		if v <= 0 {
			continue
		}
		col := hexColor(svg.PaletteColor(state.Colors, i))
		values = append(values, chart.Value{
			Label: state.Labels[i],
			Value: v,
			Style: chart.Style{FillColor: col.WithAlpha(180), StrokeColor: drawing.ColorWhite},
		})
	}
	return chart.PieChart{Title: state.Title, Width: w, Height: h, Values: values}
}

func lineChart(state ui.ChartState, w, h int) chart.Chart {
	xs := make([]float64, len(state.Series))
	for i := range xs {
		xs[i] = float64(i)
	}
	ys := state.Series
	if len(xs) == 1 {
		// go-chart needs a non-empty x range.
		xs = []float64{0, 1}
		ys = []float64{ys[0], ys[0]}
	}
	col := hexColor(svg.PaletteColor(state.Colors, 0))
	return chart.Chart{
		Title:      state.Title,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Ticks: lineTicks(state.Labels, 12)},
		YAxis:      chart.YAxis{ValueFormatter: tickFormatter},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    state.SeriesLabel,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 2, FillColor: col.WithAlpha(50)},
		}},
	}
}

// lineTicks keeps at most max evenly spaced labels.
func lineTicks(labels []string, max int) []chart.Tick {
	if len(labels) == 0 {
		return nil
	}
	stride := 1
	if len(labels) > max {
		stride = int(math.Ceil(float64(len(labels)) / float64(max)))
	}
	ticks := make([]chart.Tick, 0, max+1)
	for i := 0; i < len(labels); i += stride {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: labels[i]})
	}
	return ticks
}

func tickFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return fmt.Sprint(v)
	}
	switch abs := math.Abs(f); {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", f/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", f/1_000)
	default:
		return fmt.Sprintf("%.0f", f)
	}
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// blank is the canvas of a chart without data.
func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// flatten composites img over white; JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Over)
	return out
}
