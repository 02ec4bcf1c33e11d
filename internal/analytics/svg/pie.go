package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Pie renders a pie or, when opts.Hole is set, a doughnut with a legend on
// the right. Negative values are drawn as empty slices.
func Pie(width, height int, series []float64, labels []string, opts PieOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if opts.Hole < 0 || opts.Hole >= 1 {
		return "", fmt.Errorf("svg: hole must be within [0,1)")
	}
	legendColor := fallback(opts.LegendColor, "#2c3e50")

	total := 0.0
	for _, v := range series {
		if v > 0 {
			total += v
		}
	}

	legendWidth := math.Min(float64(width)*0.4, 220)
	radius := math.Min(float64(width)-legendWidth, float64(height))/2 - DefaultPadding/2
	if radius <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}
	cx := DefaultPadding/2 + radius
	cy := float64(height) / 2
	inner := radius * opts.Hole

	titleID := makeID(opts.Title, "pie-title")
	descID := makeID(opts.Title, "pie-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Graphique"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Répartition"))))

	if total <= 0 {
		b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"#ecf0f1\" stroke-width=\"2\"></circle>", cx, cy, radius))
	}

	start := -math.Pi / 2
	for i, value := range series {
		color := PaletteColor(opts.Colors, i)
		share := 0.0
		if total > 0 && value > 0 {
			share = value / total
		}
		label := template.HTMLEscapeString(fmt.Sprintf("%s: %s (%.0f%%)", labels[i], formatTick(value), share*100))
		switch {
		case share <= 0:
		case share >= 1-1e-9:
			// A full circle cannot be expressed as a single arc.
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" fill-opacity=\"0.7\"><title>%s</title></circle>", cx, cy, radius, color, label))
			if inner > 0 {
				b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"#fff\"></circle>", cx, cy, inner))
			}
		default:
			end := start + share*2*math.Pi
			b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" fill-opacity=\"0.7\" stroke=\"#fff\" stroke-width=\"1\"><title>%s</title></path>", slicePath(cx, cy, radius, inner, start, end), color, label))
			start = end
		}

		legendX := float64(width) - legendWidth + 8
		legendY := DefaultPadding + float64(i)*18
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"12\" height=\"12\" fill=\"%s\" fill-opacity=\"0.7\"></rect>", legendX, legendY-10, color))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s</text>", legendX+18, legendY, legendColor, template.HTMLEscapeString(labels[i])))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// slicePath draws an annular sector between angles a0 and a1. A zero inner
// radius degenerates to a classic pie wedge.
func slicePath(cx, cy, outer, inner, a0, a1 float64) string {
	large := 0
	if a1-a0 > math.Pi {
		large = 1
	}
	ox0, oy0 := cx+outer*math.Cos(a0), cy+outer*math.Sin(a0)
	ox1, oy1 := cx+outer*math.Cos(a1), cy+outer*math.Sin(a1)
	if inner <= 0 {
		return fmt.Sprintf("M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z", cx, cy, ox0, oy0, outer, outer, large, ox1, oy1)
	}
	ix0, iy0 := cx+inner*math.Cos(a0), cy+inner*math.Sin(a0)
	ix1, iy1 := cx+inner*math.Cos(a1), cy+inner*math.Sin(a1)
	return fmt.Sprintf("M%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 0 %.2f %.2f Z",
		ox0, oy0, outer, outer, large, ox1, oy1, ix1, iy1, inner, inner, large, ix0, iy0)
}
