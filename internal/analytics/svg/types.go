package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the bar chart renderer. Bars cycle through Colors.
type BarOpts struct {
	Title       string
	Description string
	SeriesLabel string
	Colors      []string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// PieOpts customises the pie renderer. A Hole between 0 and 1 cuts the
// centre out as a fraction of the radius, turning the pie into a doughnut.
type PieOpts struct {
	Title       string
	Description string
	Colors      []string
	Hole        float64
	LegendColor string
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 6
	DoughnutHole   = 0.5
)

// Palette is the series colour cycle shared by every chart.
var Palette = []string{
	"#3498db",
	"#2ecc71",
	"#f39c12",
	"#e74c3c",
	"#9b59b6",
	"#34495e",
	"#16a085",
	"#e67e22",
	"#95a5a6",
	"#f1c40f",
}

// PaletteColor returns the i-th colour of colors, cycling, or of Palette when
// colors is empty.
func PaletteColor(colors []string, i int) string {
	if len(colors) == 0 {
		colors = Palette
	}
	return colors[i%len(colors)]
}
