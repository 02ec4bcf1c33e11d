// Package snapshot turns the live dashboard into a paginated PDF document.
package snapshot

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/salesdash/salesdash/report"
)

// Orientation of the printed page.
type Orientation string

// Orientations.
const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// PageSize names a paper format.
type PageSize string

// Supported paper formats.
const (
	A4     PageSize = "a4"
	A3     PageSize = "a3"
	Letter PageSize = "letter"
	Legal  PageSize = "legal"
)

// Portrait dimensions in millimetres.
var paperSizes = map[PageSize][2]float64{
	A4:     {210, 297},
	A3:     {297, 420},
	Letter: {215.9, 279.4},
	Legal:  {215.9, 355.6},
}

// Defaults of the export form.
const (
	DefaultFilename = "tableau_de_bord_ventes.pdf"
	DefaultTitle    = "Tableau de Bord des Ventes"
	DefaultMargin   = 15.0
)

// Settings configures one export. Margins are top, right, bottom, left in mm.
type Settings struct {
	Filename      string      `validate:"required,max=200,endswith=.pdf"`
	Orientation   Orientation `validate:"oneof=portrait landscape"`
	PageSize      PageSize    `validate:"oneof=a4 a3 letter legal"`
	Margins       [4]float64  `validate:"dive,gte=0,lte=60"`
	IncludeHeader bool
	IncludeCharts bool
	IncludeTables bool
	Title         string `validate:"required,max=200"`
	DateRange     string `validate:"max=64"`
}

var validate = validator.New()

// DefaultSettings returns the settings of an untouched export form.
func DefaultSettings() Settings {
	return Settings{
		Filename:      DefaultFilename,
		Orientation:   Portrait,
		PageSize:      A4,
		Margins:       [4]float64{DefaultMargin, DefaultMargin, DefaultMargin, DefaultMargin},
		IncludeHeader: true,
		IncludeCharts: true,
		IncludeTables: true,
		Title:         DefaultTitle,
	}
}

// Validate checks the settings.
func (s Settings) Validate() error {
	return validate.Struct(s)
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9_-]+`)

// FilenameFor names the document exported for dateRange.
func FilenameFor(dateRange string) string {
	token := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(strings.TrimSpace(dateRange)), "_"), "_")
	if token == "" {
		return DefaultFilename
	}
	return "tableau_de_bord_ventes_" + token + ".pdf"
}

// PaperSize returns width and height in millimetres, swapped for landscape.
func (s Settings) PaperSize() (float64, float64) {
	dims, ok := paperSizes[s.PageSize]
	if !ok {
		dims = paperSizes[A4]
	}
	if s.Orientation == Landscape {
		return dims[1], dims[0]
	}
	return dims[0], dims[1]
}

// ContentWidth is the printable width in millimetres.
func (s Settings) ContentWidth() float64 {
	w, _ := s.PaperSize()
	return w - s.Margins[1] - s.Margins[3]
}

// PageOptions converts the settings to converter page geometry. The paper is
// given in portrait; the converter rotates it for landscape.
func (s Settings) PageOptions(waitExpression string) report.PageOptions {
	portrait := s
	portrait.Orientation = Portrait
	w, h := portrait.PaperSize()
	return report.PageOptions{
		PaperWidth:     w,
		PaperHeight:    h,
		Landscape:      s.Orientation == Landscape,
		MarginTop:      s.Margins[0],
		MarginRight:    s.Margins[1],
		MarginBottom:   s.Margins[2],
		MarginLeft:     s.Margins[3],
		WaitExpression: waitExpression,
	}
}

// SectionCount reports how many of header, charts and tables are enabled.
func (s Settings) SectionCount() int {
	n := 0
	for _, on := range []bool{s.IncludeHeader, s.IncludeCharts, s.IncludeTables} {
		if on {
			n++
		}
	}
	return n
}
