package dashboard

import (
	"fmt"
	"html/template"
	"sort"
	"sync"

	"github.com/salesdash/salesdash/internal/shared"
)

// ElementID identifies a node of the dashboard page.
type ElementID string

// Widgets.
const (
	SalesTrendChart       ElementID = "salesTrendChart"
	StoresComparisonChart ElementID = "storesComparisonChart"
	ProductsChart         ElementID = "productsPerformanceChart"
	MonthlyComparison     ElementID = "monthlyComparisonChart"
	StoresTable           ElementID = "storesTable"
	ProductsTable         ElementID = "productsTable"
	MetricsRow            ElementID = "metricsRow"
)

// Controls.
const (
	SalesTrendPeriod ElementID = "salesTrendPeriod"
	StoresChartType  ElementID = "storesChartType"
	ProductMetric    ElementID = "productMetric"
	ComparisonYear   ElementID = "comparisonYear"
	ProductLimit     ElementID = "productLimit"
	StoreSort        ElementID = "storeSort"
	StoreSearch      ElementID = "storeSearch"
	ProductSearch    ElementID = "productSearch"
)

// Export singletons.
const (
	ExportContainer  ElementID = "pdf-export-container"
	LoadingIndicator ElementID = "pdf-loading-indicator"
)

// ChartIDs lists the chart widgets in page order.
var ChartIDs = []ElementID{SalesTrendChart, StoresComparisonChart, ProductsChart, MonthlyComparison}

// TableIDs lists the table widgets in page order.
var TableIDs = []ElementID{StoresTable, ProductsTable}

// ControlIDs lists the controls in page order.
var ControlIDs = []ElementID{SalesTrendPeriod, StoresChartType, ProductMetric, ComparisonYear, ProductLimit, StoreSort, StoreSearch, ProductSearch}

// Layout is the set of elements a page renders with.
type Layout []ElementID

// DefaultLayout contains every widget and control.
func DefaultLayout() Layout {
	layout := Layout{MetricsRow}
	layout = append(layout, ChartIDs...)
	layout = append(layout, TableIDs...)
	return append(layout, ControlIDs...)
}

// Without returns a copy of l minus ids.
func (l Layout) Without(ids ...ElementID) Layout {
	drop := make(map[ElementID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make(Layout, 0, len(l))
	for _, id := range l {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Element is one node of the page. Content holds the last rendered markup.
type Element struct {
	ID      ElementID
	Hidden  bool
	Content template.HTML
}

// Page is the element registry of one rendered dashboard.
type Page struct {
	mu       sync.RWMutex
	elements map[ElementID]*Element
}

// NewPage builds a page holding the elements of layout.
func NewPage(layout Layout) *Page {
	p := &Page{elements: make(map[ElementID]*Element, len(layout))}
	for _, id := range layout {
		p.elements[id] = &Element{ID: id}
	}
	return p
}

// Lookup returns the element with id or shared.ErrMissingElement.
func (p *Page) Lookup(id ElementID) (*Element, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	el, ok := p.elements[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingElement, id)
	}
	return el, nil
}

// Has reports whether id is on the page.
func (p *Page) Has(id ElementID) bool {
	_, err := p.Lookup(id)
	return err == nil
}

// SetContent replaces the markup of id.
func (p *Page) SetContent(id ElementID, content template.HTML) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrMissingElement, id)
	}
	el.Content = content
	return nil
}

// Attach adds a visible element with id. An existing element is reused and
// shown instead of being duplicated.
func (p *Page) Attach(id ElementID) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[id]
	if !ok {
		el = &Element{ID: id}
		p.elements[id] = el
	}
	el.Hidden = false
	return el
}

// Hide keeps id on the page but hides it.
func (p *Page) Hide(id ElementID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[id]; ok {
		el.Hidden = true
	}
}

// Remove detaches id from the page.
func (p *Page) Remove(id ElementID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, id)
}

// Visible reports whether id is attached and shown.
func (p *Page) Visible(id ElementID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	el, ok := p.elements[id]
	return ok && !el.Hidden
}

// Content returns the markup of id, empty when missing.
func (p *Page) Content(id ElementID) template.HTML {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if el, ok := p.elements[id]; ok {
		return el.Content
	}
	return ""
}

// IDs lists the attached element identifiers, sorted.
func (p *Page) IDs() []ElementID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]ElementID, 0, len(p.elements))
	for id := range p.elements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
