package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/text/language"

	"github.com/salesdash/salesdash/internal/analytics"
	"github.com/salesdash/salesdash/internal/analytics/svg"
	"github.com/salesdash/salesdash/internal/analytics/ui"
	"github.com/salesdash/salesdash/internal/dataset"
	"github.com/salesdash/salesdash/internal/shared"
)

// Chart and table titles.
const (
	TitleSalesTrend    = "Évolution des ventes"
	TitleStores        = "Ventes par magasin"
	TitleProducts      = "Performance des produits"
	TitleMonthly       = "Comparaison mensuelle"
	TitleStoresTable   = "Détail des ventes par magasin"
	TitleProductsTable = "Top produits"
)

// ErrUnknownControl is returned by Apply for identifiers that are not controls.
var ErrUnknownControl = errors.New("dashboard: unknown control")

// Controller owns the dataset, options, page and chart handles of a single
// dashboard session. Every option change redraws only the widget it affects.
type Controller struct {
	mu       sync.Mutex
	set      *dataset.SalesRecordSet
	opts     ViewOptions
	page     *Page
	charts   map[ElementID]*ChartHandle
	tables   map[ElementID][]analytics.TableRow
	renderer ui.ChartRenderer
	format   analytics.Formatter
	logger   *slog.Logger
	width    int
	height   int
}

// NewController binds set to page. Call Init to draw the widgets.
func NewController(set *dataset.SalesRecordSet, page *Page, renderer ui.ChartRenderer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if page == nil {
		page = NewPage(DefaultLayout())
	}
	if renderer == nil {
		renderer = svg.Renderer{}
	}
	return &Controller{
		set:  set,
		opts: DefaultViewOptions(),
		page: page,
		charts: map[ElementID]*ChartHandle{
			SalesTrendChart:       NewChartHandle(SalesTrendChart, TitleSalesTrend, "Ventes mensuelles", nil),
			StoresComparisonChart: NewChartHandle(StoresComparisonChart, TitleStores, "Ventes par magasin", nil),
			ProductsChart:         NewChartHandle(ProductsChart, TitleProducts, "Ventes par produit", nil),
			MonthlyComparison:     NewChartHandle(MonthlyComparison, TitleMonthly, "Ventes mensuelles", []string{svg.Palette[0]}),
		},
		tables:   make(map[ElementID][]analytics.TableRow, len(TableIDs)),
		renderer: renderer,
		format:   analytics.NewFormatter(language.French),
		logger:   logger.With("component", "dashboard"),
		width:    svg.DefaultWidth,
		height:   svg.DefaultHeight + 60,
	}
}

// Init draws every widget with the current options.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ChartIDs {
		if err := c.renderChart(id); err != nil {
			return err
		}
	}
	for _, id := range TableIDs {
		c.renderTable(id)
	}
	return nil
}

// Options returns the current view options.
func (c *Controller) Options() ViewOptions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

// Page returns the page the controller draws on.
func (c *Controller) Page() *Page { return c.page }

// Dataset returns the record set shown by the dashboard.
func (c *Controller) Dataset() *dataset.SalesRecordSet { return c.set }

// Apply sets the option bound to control and redraws the affected widget,
// which it returns. Invalid values leave the options untouched.
func (c *Controller) Apply(control ElementID, value string) (ElementID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.opts
	var target ElementID
	switch control {
	case SalesTrendPeriod:
		next.Period, target = analytics.Granularity(value), SalesTrendChart
	case StoresChartType:
		next.StoreChartKind, target = ui.ChartKind(value), StoresComparisonChart
	case ProductMetric:
		next.ProductMetric, target = analytics.ProductMetric(value), ProductsChart
	case ComparisonYear:
		next.ComparisonYear, target = value, MonthlyComparison
	case ProductLimit:
		next.ProductLimit, target = value, ProductsTable
	case StoreSort:
		next.StoreSort, target = analytics.SortKey(value), StoresTable
	case StoreSearch:
		next.StoreSearch, target = value, StoresTable
	case ProductSearch:
		next.ProductSearch, target = value, ProductsTable
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownControl, control)
	}
	if err := next.Validate(); err != nil {
		return "", fmt.Errorf("dashboard: %s: %w", control, err)
	}
	c.opts = next

	switch control {
	case StoreSearch:
		c.tables[StoresTable] = analytics.FilterTableRows(c.tables[StoresTable], value)
		return target, nil
	case ProductSearch:
		c.tables[ProductsTable] = analytics.FilterTableRows(c.tables[ProductsTable], value)
		return target, nil
	case ProductLimit, StoreSort:
		c.renderTable(target)
		return target, nil
	default:
		return target, c.renderChart(target)
	}
}

// renderChart recomputes the series of id and draws it. A canvas missing from
// the page or a dataset without the needed rows is logged and skipped.
func (c *Controller) renderChart(id ElementID) error {
	if !c.page.Has(id) {
		c.logger.Error("chart canvas not found", slog.String("chart", string(id)), slog.Any("error", shared.ErrMissingElement))
		return nil
	}
	handle := c.charts[id]

	var (
		kind   ui.ChartKind
		labels []string
		series []float64
	)
	switch id {
	case SalesTrendChart:
		kind = ui.KindLine
		for _, b := range analytics.BucketByPeriod(c.set, c.opts.Period) {
			labels = append(labels, b.Label)
			series = append(series, b.Total.InexactFloat64())
		}
	case StoresComparisonChart:
		kind = c.opts.StoreChartKind
		for _, s := range analytics.RankStores(c.set, analytics.DefaultStoreLimit) {
			labels = append(labels, s.StoreName)
			series = append(series, s.TotalSales.InexactFloat64())
		}
	case ProductsChart:
		kind = ui.KindDoughnut
		for _, p := range analytics.RankProducts(c.set, c.opts.ProductMetric, analytics.DefaultProductLimit) {
			labels = append(labels, p.Name)
			series = append(series, p.Value.InexactFloat64())
		}
	case MonthlyComparison:
		kind = ui.KindBar
		if c.set != nil && len(c.set.MonthlySales) > 0 {
			slots := analytics.MonthlyTotalsForYear(c.set, c.opts.ComparisonYear)
			labels = analytics.MonthLabels[:]
			for _, v := range slots {
				series = append(series, v.InexactFloat64())
			}
		}
	default:
		return fmt.Errorf("dashboard: %s is not a chart", id)
	}

	if len(series) == 0 {
		c.logger.Warn("no data for chart", slog.String("chart", string(id)), slog.Any("error", shared.ErrEmptyDataset))
		return nil
	}
	if id == ProductsChart {
		handle.state.SeriesLabel = productSeriesLabel(c.opts.ProductMetric)
	}

	recreated, err := handle.Draw(kind, labels, series)
	if err != nil {
		return err
	}
	markup, err := ui.RenderChart(c.renderer, handle.State(), c.width, c.height)
	if err != nil {
		return fmt.Errorf("dashboard: draw %s: %w", id, err)
	}
	c.logger.Debug("chart drawn",
		slog.String("chart", string(id)),
		slog.String("kind", string(kind)),
		slog.Bool("recreated", recreated),
		slog.Int("revision", handle.State().Revision),
	)
	return c.page.SetContent(id, markup)
}

func productSeriesLabel(m analytics.ProductMetric) string {
	if m == analytics.MetricQuantity {
		return "Quantité vendue"
	}
	return "Ventes par produit"
}

// renderTable rebuilds the rows of id and re-applies the table's search so
// hidden rows stay hidden after sorting or limiting.
func (c *Controller) renderTable(id ElementID) {
	if !c.page.Has(id) {
		c.logger.Error("table not found", slog.String("table", string(id)), slog.Any("error", shared.ErrMissingElement))
		return
	}
	var rows []analytics.TableRow
	switch id {
	case StoresTable:
		rows = analytics.FilterTableRows(analytics.StoreRows(c.set, c.opts.StoreSort, c.format), c.opts.StoreSearch)
	case ProductsTable:
		rows = analytics.FilterTableRows(analytics.ProductRows(c.set, c.opts.ProductLimit, c.format), c.opts.ProductSearch)
	}
	if len(rows) == 0 {
		c.logger.Warn("no data for table", slog.String("table", string(id)), slog.Any("error", shared.ErrEmptyDataset))
	}
	c.tables[id] = rows
}

// Chart returns the widget for a chart canvas.
func (c *Controller) Chart(id ElementID) ui.ChartWidget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chartWidget(id)
}

func (c *Controller) chartWidget(id ElementID) ui.ChartWidget {
	handle, ok := c.charts[id]
	if !ok {
		return ui.ChartWidget{ID: string(id)}
	}
	state := handle.State()
	return ui.ChartWidget{
		ID:       string(id),
		Title:    state.Title,
		Kind:     state.Kind,
		Revision: state.Revision,
		SVG:      c.page.Content(id),
		Present:  c.page.Has(id),
	}
}

// Table returns the widget for a table.
func (c *Controller) Table(id ElementID) ui.TableWidget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tableWidget(id)
}

func (c *Controller) tableWidget(id ElementID) ui.TableWidget {
	w := ui.TableWidget{ID: string(id), Present: c.page.Has(id), Rows: append([]analytics.TableRow(nil), c.tables[id]...)}
	switch id {
	case StoresTable:
		w.Title, w.Columns = TitleStoresTable, analytics.StoreColumns
	case ProductsTable:
		w.Title, w.Columns = TitleProductsTable, analytics.ProductColumns
	}
	return w
}

// Handle exposes the chart handle of id for inspection.
func (c *Controller) Handle(id ElementID) (*ChartHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.charts[id]
	return h, ok
}

// Metrics computes the headline cards.
func (c *Controller) Metrics() []ui.MetricCard {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics()
}

func (c *Controller) metrics() []ui.MetricCard {
	if c.set == nil {
		return nil
	}
	cards := []ui.MetricCard{
		{ID: "totalSales", Label: "Ventes totales", Value: c.format.Euro(c.set.TotalSales)},
		{ID: "storeCount", Label: "Magasins", Value: strconv.Itoa(len(c.set.SalesByStore))},
		{ID: "productCount", Label: "Produits", Value: strconv.Itoa(len(c.set.SalesByProduct))},
	}
	best := "N/A"
	if len(c.set.BestSellingProducts) > 0 {
		best = c.set.BestSellingProducts[0].ProductName
	}
	return append(cards, ui.MetricCard{ID: "bestSeller", Label: "Produit le plus vendu", Value: best})
}

// ViewModel assembles everything the dashboard template needs.
func (c *Controller) ViewModel() ui.DashboardViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	vm := ui.DashboardViewModel{
		Metrics:  c.metrics(),
		Controls: c.controls(),
	}
	for _, id := range ChartIDs {
		vm.Charts = append(vm.Charts, c.chartWidget(id))
	}
	for _, id := range TableIDs {
		vm.Tables = append(vm.Tables, c.tableWidget(id))
	}
	return vm
}

func (c *Controller) controls() map[string]ui.Control {
	years := []ui.Option{{Value: analytics.AllYears, Label: "Toutes les années"}}
	for _, y := range c.set.Years() {
		years = append(years, ui.Option{Value: y, Label: y})
	}
	build := func(id ElementID, label, value string, options []ui.Option) ui.Control {
		for i := range options {
			options[i].Selected = options[i].Value == value
		}
		return ui.Control{ID: string(id), Label: label, Value: value, Options: options}
	}
	return map[string]ui.Control{
		string(SalesTrendPeriod): build(SalesTrendPeriod, "Période", string(c.opts.Period), []ui.Option{
			{Value: string(analytics.Monthly), Label: "Mensuel"},
			{Value: string(analytics.Weekly), Label: "Hebdomadaire"},
			{Value: string(analytics.Yearly), Label: "Annuel"},
		}),
		string(StoresChartType): build(StoresChartType, "Type de graphique", string(c.opts.StoreChartKind), []ui.Option{
			{Value: string(ui.KindBar), Label: "Barres"},
			{Value: string(ui.KindLine), Label: "Ligne"},
			{Value: string(ui.KindPie), Label: "Camembert"},
			{Value: string(ui.KindDoughnut), Label: "Anneau"},
		}),
		string(ProductMetric): build(ProductMetric, "Mesure", string(c.opts.ProductMetric), []ui.Option{
			{Value: string(analytics.MetricSales), Label: "Ventes"},
			{Value: string(analytics.MetricQuantity), Label: "Quantité"},
		}),
		string(ComparisonYear): build(ComparisonYear, "Année", c.opts.ComparisonYear, years),
		string(ProductLimit): build(ProductLimit, "Afficher", c.opts.ProductLimit, []ui.Option{
			{Value: "5", Label: "Top 5"},
			{Value: "10", Label: "Top 10"},
			{Value: "20", Label: "Top 20"},
			{Value: analytics.ProductLimitAll, Label: "Tous"},
		}),
		string(StoreSort): build(StoreSort, "Trier par", string(c.opts.StoreSort), []ui.Option{
			{Value: string(analytics.SortSalesDesc), Label: "Ventes (décroissant)"},
			{Value: string(analytics.SortSalesAsc), Label: "Ventes (croissant)"},
			{Value: string(analytics.SortNameAsc), Label: "Nom (A-Z)"},
			{Value: string(analytics.SortNameDesc), Label: "Nom (Z-A)"},
		}),
		string(StoreSearch):   {ID: string(StoreSearch), Label: "Rechercher un magasin", Value: c.opts.StoreSearch},
		string(ProductSearch): {ID: string(ProductSearch), Label: "Rechercher un produit", Value: c.opts.ProductSearch},
	}
}
