package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salesdash/salesdash/internal/analytics"
	"github.com/salesdash/salesdash/internal/analytics/export"
	"github.com/salesdash/salesdash/internal/analytics/ui"
	"github.com/salesdash/salesdash/internal/dashboard"
	"github.com/salesdash/salesdash/internal/dataset"
	"github.com/salesdash/salesdash/internal/platform/httpx"
	"github.com/salesdash/salesdash/internal/shared"
	"github.com/salesdash/salesdash/internal/snapshot"
	"github.com/salesdash/salesdash/internal/view"
)

const requestTimeout = 5 * time.Second

// fetchHeader marks control updates sent by the dashboard script; those get
// the redrawn widget back instead of a redirect.
const fetchHeader = "X-Requested-With"

var errSessionMissing = errors.New("analytics: session missing")

// Handler serves the sales dashboard, its controls and its exports.
type Handler struct {
	logger    *slog.Logger
	data      dataset.Source
	templates *view.Engine
	renderer  ui.ChartRenderer
	csrf      *shared.CSRFManager
	export    snapshot.Config
	sessions  *registry
	csvPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the dashboard HTTP handler. exportCfg is used to
// build one exporter per dashboard session.
func NewHandler(logger *slog.Logger, data dataset.Source, templates *view.Engine, renderer ui.ChartRenderer, csrf *shared.CSRFManager, exportCfg snapshot.Config, sessionTTL time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if exportCfg.Logger == nil {
		exportCfg.Logger = logger
	}
	h := &Handler{
		logger:    logger,
		data:      data,
		templates: templates,
		renderer:  renderer,
		csrf:      csrf,
		export:    exportCfg,
		sessions:  newRegistry(sessionTTL),
		now:       time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type dashboardPage struct {
	View    ui.DashboardViewModel
	Options dashboard.ViewOptions
	Years   []string
}

type exportForm struct {
	Settings     snapshot.Settings
	Orientations []ui.Option
	PageSizes    []ui.Option
	Busy         bool
}

// handleDashboard loads the dataset and starts a fresh dashboard for the
// session, discarding any previous control state.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.handleServerError(w, "load session", errSessionMissing)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	set, err := h.data.Load(ctx)
	if err != nil {
		h.logError("load dataset", err)
		h.renderError(w, r, http.StatusServiceUnavailable, "Impossible de charger les données de ventes.")
		return
	}
	ds, err := h.reset(sess.ID, set)
	if err != nil {
		h.handleServerError(w, "init dashboard", err)
		return
	}
	h.renderDashboard(w, r, ds)
}

// handleView re-renders the current dashboard without resetting it.
func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.session(r)
	if !ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderDashboard(w, r, ds)
}

func (h *Handler) reset(id string, set *dataset.SalesRecordSet) (*dashboardSession, error) {
	page := dashboard.NewPage(dashboard.DefaultLayout())
	controller := dashboard.NewController(set, page, h.renderer, h.logger.With(slog.String("session", id)))
	if err := controller.Init(); err != nil {
		return nil, err
	}
	ds := &dashboardSession{controller: controller}
	if prev, ok := h.sessions.get(id); ok {
		ds.exporter = prev.exporter
	} else {
		ds.exporter = snapshot.NewExporter(h.export)
	}
	h.sessions.put(id, ds)
	return ds, nil
}

func (h *Handler) session(r *http.Request) (*dashboardSession, bool) {
	id := shared.SessionID(r.Context())
	if id == "" {
		return nil, false
	}
	return h.sessions.get(id)
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, ds *dashboardSession) {
	page := dashboardPage{
		View:    ds.controller.ViewModel(),
		Options: ds.controller.Options(),
		Years:   ds.controller.Dataset().Years(),
	}
	if err := h.templates.Render(w, "pages/dashboard.html", h.templateData(r, "Tableau de Bord des Ventes", page)); err != nil {
		h.handleServerError(w, "render dashboard", err)
	}
}

// handleControl applies one control change and answers with the redrawn
// widget, or redirects back to the dashboard for plain form posts.
func (h *Handler) handleControl(w http.ResponseWriter, r *http.Request) {
	fetch := r.Header.Get(fetchHeader) != ""
	ds, ok := h.session(r)
	if !ok {
		if fetch {
			httpx.Problem(w, http.StatusConflict, "Session expirée", "reload /dashboard")
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	control := dashboard.ElementID(strings.TrimSpace(r.PostFormValue("control")))
	target, err := ds.controller.Apply(control, r.PostFormValue("value"))
	switch {
	case errors.Is(err, dashboard.ErrUnknownControl):
		httpx.Problem(w, http.StatusNotFound, "Contrôle inconnu", string(control))
		return
	case err != nil:
		h.logger.Warn("control rejected", slog.String("control", string(control)), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Valeur invalide", err.Error())
		return
	}

	if !fetch {
		http.Redirect(w, r, "/dashboard/view", http.StatusSeeOther)
		return
	}
	h.renderWidget(w, r, ds, target)
}

func (h *Handler) renderWidget(w http.ResponseWriter, r *http.Request, ds *dashboardSession, id dashboard.ElementID) {
	var err error
	if slices.Contains(dashboard.TableIDs, id) {
		err = h.templates.Render(w, "partials/table.html", view.TemplateData{Data: ds.controller.Table(id)})
	} else {
		err = h.templates.Render(w, "partials/chart.html", view.TemplateData{Data: ds.controller.Chart(id)})
	}
	if err != nil {
		h.handleServerError(w, "render widget", err)
	}
}

// handleSnapshot returns what an export would capture right now.
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.session(r)
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Aucun tableau de bord", "open /dashboard first")
		return
	}
	httpx.JSON(w, http.StatusOK, ds.controller.Snapshot())
}

func (h *Handler) handleExportForm(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.session(r)
	if !ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	settings := snapshot.DefaultSettings()
	if year := ds.controller.Options().ComparisonYear; year != "" && year != analytics.AllYears {
		settings.DateRange = year
		settings.Filename = snapshot.FilenameFor(year)
	}
	state := ds.exporter.State()
	form := exportForm{
		Settings: settings,
		Orientations: []ui.Option{
			{Value: string(snapshot.Portrait), Label: "Portrait", Selected: settings.Orientation == snapshot.Portrait},
			{Value: string(snapshot.Landscape), Label: "Paysage", Selected: settings.Orientation == snapshot.Landscape},
		},
		PageSizes: []ui.Option{
			{Value: string(snapshot.A4), Label: "A4", Selected: settings.PageSize == snapshot.A4},
			{Value: string(snapshot.A3), Label: "A3"},
			{Value: string(snapshot.Letter), Label: "Letter"},
			{Value: string(snapshot.Legal), Label: "Legal"},
		},
		Busy: state == snapshot.StatePreparing || state == snapshot.StateConverting,
	}
	if err := h.templates.Render(w, "pages/export_form.html", h.templateData(r, "Exporter en PDF", form)); err != nil {
		h.handleServerError(w, "render export form", err)
	}
}

// handleExport converts the current dashboard to PDF. Failures are reported
// once through a session flash; a trigger during a running export is refused.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.session(r)
	if !ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	settings, err := parseSettings(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Paramètres invalides", err.Error())
		return
	}

	sess := shared.SessionFromContext(r.Context())
	notifier := snapshot.NotifierFunc(func(_ context.Context, message string) {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: message})
		}
	})
	res, err := ds.exporter.Export(r.Context(), ds.controller, settings, notifier)
	switch {
	case errors.Is(err, shared.ErrExportBusy):
		httpx.RespondError(w, err)
		return
	case err != nil:
		if wantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		http.Redirect(w, r, "/dashboard/export", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", res.Filename))
	w.Header().Set("X-Export-ID", res.ID)
	if _, err := w.Write(res.PDF); err != nil {
		h.logError("stream pdf", err)
	}
}

func parseSettings(r *http.Request) (snapshot.Settings, error) {
	if err := r.ParseForm(); err != nil {
		return snapshot.Settings{}, err
	}
	s := snapshot.DefaultSettings()
	if v := strings.TrimSpace(r.PostFormValue("filename")); v != "" {
		s.Filename = v
	}
	if v := r.PostFormValue("orientation"); v != "" {
		s.Orientation = snapshot.Orientation(v)
	}
	if v := r.PostFormValue("page_size"); v != "" {
		s.PageSize = snapshot.PageSize(v)
	}
	for i, field := range []string{"margin_top", "margin_right", "margin_bottom", "margin_left"} {
		raw := strings.TrimSpace(r.PostFormValue(field))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return snapshot.Settings{}, fmt.Errorf("%s: %w", field, err)
		}
		s.Margins[i] = v
	}
	// Unchecked boxes are absent from the form, so the section flags are
	// only read when the form says it carries them.
	if r.PostFormValue("sections") != "" {
		s.IncludeHeader = r.PostFormValue("include_header") != ""
		s.IncludeCharts = r.PostFormValue("include_charts") != ""
		s.IncludeTables = r.PostFormValue("include_tables") != ""
	}
	if v := strings.TrimSpace(r.PostFormValue("title")); v != "" {
		s.Title = v
	}
	s.DateRange = strings.TrimSpace(r.PostFormValue("date_range"))
	return s, nil
}

// handleTableCSV downloads the visible rows of a table.
func (h *Handler) handleTableCSV(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.session(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	id := dashboard.ElementID(chi.URLParam(r, "table"))
	if !slices.Contains(dashboard.TableIDs, id) {
		http.NotFound(w, r)
		return
	}
	table := ds.controller.Table(id)
	if !table.Present {
		http.NotFound(w, r)
		return
	}
	h.writeCSV(w, string(id)+".csv", func(buf *bytes.Buffer) error {
		return export.WriteTableCSV(buf, table.Columns, table.Rows)
	})
}

// handleReportJSON downloads the full sales report.
func (h *Handler) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	set, err := h.dataset(r)
	if err != nil {
		h.handleServerError(w, "load dataset", err)
		return
	}
	now := h.now()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"rapport_ventes_%s.json\"", now.Format("20060102_150405")))
	if err := export.WriteReportJSON(w, export.BuildReport(set, now)); err != nil {
		h.logError("stream report", err)
	}
}

// handleReportCSV downloads one section of the report.
func (h *Handler) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	set, err := h.dataset(r)
	if err != nil {
		h.handleServerError(w, "load dataset", err)
		return
	}
	name := chi.URLParam(r, "section")
	for _, section := range export.CSVSections(set) {
		if section.Name == name {
			h.writeCSV(w, name+".csv", func(buf *bytes.Buffer) error { return section.Write(buf) })
			return
		}
	}
	http.NotFound(w, r)
}

func (h *Handler) dataset(r *http.Request) (*dataset.SalesRecordSet, error) {
	if ds, ok := h.session(r); ok {
		return ds.controller.Dataset(), nil
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	return h.data.Load(ctx)
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, write func(*bytes.Buffer) error) {
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := write(buf); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) templateData(r *http.Request, title string, data any) view.TemplateData {
	sess := shared.SessionFromContext(r.Context())
	td := view.TemplateData{Title: title, CurrentPath: r.URL.Path, Data: data}
	if sess != nil {
		td.Flash = sess.PopFlash()
		if h.csrf != nil {
			td.CSRFToken = h.csrf.Token(sess)
		}
	}
	return td
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := h.templateData(r, "Erreur", message)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/error.html", data); err != nil {
		h.logError("render error page", err)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
