package report

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// A4 is the default page used by the test page.
var A4 = PageOptions{PaperWidth: 210, PaperHeight: 297, MarginTop: 15, MarginRight: 15, MarginBottom: 15, MarginLeft: 15}

// Handler manages report endpoints.
type Handler struct {
	client *Client
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a report handler.
func NewHandler(client *Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{client: client, logger: logger, now: time.Now}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Post("/sample", h.sample)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// sample prints a one-page document to check the converter end to end.
func (h *Handler) sample(w http.ResponseWriter, r *http.Request) {
	html := "<html><head><meta charset=\"utf-8\"><title>Tableau de Bord des Ventes</title></head><body>" +
		"<h1>Tableau de Bord des Ventes</h1><p>Page de test générée le " +
		template.HTMLEscapeString(h.now().Format("02/01/2006 15:04:05")) + "</p></body></html>"
	pdf, err := h.client.Convert(r.Context(), []byte(html), nil, A4)
	if err != nil {
		h.logger.Error("render sample pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=sample.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
