package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/salesdash/salesdash/internal/shared"
)

// MountRoutes registers the dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/dashboard", h.handleDashboard)
	r.Get("/dashboard/view", h.handleView)
	r.Post("/dashboard/controls", h.handleControl)
	r.Get("/dashboard/snapshot.json", h.handleSnapshot)
	r.Get("/dashboard/export", h.handleExportForm)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/dashboard/export", h.handleExport)
		gr.Get("/dashboard/tables/{table}.csv", h.handleTableCSV)
		gr.Get("/dashboard/report.json", h.handleReportJSON)
		gr.Get("/dashboard/report/{section}.csv", h.handleReportCSV)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if id := shared.SessionID(r.Context()); id != "" {
		return "session:" + id, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
