// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/salesdash/salesdash/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrMissingElement):
		Problem(w, http.StatusNotFound, "Introuvable", err.Error())
	case errors.Is(err, shared.ErrExportBusy):
		Problem(w, http.StatusConflict, "Export en cours", err.Error())
	case errors.Is(err, shared.ErrConversionUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Service de conversion indisponible", err.Error())
	case errors.Is(err, shared.ErrConversionFailure):
		Problem(w, http.StatusBadGateway, "Échec de la génération du PDF", err.Error())
	case errors.Is(err, shared.ErrEmptyDataset):
		Problem(w, http.StatusServiceUnavailable, "Données indisponibles", err.Error())
	case errors.Is(err, shared.ErrCSRFTokenMissing), errors.Is(err, shared.ErrCSRFTokenMismatch):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
