package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrMissingElement is returned when a dashboard widget or page element is absent.
	ErrMissingElement = errors.New("page element missing")
	// ErrEmptyDataset signals that the loaded sales data holds no records for a widget.
	ErrEmptyDataset = errors.New("dataset empty")
	// ErrConversionUnavailable occurs when the HTML-to-PDF converter cannot be reached.
	ErrConversionUnavailable = errors.New("pdf converter unavailable")
	// ErrConversionFailure wraps any failure raised while building or converting an export.
	ErrConversionFailure = errors.New("pdf conversion failed")
	// ErrExportBusy rejects an export trigger while another export of the same session runs.
	ErrExportBusy = errors.New("export already in progress")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
