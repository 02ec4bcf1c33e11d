package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/salesdash/salesdash/internal/shared"
)

func TestRespondErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("table: %w", shared.ErrNotFound), http.StatusNotFound},
		{shared.ErrExportBusy, http.StatusConflict},
		{fmt.Errorf("%w: dial tcp", shared.ErrConversionUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: status 500", shared.ErrConversionFailure), http.StatusBadGateway},
		{shared.ErrCSRFTokenMismatch, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body ProblemDetail
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode problem: %v", err)
		}
		if body.Status != tc.code {
			t.Fatalf("problem status %d, want %d", body.Status, tc.code)
		}
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("password=hunter2"))
	var body ProblemDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if body.Detail != "" {
		t.Fatalf("expected empty detail, got %q", body.Detail)
	}
}
