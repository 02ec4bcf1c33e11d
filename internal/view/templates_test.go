package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdash/salesdash/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderErrorPageWithFlash(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.Render(rr, "pages/error.html", TemplateData{
		Title: "Erreur",
		Flash: &shared.FlashMessage{Kind: shared.FlashError, Message: "Conversion impossible"},
		Data:  "Impossible de charger les données de ventes.",
	})
	require.NoError(t, err)
	body := rr.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, body, `class="flash flash-error"`)
	assert.Contains(t, body, "Conversion impossible")
	assert.Contains(t, body, "Impossible de charger les données de ventes.")
	assert.Contains(t, body, `/static/css/dashboard.css`)
}

func TestRenderNilEngine(t *testing.T) {
	var engine *Engine
	require.Error(t, engine.Render(httptest.NewRecorder(), "pages/error.html", TemplateData{}))
}
