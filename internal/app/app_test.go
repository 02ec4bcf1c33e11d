package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/salesdash/salesdash/internal/dataset"
	"github.com/salesdash/salesdash/internal/shared"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("DATASET_SOURCE", "file")
	t.Setenv("DATASET_PATH", "/srv/data.json")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 12*time.Hour, cfg.SessionTTL)
	require.Equal(t, "/srv/data.json", cfg.DatasetPath)
	require.False(t, cfg.NeedsPostgres())

	t.Setenv("DATASET_SOURCE", "mysql")
	_, err = LoadConfig()
	require.ErrorContains(t, err, "unknown dataset source")

	t.Setenv("DATASET_SOURCE", "embedded")
	t.Setenv("EXPORT_IMAGE_QUALITY", "1.5")
	_, err = LoadConfig()
	require.ErrorContains(t, err, "image quality")
}

func TestDatasetSource(t *testing.T) {
	source, name, err := DatasetSource(&Config{DatasetSource: DatasetEmbedded}, nil)
	require.NoError(t, err)
	require.IsType(t, dataset.EmbeddedSource{}, source)
	require.Equal(t, DatasetEmbedded, name)

	source, name, err = DatasetSource(&Config{DatasetSource: DatasetFile, DatasetPath: "data.json"}, nil)
	require.NoError(t, err)
	require.Equal(t, dataset.FileSource{Path: "data.json"}, source)
	require.Equal(t, "file:data.json", name)

	_, _, err = DatasetSource(&Config{DatasetSource: DatasetPostgres}, nil)
	require.Error(t, err)
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", AppEnv: "production"}, &buf)
	logger.Debug("hidden")
	logger.Info("visible", slog.Int("rows", 3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "salesdash", entry["service"])
	require.Equal(t, float64(3), entry["rows"])
}

type routerEnv struct {
	handler  http.Handler
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
}

func newRouterEnv(t *testing.T) routerEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "salesdash_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("secret")
	handler := NewRouter(RouterParams{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:         &Config{AppRequestTimeout: 5 * time.Second},
		SessionManager: sessions,
		CSRFManager:    csrf,
	})
	return routerEnv{handler: handler, sessions: sessions, csrf: csrf}
}

func TestRouterHealthAndRedirect(t *testing.T) {
	env := newRouterEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Result().Cookies())
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestRouterServesStaticWithCache(t *testing.T) {
	env := newRouterEnv(t)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/js/dashboard.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestCSRFMiddleware(t *testing.T) {
	env := newRouterEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	load := httptest.NewRequest(http.MethodGet, "/", nil)
	load.AddCookie(cookies[0])
	sess, err := env.sessions.Load(context.Background(), load)
	require.NoError(t, err)
	token := env.csrf.Token(sess)

	post := func(form url.Values, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/dashboard/controls", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			req.Header.Set(shared.CSRFHeader, header)
		}
		req.AddCookie(cookies[0])
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusForbidden, post(url.Values{"control": {"storeSort"}}, ""))
	require.Equal(t, http.StatusForbidden, post(url.Values{shared.CSRFFormField: {"forged"}}, ""))
	// No dashboard handler is mounted, so a valid token reaches the 404.
	require.Equal(t, http.StatusNotFound, post(url.Values{shared.CSRFFormField: {token}}, ""))
	require.Equal(t, http.StatusNotFound, post(url.Values{}, token))
}
