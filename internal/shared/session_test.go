package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "salesdash_session", "secret", time.Hour, false), mr
}

func TestSessionRoundTripKeepsFlash(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.True(t, sess.IsNew())
	sess.Set("export_filename", "rapport.pdf")
	sess.AddFlash(FlashMessage{Kind: FlashError, Message: "échec"})

	rr := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, rr, sess))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	loaded, err := manager.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, sess.ID, loaded.ID)
	require.False(t, loaded.IsNew())
	require.Equal(t, "rapport.pdf", loaded.Get("export_filename"))

	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	require.Equal(t, "échec", flash.Message)
	require.Nil(t, loaded.PopFlash())
}

func TestSessionDestroyExpiresCookie(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, manager.Commit(ctx, httptest.NewRecorder(), sess))
	require.Len(t, mr.Keys(), 1)

	manager.Destroy(sess)
	rr := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, rr, sess))
	require.Empty(t, mr.Keys())
	require.Equal(t, -1, rr.Result().Cookies()[0].MaxAge)
}

func TestSessionRejectsForeignCookie(t *testing.T) {
	manager, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: "../../etc"})
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, "../../etc", sess.ID)
}

func TestCSRFTokenBoundToSession(t *testing.T) {
	csrf := NewCSRFManager("csrf-secret")
	a := newSession("11111111-1111-1111-1111-111111111111")
	b := newSession("22222222-2222-2222-2222-222222222222")

	token := csrf.Token(a)
	require.NotEmpty(t, token)
	require.NoError(t, csrf.Verify(a, token))
	require.ErrorIs(t, csrf.Verify(b, token), ErrCSRFTokenMismatch)
	require.ErrorIs(t, csrf.Verify(a, ""), ErrCSRFTokenMissing)
}
