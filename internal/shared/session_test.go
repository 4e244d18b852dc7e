package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "printshop_session", "test-secret", time.Hour, false)
}

func TestSessionCookieRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.Set("gate:invoicing", "granted")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Contains(t, cookies[0].Value, ".")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	require.Equal(t, sess.ID, loaded.ID)
	require.Equal(t, "granted", loaded.Get("gate:invoicing"))
}

func TestTamperedSessionCookieIsDiscarded(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("gate:invoicing", "granted")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	signed := rec.Result().Cookies()[0].Value

	// Swap the session ID but keep the old signature.
	_, sig, found := strings.Cut(signed, ".")
	require.True(t, found)
	forged := "someone-elses-session." + sig

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "printshop_session", Value: forged})
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.NotEqual(t, sess.ID, loaded.ID)
	require.Empty(t, loaded.Get("gate:invoicing"))
}
