package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/showcase/internal/auth"
	"github.com/BradenHooton/showcase/internal/models"
)

const testSessionSecret = "session-secret-used-only-in-tests-0123456789"

// testClock is a controllable clock for expiry tests
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSessionManager(t *testing.T, clock *testClock, timeout time.Duration) *auth.SessionManager {
	t.Helper()

	sm, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:  testSessionSecret,
		Timeout: timeout,
		Cookie:  auth.CookieConfig{Name: "auth-session", SameSite: "strict"},
		Now:     clock.Now,
	}, nil, nil)
	require.NoError(t, err)
	return sm
}

// sessionCookie extracts the named cookie from a recorded response
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func requestWithCookie(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	return req
}

func TestSealer_RoundTrip(t *testing.T) {
	sealer, err := auth.NewSealer(testSessionSecret, "auth-session")
	require.NoError(t, err)

	in := &models.Session{
		Version:         models.SessionVersion,
		ID:              "abc",
		IsAuthenticated: true,
		LoginTime:       1700000000000,
	}

	value, err := sealer.Seal(in)
	require.NoError(t, err)
	assert.NotContains(t, value, "isAuthenticated")
	assert.NotContains(t, value, "=")

	out, err := sealer.Open(value)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSealer_FreshNoncePerSeal(t *testing.T) {
	sealer, err := auth.NewSealer(testSessionSecret, "auth-session")
	require.NoError(t, err)

	session := &models.Session{Version: models.SessionVersion, IsAuthenticated: true, LoginTime: 1}

	a, err := sealer.Seal(session)
	require.NoError(t, err)
	b, err := sealer.Seal(session)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSealer_RejectsForeignKeyAndCookieName(t *testing.T) {
	sealer, err := auth.NewSealer(testSessionSecret, "auth-session")
	require.NoError(t, err)

	value, err := sealer.Seal(&models.Session{Version: models.SessionVersion, IsAuthenticated: true, LoginTime: 1})
	require.NoError(t, err)

	otherKey, err := auth.NewSealer(testSessionSecret+"-rotated", "auth-session")
	require.NoError(t, err)
	_, err = otherKey.Open(value)
	assert.ErrorIs(t, err, models.ErrSessionInvalid)

	otherName, err := auth.NewSealer(testSessionSecret, "other-cookie")
	require.NoError(t, err)
	_, err = otherName.Open(value)
	assert.ErrorIs(t, err, models.ErrSessionInvalid)
}

func TestSealer_RejectsGarbage(t *testing.T) {
	sealer, err := auth.NewSealer(testSessionSecret, "auth-session")
	require.NoError(t, err)

	for _, value := range []string{"", "not base64 !!", "AAAA", strings.Repeat("A", 200)} {
		_, err := sealer.Open(value)
		assert.ErrorIs(t, err, models.ErrSessionInvalid, "value %q", value)
	}
}

func TestNewSealer_EmptySecret(t *testing.T) {
	_, err := auth.NewSealer("", "auth-session")
	assert.Error(t, err)
}

func TestSessionManager_CreateSetsCookieAttributes(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	sm := newTestSessionManager(t, clock, 24*time.Hour)

	rec := httptest.NewRecorder()
	session, err := sm.Create(rec)
	require.NoError(t, err)

	assert.True(t, session.IsAuthenticated)
	assert.Equal(t, clock.now.UnixMilli(), session.LoginTime)
	assert.NotEmpty(t, session.ID)

	cookie := sessionCookie(t, rec, "auth-session")
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 86400, cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
}

func TestSessionManager_ValidityWindow(t *testing.T) {
	const timeout = time.Hour
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	sm := newTestSessionManager(t, clock, timeout)

	rec := httptest.NewRecorder()
	_, err := sm.Create(rec)
	require.NoError(t, err)
	cookie := sessionCookie(t, rec, "auth-session")

	assert.True(t, sm.IsAuthenticatedRequest(requestWithCookie(cookie)))

	clock.Advance(timeout - time.Millisecond)
	assert.True(t, sm.IsAuthenticatedRequest(requestWithCookie(cookie)))
	assert.True(t, sm.IsAuthenticated(httptest.NewRecorder(), requestWithCookie(cookie)))

	clock.Advance(time.Millisecond)
	assert.False(t, sm.IsAuthenticatedRequest(requestWithCookie(cookie)), "invalid at exactly t0+T")
	assert.False(t, sm.IsAuthenticated(httptest.NewRecorder(), requestWithCookie(cookie)))
}

func TestSessionManager_FullCheckDestroysExpiredSession(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	sm := newTestSessionManager(t, clock, time.Minute)

	rec := httptest.NewRecorder()
	_, err := sm.Create(rec)
	require.NoError(t, err)
	cookie := sessionCookie(t, rec, "auth-session")

	clock.Advance(2 * time.Minute)

	checkRec := httptest.NewRecorder()
	assert.False(t, sm.IsAuthenticated(checkRec, requestWithCookie(cookie)))

	cleared := sessionCookie(t, checkRec, "auth-session")
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)

	// The browser now holds the cleared cookie
	assert.False(t, sm.IsAuthenticated(httptest.NewRecorder(), requestWithCookie(cleared)))
}

func TestSessionManager_EdgeCheckIsReadOnly(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	sm := newTestSessionManager(t, clock, time.Minute)

	rec := httptest.NewRecorder()
	_, err := sm.Create(rec)
	require.NoError(t, err)
	cookie := sessionCookie(t, rec, "auth-session")

	clock.Advance(time.Hour)

	req := requestWithCookie(cookie)
	assert.False(t, sm.IsAuthenticatedRequest(req))
	// The cookie on the request is untouched
	got, err := req.Cookie("auth-session")
	require.NoError(t, err)
	assert.Equal(t, cookie.Value, got.Value)
}

func TestSessionManager_TamperedCookieFailsClosed(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	sm := newTestSessionManager(t, clock, time.Hour)

	rec := httptest.NewRecorder()
	_, err := sm.Create(rec)
	require.NoError(t, err)
	cookie := sessionCookie(t, rec, "auth-session")

	alphabet := "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := 0; i < len(cookie.Value); i++ {
		b := []byte(cookie.Value)
		// Pick a different character from the base64url alphabet
		idx := strings.IndexByte(alphabet, b[i])
		b[i] = alphabet[(idx+1)%len(alphabet)]

		tampered := &http.Cookie{Name: cookie.Name, Value: string(b)}
		assert.NotPanics(t, func() {
			assert.False(t, sm.IsAuthenticatedRequest(requestWithCookie(tampered)), "byte %d", i)
			assert.False(t, sm.IsAuthenticated(httptest.NewRecorder(), requestWithCookie(tampered)), "byte %d", i)
		})
	}
}

func TestSessionManager_MissingCookie(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	sm := newTestSessionManager(t, clock, time.Hour)

	req := requestWithCookie(nil)
	assert.False(t, sm.IsAuthenticatedRequest(req))

	rec := httptest.NewRecorder()
	assert.False(t, sm.IsAuthenticated(rec, req))
	assert.Empty(t, rec.Result().Cookies(), "nothing to heal without a cookie")
	assert.Empty(t, sm.SessionID(req))
}

func TestSessionManager_DestroyIsIdempotent(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	sm := newTestSessionManager(t, clock, time.Hour)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		sm.Destroy(rec)

		cleared := sessionCookie(t, rec, "auth-session")
		assert.Equal(t, -1, cleared.MaxAge)
		assert.False(t, sm.IsAuthenticatedRequest(requestWithCookie(cleared)))
	}
}

func TestSessionManager_SessionID(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	sm := newTestSessionManager(t, clock, time.Hour)

	rec := httptest.NewRecorder()
	session, err := sm.Create(rec)
	require.NoError(t, err)

	req := requestWithCookie(sessionCookie(t, rec, "auth-session"))
	assert.Equal(t, session.ID, sm.SessionID(req))
}

func TestNewSessionManager_Validation(t *testing.T) {
	_, err := auth.NewSessionManager(auth.SessionConfig{Secret: testSessionSecret}, nil, nil)
	assert.Error(t, err, "zero timeout")

	_, err = auth.NewSessionManager(auth.SessionConfig{Timeout: time.Hour}, nil, nil)
	assert.Error(t, err, "empty secret")

	sm, err := auth.NewSessionManager(auth.SessionConfig{Secret: testSessionSecret, Timeout: time.Hour}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultSessionCookieName, sm.CookieName())
	assert.Equal(t, time.Hour, sm.Timeout())
}
