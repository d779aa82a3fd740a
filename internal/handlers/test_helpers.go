package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/showcase/internal/models"
	"github.com/BradenHooton/showcase/internal/services"
	pkghttp "github.com/BradenHooton/showcase/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "1.2.3.4:5555"
	return req
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc   func(ctx context.Context, req services.LoginRequest) (*services.LoginResult, error)
	LogoutFunc  func(ctx context.Context, clientID, sessionID, userAgent string)
	LoginCalls  []services.LoginRequest
	LogoutCalls int
}

func (m *MockAuthService) Login(ctx context.Context, req services.LoginRequest) (*services.LoginResult, error) {
	m.LoginCalls = append(m.LoginCalls, req)
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	return &services.LoginResult{
		Session:     &models.Session{Version: models.SessionVersion, ID: "sid", IsAuthenticated: true, LoginTime: 1},
		CookieValue: "sealed",
	}, nil
}

func (m *MockAuthService) Logout(ctx context.Context, clientID, sessionID, userAgent string) {
	m.LogoutCalls++
	if m.LogoutFunc != nil {
		m.LogoutFunc(ctx, clientID, sessionID, userAgent)
	}
}

// MockSessionManager implements SessionManagerInterface for testing
type MockSessionManager struct {
	Authenticated bool
	ID            string
	CookieValues  []string
	Destroyed     int
}

func (m *MockSessionManager) SetCookie(w http.ResponseWriter, value string) {
	m.CookieValues = append(m.CookieValues, value)
	http.SetCookie(w, &http.Cookie{Name: "auth-session", Value: value, Path: "/", HttpOnly: true})
}

func (m *MockSessionManager) Destroy(w http.ResponseWriter) {
	m.Destroyed++
	http.SetCookie(w, &http.Cookie{Name: "auth-session", Value: "", Path: "/", MaxAge: -1})
}

func (m *MockSessionManager) IsAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	return m.Authenticated
}

func (m *MockSessionManager) SessionID(r *http.Request) string {
	return m.ID
}

// MockRateLimitInfo implements RateLimitInfoInterface for testing
type MockRateLimitInfo struct {
	StatusFunc  func(ctx context.Context, clientID string) (models.RateLimitStatus, error)
	StatsFunc   func(ctx context.Context) (models.RateLimitStats, error)
	WarningFunc func(attempts int) string
}

func (m *MockRateLimitInfo) Status(ctx context.Context, clientID string) (models.RateLimitStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, clientID)
	}
	return models.RateLimitStatus{ClientID: clientID}, nil
}

func (m *MockRateLimitInfo) Stats(ctx context.Context) (models.RateLimitStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return models.RateLimitStats{Clients: []models.ClientAttemptSummary{}}, nil
}

func (m *MockRateLimitInfo) AttemptWarning(attempts int) string {
	if m.WarningFunc != nil {
		return m.WarningFunc(attempts)
	}
	return ""
}
