package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BradenHooton/showcase/internal/auth"
	"github.com/BradenHooton/showcase/internal/models"
	"github.com/BradenHooton/showcase/internal/repositories"
	"github.com/BradenHooton/showcase/internal/services"
	pkglogger "github.com/BradenHooton/showcase/pkg/logger"
)

const correctPassword = "open-sesame"

type authFixture struct {
	clock    *services.MockClock
	limiter  *services.RateLimitService
	store    *repositories.MemoryAttemptStore
	sessions *services.MockSessionIssuer
	notifier *services.MockLockoutNotifier
	service  *services.AuthService
}

func newAuthFixture(t *testing.T, password string) *authFixture {
	t.Helper()

	clock := services.NewMockClock(testStart)
	limiter, store := newTestRateLimiter(clock)
	sessions := &services.MockSessionIssuer{}
	notifier := services.NewMockLockoutNotifier()
	logger := discardLogger()

	service := services.NewAuthService(limiter, sessions, services.AuthServiceConfig{
		Password: password,
		Notifier: notifier,
	}, logger, pkglogger.NewAuditLogger(logger))

	return &authFixture{
		clock:    clock,
		limiter:  limiter,
		store:    store,
		sessions: sessions,
		notifier: notifier,
		service:  service,
	}
}

func (f *authFixture) login(password string) (*services.LoginResult, error) {
	return f.service.Login(context.Background(), services.LoginRequest{
		ClientID:  "1.2.3.4",
		Password:  password,
		UserAgent: "test-agent",
	})
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(t, correctPassword)

	result, err := f.login(correctPassword)
	require.NoError(t, err)
	assert.Equal(t, "sealed-value", result.CookieValue)
	assert.True(t, result.Session.IsAuthenticated)
	assert.Equal(t, 1, f.sessions.Calls)
}

func TestAuthService_Login_BcryptPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(correctPassword), bcrypt.MinCost)
	require.NoError(t, err)
	f := newAuthFixture(t, string(hash))

	_, err = f.login(correctPassword)
	require.NoError(t, err)

	_, err = f.login("wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredential)
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	f := newAuthFixture(t, correctPassword)

	_, err := f.login("x")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidCredential)

	var credErr *models.CredentialError
	require.True(t, errors.As(err, &credErr))
	assert.Equal(t, 1, credErr.Attempts)
	assert.Equal(t, time.Duration(0), credErr.Cooldown)
	assert.Equal(t, 0, f.sessions.Calls)
}

func TestAuthService_Login_CooldownAfterFourthFailure(t *testing.T) {
	f := newAuthFixture(t, correctPassword)

	for i := 1; i <= 3; i++ {
		_, err := f.login("x")
		assert.ErrorIs(t, err, models.ErrInvalidCredential)
	}

	_, err := f.login("x")
	var credErr *models.CredentialError
	require.True(t, errors.As(err, &credErr))
	assert.Equal(t, 4, credErr.Attempts)
	assert.Equal(t, 5*time.Minute, credErr.Cooldown)
}

func TestAuthService_Login_RateLimitPrecedesPasswordCheck(t *testing.T) {
	f := newAuthFixture(t, correctPassword)

	for i := 0; i < 4; i++ {
		_, _ = f.login("x")
	}
	before, err := f.store.Get(context.Background(), "1.2.3.4")
	require.NoError(t, err)

	_, err = f.login(correctPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRateLimited)

	var rlErr *models.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, 4, rlErr.Attempts)
	assert.Equal(t, 5*time.Minute, rlErr.RemainingTime)

	assert.Equal(t, 0, f.sessions.Calls, "no session during cooldown")
	after, err := f.store.Get(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, before, after, "a throttled attempt changes nothing")

	// A wrong password during cooldown is not counted either
	_, err = f.login("x")
	assert.ErrorIs(t, err, models.ErrRateLimited)
	after, err = f.store.Get(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 4, after.Attempts)
}

// Client 1.2.3.4 fails four times, is locked out even with the right
// password, then succeeds once the cooldown has passed.
func TestAuthService_EndToEndLockoutScenario(t *testing.T) {
	f := newAuthFixture(t, correctPassword)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := f.login("x")
		assert.ErrorIs(t, err, models.ErrInvalidCredential)
	}

	check, err := f.limiter.IsRateLimited(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, check.Limited)
	assert.Equal(t, 4, check.Attempts)
	assert.Equal(t, int64(300000), check.RemainingTime.Milliseconds())

	_, err = f.login(correctPassword)
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.Equal(t, 0, f.sessions.Calls)

	check, err = f.limiter.IsRateLimited(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 4, check.Attempts)

	f.clock.Advance(5 * time.Minute)

	result, err := f.login(correctPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, result.CookieValue)

	check, err = f.limiter.IsRateLimited(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, check.Limited)
	assert.Equal(t, 0, check.Attempts)
}

func TestAuthService_Login_MissingConfiguration(t *testing.T) {
	f := newAuthFixture(t, "")

	_, err := f.login("")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfigurationMissing)
	assert.ErrorIs(t, err, models.ErrInvalidCredential, "answered like any bad password")

	_, err = f.login("anything")
	assert.ErrorIs(t, err, models.ErrConfigurationMissing)

	check, err := f.limiter.IsRateLimited(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 0, check.Attempts, "not the client's fault, nothing recorded")
	assert.Equal(t, 0, f.sessions.Calls)
}

func TestAuthService_Login_SessionIssueFailure(t *testing.T) {
	f := newAuthFixture(t, correctPassword)
	f.sessions.IssueFunc = func() (*models.Session, string, error) {
		return nil, "", errors.New("entropy exhausted")
	}

	_, _ = f.login("x")

	_, err := f.login(correctPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInternalServer)
	assert.NotContains(t, err.Error(), correctPassword)

	check, err := f.limiter.IsRateLimited(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 1, check.Attempts, "history is kept when no session was issued")
}

func TestAuthService_Login_FailsOpenOnStoreError(t *testing.T) {
	storeErr := errors.New("database unavailable")
	store := &services.MockAttemptStore{
		GetFunc: func(ctx context.Context, clientID string) (models.AttemptRecord, error) {
			return models.AttemptRecord{}, storeErr
		},
		UpdateFunc: func(ctx context.Context, clientID string, fn func(*models.AttemptRecord)) (models.AttemptRecord, error) {
			return models.AttemptRecord{}, storeErr
		},
		DeleteFunc: func(ctx context.Context, clientID string) error {
			return storeErr
		},
	}
	logger := discardLogger()
	limiter := services.NewRateLimitService(store, services.RateLimitConfig{}, logger)
	service := services.NewAuthService(limiter, &services.MockSessionIssuer{},
		services.AuthServiceConfig{Password: correctPassword}, logger, nil)

	_, err := service.Login(context.Background(), services.LoginRequest{ClientID: "c", Password: correctPassword})
	assert.NoError(t, err)

	_, err = service.Login(context.Background(), services.LoginRequest{ClientID: "c", Password: "x"})
	assert.ErrorIs(t, err, models.ErrInvalidCredential)
	assert.NotErrorIs(t, err, storeErr)
}

func TestAuthService_Login_NotifiesOnFinalTier(t *testing.T) {
	f := newAuthFixture(t, correctPassword)

	// Attempts 1..10, with cooldowns skipped so every attempt is counted
	for i := 0; i < 10; i++ {
		_, err := f.login("x")
		require.ErrorIs(t, err, models.ErrInvalidCredential)
		f.clock.Advance(2*time.Hour + time.Second)
	}
	assert.Equal(t, 0, f.notifier.Count())

	_, err := f.login("x")
	var credErr *models.CredentialError
	require.True(t, errors.As(err, &credErr))
	assert.Equal(t, 11, credErr.Attempts)
	assert.Equal(t, 24*time.Hour, credErr.Cooldown)

	select {
	case <-f.notifier.Sent():
	case <-time.After(2 * time.Second):
		t.Fatal("lockout alert was not sent")
	}
	assert.Equal(t, 1, f.notifier.Count())
	assert.Equal(t, "1.2.3.4", f.notifier.Alerts[0].ClientID)
	assert.Equal(t, 11, f.notifier.Alerts[0].Attempts)
}

func TestAuthService_Login_AppliesTimingDelayOnFailure(t *testing.T) {
	clock := services.NewMockClock(testStart)
	limiter, _ := newTestRateLimiter(clock)
	logger := discardLogger()
	service := services.NewAuthService(limiter, &services.MockSessionIssuer{}, services.AuthServiceConfig{
		Password: correctPassword,
		Timing:   auth.NewTimingDelay(auth.TimingConfig{BaseDelayMs: 40}),
	}, logger, nil)

	start := time.Now()
	_, err := service.Login(context.Background(), services.LoginRequest{ClientID: "c", Password: "x"})
	require.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	start = time.Now()
	_, err = service.Login(context.Background(), services.LoginRequest{ClientID: "c", Password: correctPassword})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t, correctPassword)

	assert.NotPanics(t, func() {
		f.service.Logout(context.Background(), "1.2.3.4", "", "agent")
		f.service.Logout(context.Background(), "1.2.3.4", "sid", "agent")
	})
}
