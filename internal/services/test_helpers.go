package services

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"

	"github.com/BradenHooton/showcase/internal/models"
)

// MockClock is a controllable clock for limiter and session tests
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// MockAttemptStore implements AttemptStore with overridable behaviour
type MockAttemptStore struct {
	GetFunc    func(ctx context.Context, clientID string) (models.AttemptRecord, error)
	SetFunc    func(ctx context.Context, record models.AttemptRecord) error
	DeleteFunc func(ctx context.Context, clientID string) error
	UpdateFunc func(ctx context.Context, clientID string, fn func(*models.AttemptRecord)) (models.AttemptRecord, error)
	SweepFunc  func(ctx context.Context) (int64, error)
	ListFunc   func(ctx context.Context) ([]models.AttemptRecord, error)
}

func (m *MockAttemptStore) Get(ctx context.Context, clientID string) (models.AttemptRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, clientID)
	}
	return models.AttemptRecord{ClientID: clientID}, nil
}

func (m *MockAttemptStore) Set(ctx context.Context, record models.AttemptRecord) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, record)
	}
	return nil
}

func (m *MockAttemptStore) Delete(ctx context.Context, clientID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, clientID)
	}
	return nil
}

func (m *MockAttemptStore) Update(ctx context.Context, clientID string, fn func(*models.AttemptRecord)) (models.AttemptRecord, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, clientID, fn)
	}
	record := models.AttemptRecord{ClientID: clientID}
	fn(&record)
	return record, nil
}

func (m *MockAttemptStore) Sweep(ctx context.Context) (int64, error) {
	if m.SweepFunc != nil {
		return m.SweepFunc(ctx)
	}
	return 0, nil
}

func (m *MockAttemptStore) List(ctx context.Context) ([]models.AttemptRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// MockSessionIssuer implements SessionIssuer for testing
type MockSessionIssuer struct {
	IssueFunc func() (*models.Session, string, error)
	Calls     int
}

func (m *MockSessionIssuer) Issue() (*models.Session, string, error) {
	m.Calls++
	if m.IssueFunc != nil {
		return m.IssueFunc()
	}
	return &models.Session{
		Version:         models.SessionVersion,
		ID:              "test-session",
		IsAuthenticated: true,
		LoginTime:       1,
	}, "sealed-value", nil
}

// MockLockoutNotifier records alerts
type MockLockoutNotifier struct {
	mu     sync.Mutex
	Alerts []LockoutAlert
	Err    error
	sent   chan struct{}
}

func NewMockLockoutNotifier() *MockLockoutNotifier {
	return &MockLockoutNotifier{sent: make(chan struct{}, 16)}
}

func (m *MockLockoutNotifier) NotifyLockout(ctx context.Context, alert LockoutAlert) error {
	m.mu.Lock()
	m.Alerts = append(m.Alerts, alert)
	m.mu.Unlock()
	m.sent <- struct{}{}
	return m.Err
}

// Sent is signalled once per NotifyLockout call
func (m *MockLockoutNotifier) Sent() <-chan struct{} {
	return m.sent
}

func (m *MockLockoutNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Alerts)
}

// MockSESSender captures SendEmail input
type MockSESSender struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	Inputs        []*ses.SendEmailInput
}

func (m *MockSESSender) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.Inputs = append(m.Inputs, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	messageID := "test-message-id"
	return &ses.SendEmailOutput{MessageId: &messageID}, nil
}
