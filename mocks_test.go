package speak_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	speak "github.com/speaklabs/go-speak"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthService implements speak.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in speak.RegisterInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, in speak.LoginInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, token string, in speak.ProfileUpdate) (string, error) {
	args := m.Called(ctx, token, in)
	return args.String(0), args.Error(1)
}

// FakeChannel implements speak.Channel with call accounting for
// idempotency assertions.
type FakeChannel struct {
	mu      sync.Mutex
	open    bool
	opens   int
	closes  int
	emitted []fakeEmit
	events  chan speak.ChannelEvent
}

type fakeEmit struct {
	Event   string
	Payload any
}

func NewFakeChannel() *FakeChannel {
	return &FakeChannel{
		events: make(chan speak.ChannelEvent, 16),
	}
}

func (c *FakeChannel) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.opens++
	return nil
}

func (c *FakeChannel) Emit(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return speak.ErrChannelClosed
	}
	c.emitted = append(c.emitted, fakeEmit{Event: event, Payload: payload})
	return nil
}

func (c *FakeChannel) Events() <-chan speak.ChannelEvent {
	return c.events
}

func (c *FakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.closes++
	return nil
}

func (c *FakeChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *FakeChannel) Push(event speak.ChannelEvent) {
	c.events <- event
}

func (c *FakeChannel) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

func (c *FakeChannel) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *FakeChannel) Emitted() []fakeEmit {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]fakeEmit, len(c.emitted))
	copy(out, c.emitted)
	return out
}

// RecordNotifier captures notifications for assertions.
type RecordNotifier struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (n *RecordNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Successes = append(n.Successes, message)
}

func (n *RecordNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, message)
}

// mintToken signs profile claims the way the service does, so the decoder
// sees a structurally valid token.
func mintToken(t *testing.T, claims *speak.ProfileClaims) string {
	t.Helper()

	if claims.RegisteredClaims.ExpiresAt == nil {
		claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(24 * time.Hour))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	return signed
}

func testUserToken(t *testing.T, name string) string {
	t.Helper()
	return mintToken(t, &speak.ProfileClaims{
		UserID: "user-1",
		Name:   name,
		Email:  "a@x.com",
		IsDeaf: true,
	})
}
