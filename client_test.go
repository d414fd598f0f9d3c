package speak_test

import (
	"context"
	"testing"
	"time"

	speak "github.com/speaklabs/go-speak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClientLifecycle(t *testing.T) {
	initial := testUserToken(t, "Ada")
	refreshed := mintToken(t, &speak.ProfileClaims{
		UserID: "user-1",
		Name:   "B",
		Email:  "a@x.com",
	})

	service := &MockAuthService{}
	service.On("Register", mock.Anything, mock.Anything).Return("created", nil)
	service.On("Login", mock.Anything, mock.Anything).Return(initial, nil)
	service.On("UpdateProfile", mock.Anything, initial, mock.Anything).Return(refreshed, nil)

	channel := NewFakeChannel()
	notifier := &RecordNotifier{}

	var events []speak.ActivityEventType
	sink := speak.ActivitySinkFunc(func(_ context.Context, event speak.ActivityEvent) error {
		events = append(events, event.EventType)
		return nil
	})

	cfg := &speak.Settings{APIBaseURL: "http://unused", HTTPTimeout: time.Second}
	client := speak.NewClient(context.Background(), cfg,
		speak.WithTokenStore(speak.NewMemoryTokenStore()),
		speak.WithAuthService(service),
		speak.WithChannel(channel),
		speak.WithNotifier(notifier),
		speak.WithActivitySink(sink),
	)
	defer client.Close()

	ctx := context.Background()

	// register establishes no session
	require.NoError(t, client.Auth().Register(ctx, speak.RegisterInput{
		Name: "A", Email: "a@x.com", Password: "p", IsDeaf: true,
	}))
	assert.False(t, client.Session().Authenticated())
	assert.False(t, client.Presence().Connected())

	// login opens presence
	require.NoError(t, client.Auth().Login(ctx, speak.LoginInput{Email: "a@x.com", Password: "p"}))
	assert.True(t, client.Session().Authenticated())
	assert.True(t, client.Presence().Connected())

	// profile update refreshes the session in place
	require.NoError(t, client.Auth().UpdateProfile(ctx, speak.ProfileUpdate{
		Name:     "B",
		ImageURL: "https://cdn.example.com/a.png",
	}))
	require.NotNil(t, client.Session().User())
	assert.Equal(t, "B", client.Session().User().Name)
	assert.True(t, client.Presence().Connected())

	// logout closes presence
	client.Session().Logout()
	assert.False(t, client.Session().Authenticated())
	assert.False(t, client.Presence().Connected())

	assert.Equal(t, []speak.ActivityEventType{
		speak.ActivityEventRegisterSuccess,
		speak.ActivityEventLoginSuccess,
		speak.ActivityEventProfileUpdateSuccess,
		speak.ActivityEventLogout,
	}, events)

	assert.Contains(t, notifier.Successes, "Login successful")
	assert.Contains(t, notifier.Successes, "Logout successful")
}
