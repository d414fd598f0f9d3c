package speak

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore is the durable slot holding the raw session token across
// process restarts. Save and Clear never fail upward; implementations log
// and carry on. Load reports false when the slot is empty. No validation
// happens here, that is the Decoder's job.
type TokenStore interface {
	Load() (string, bool)
	Save(token string)
	Clear()
}

// RegisterInput is the payload for the registration endpoint.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsDeaf   bool   `json:"isDeaf"`
}

// LoginInput is the payload for the login endpoint.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ImageUpload is a replacement profile image sent as a multipart file part.
type ImageUpload struct {
	FileName string
	Reader   io.Reader
}

// ProfileUpdate carries the mutable profile fields. Exactly one of
// ImageFile or ImageURL must be set: a replacement upload or a pass-through
// of the existing image reference.
type ProfileUpdate struct {
	Name      string
	IsDeaf    bool
	ImageFile *ImageUpload
	ImageURL  string
}

// AuthService is the remote collaborator issuing and refreshing session
// tokens. Register returns the server confirmation message; Login and
// UpdateProfile return a signed session token.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, error)
	Login(ctx context.Context, in LoginInput) (string, error)
	UpdateProfile(ctx context.Context, token string, in ProfileUpdate) (string, error)
}

// ChannelEvent is a server-emitted event delivered by a Channel.
type ChannelEvent struct {
	Name string
	Data json.RawMessage
}

// Channel is the real-time duplex collaborator. Reconnection and backoff
// are the implementation's concern, not the presence controller's.
type Channel interface {
	Open(ctx context.Context) error
	Emit(event string, payload any) error
	Events() <-chan ChannelEvent
	Close() error
	Connected() bool
}

// Notifier receives transient user-facing notifications. Calls are
// fire-and-forget and never part of persisted state.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Config holds client options
type Config interface {
	GetAPIBaseURL() string
	GetSocketURL() string
	GetTokenPath() string
	GetHTTPTimeout() time.Duration
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SPEAK "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SPEAK "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SPEAK "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SPEAK "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Error(string)   {}

// logNotifier forwards notifications to the logger; used when no real
// notification surface is wired.
type logNotifier struct {
	logger Logger
}

func (n logNotifier) Success(message string) {
	n.logger.Info("notify: %s", message)
}

func (n logNotifier) Error(message string) {
	n.logger.Warn("notify: %s", message)
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
