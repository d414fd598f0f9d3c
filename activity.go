package speak

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRegisterSuccess      ActivityEventType = "auth.register.success"
	ActivityEventRegisterFailure      ActivityEventType = "auth.register.failure"
	ActivityEventLoginSuccess         ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure         ActivityEventType = "auth.login.failure"
	ActivityEventProfileUpdateSuccess ActivityEventType = "auth.profile.update.success"
	ActivityEventProfileUpdateFailure ActivityEventType = "auth.profile.update.failure"
	ActivityEventLogout               ActivityEventType = "auth.logout"
)

// ActivityEvent captures audit-friendly information about an auth action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: errors are logged, never blocking an operation.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
