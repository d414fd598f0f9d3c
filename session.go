package speak

import (
	"context"
	"sync"
	"time"
)

// OpKind identifies one of the session-mutating operations.
type OpKind string

const (
	OpRegister      OpKind = "register"
	OpLogin         OpKind = "login"
	OpUpdateProfile OpKind = "update_profile"
)

// OpStatus is the lifecycle tag of the most recent auth operation. Modeled
// as an explicit enumeration so illegal combinations (loading AND failed)
// are unrepresentable.
type OpStatus int

const (
	StatusIdle OpStatus = iota
	StatusPending
	StatusSucceeded
	StatusFailed
)

func (s OpStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Snapshot is a point-in-time copy of the session aggregate.
type Snapshot struct {
	Token   string
	User    *User
	Status  OpStatus
	Kind    OpKind
	Message string
}

// Authenticated reports whether the snapshot holds a decoded user.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// SessionState is the process-wide source of truth for the current session:
// token, decoded user, and last-operation status. It is mutated only by the
// Orchestrator completions, Logout, and ClearError; everything else is a
// read-only observer.
type SessionState struct {
	mu      sync.RWMutex
	token   string
	user    *User
	status  OpStatus
	kind    OpKind
	message string

	store    TokenStore
	notifier Notifier
	sink     ActivitySink
	logger   Logger

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(user *User)
}

// NewSessionState builds the session aggregate, rehydrating the token from
// the store and decoding it so a restart resumes the previous session.
func NewSessionState(store TokenStore, decoder *Decoder) *SessionState {
	s := &SessionState{
		store:    store,
		status:   StatusIdle,
		notifier: noopNotifier{},
		sink:     noopActivitySink{},
		logger:   defLogger{},
		subs:     map[int]func(*User){},
	}

	if token, ok := store.Load(); ok {
		s.token = token
		s.user = decoder.Decode(token)
		if s.user == nil {
			// decoder cleared the slot; drop the in-memory copy too
			s.token = ""
		}
	}

	return s
}

func (s *SessionState) WithLogger(logger Logger) *SessionState {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *SessionState) WithNotifier(notifier Notifier) *SessionState {
	s.notifier = normalizeNotifier(notifier)
	return s
}

// WithActivitySink configures an ActivitySink for the logout event.
func (s *SessionState) WithActivitySink(sink ActivitySink) *SessionState {
	s.sink = normalizeActivitySink(sink)
	return s
}

// Snapshot returns a copy of the current aggregate.
func (s *SessionState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Token:   s.token,
		User:    s.user,
		Status:  s.status,
		Kind:    s.kind,
		Message: s.message,
	}
}

// Token returns the current session token, empty when logged out.
func (s *SessionState) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current decoded user, nil when unauthenticated.
func (s *SessionState) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a decoded user is present.
func (s *SessionState) Authenticated() bool {
	return s.User() != nil
}

// Subscribe registers an observer of the authenticated state. The callback
// fires with the new user (nil on de-authentication) whenever the
// authenticated boolean flips, and once immediately with the current value
// so late subscribers converge. The returned function unsubscribes.
func (s *SessionState) Subscribe(fn func(user *User)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	fn(s.User())

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Logout clears the token store and resets the aggregate to its
// unauthenticated zero state. Always yields token="", user=nil, idle
// status, empty message, regardless of prior state.
func (s *SessionState) Logout() {
	s.mu.Lock()
	wasAuthed := s.user != nil
	prevUser := s.user
	s.store.Clear()
	s.token = ""
	s.user = nil
	s.status = StatusIdle
	s.kind = ""
	s.message = ""
	s.mu.Unlock()

	s.notifier.Success("Logout successful")

	if wasAuthed {
		if err := s.sink.Record(context.Background(), ActivityEvent{
			EventType:  ActivityEventLogout,
			UserID:     prevUser.ID,
			OccurredAt: time.Now(),
		}); err != nil {
			s.logger.Warn("activity sink error: %v", err)
		}
		s.notify(nil)
	}
}

// ClearError wipes stale failure text so a previous attempt never bleeds
// into a new attempt's display while it is pending.
func (s *SessionState) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusFailed {
		s.status = StatusIdle
	}
	s.message = ""
}

// begin marks an operation in flight. Pending is observed before the
// operation's terminal status.
func (s *SessionState) begin(kind OpKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kind = kind
	s.status = StatusPending
	s.message = ""
}

// completeMessage settles an operation that surfaces a message but does not
// touch the session (register).
func (s *SessionState) completeMessage(kind OpKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kind = kind
	s.status = StatusSucceeded
	s.message = message
}

// completeAuthenticated settles an operation that produced a fresh token
// (login, profile update).
func (s *SessionState) completeAuthenticated(kind OpKind, token string, user *User, message string) {
	s.mu.Lock()
	wasAuthed := s.user != nil
	s.kind = kind
	s.status = StatusSucceeded
	s.message = message
	s.token = token
	s.user = user
	nowAuthed := s.user != nil
	s.mu.Unlock()

	if wasAuthed != nowAuthed {
		s.notify(user)
	}
}

// fail settles an operation with a failure message, leaving token and user
// untouched.
func (s *SessionState) fail(kind OpKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kind = kind
	s.status = StatusFailed
	s.message = message
}

// failDeauthenticated settles a failed login: the failure de-authenticates,
// clearing any stale token and user.
func (s *SessionState) failDeauthenticated(kind OpKind, message string) {
	s.mu.Lock()
	wasAuthed := s.user != nil
	s.kind = kind
	s.status = StatusFailed
	s.message = message
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if wasAuthed {
		s.notify(nil)
	}
}

func (s *SessionState) notify(user *User) {
	s.subMu.Lock()
	fns := make([]func(*User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}
