package speak

import (
	"context"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// Orchestrator runs the three session-mutating operations against the
// remote AuthService, each through the same Idle -> Pending ->
// Succeeded/Failed lifecycle, persisting tokens through the TokenStore and
// decoding them with the Decoder.
//
// Operations are not cancellable once dispatched; a caller losing interest
// must tolerate the eventual state write. Concurrent dispatches of the same
// kind are sequenced: only the most recently dispatched one gets to write
// the shared session fields, so a stale completion cannot overwrite newer
// session data.
type Orchestrator struct {
	service  AuthService
	store    TokenStore
	decoder  *Decoder
	state    *SessionState
	notifier Notifier
	sink     ActivitySink
	logger   Logger

	seqMu sync.Mutex
	seq   map[OpKind]uint64
}

// NewOrchestrator returns an Orchestrator wired to the shared session
// state.
func NewOrchestrator(service AuthService, store TokenStore, decoder *Decoder, state *SessionState) *Orchestrator {
	return &Orchestrator{
		service:  service,
		store:    store,
		decoder:  decoder,
		state:    state,
		notifier: noopNotifier{},
		sink:     noopActivitySink{},
		logger:   defLogger{},
		seq:      map[OpKind]uint64{},
	}
}

func (o *Orchestrator) WithLogger(logger Logger) *Orchestrator {
	if logger != nil {
		o.logger = logger
	}
	return o
}

func (o *Orchestrator) WithNotifier(notifier Notifier) *Orchestrator {
	o.notifier = normalizeNotifier(notifier)
	return o
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (o *Orchestrator) WithActivitySink(sink ActivitySink) *Orchestrator {
	o.sink = normalizeActivitySink(sink)
	return o
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required),
	)
}

func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required),
	)
}

func (in ProfileUpdate) Validate() error {
	if err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
	); err != nil {
		return err
	}

	// exactly one of: replacement upload, existing image reference
	hasFile := in.ImageFile != nil
	hasURL := in.ImageURL != ""
	if hasFile == hasURL {
		return goerrors.New(
			"provide either a profile image file or the existing image URL",
			goerrors.CategoryValidation,
		)
	}

	return nil
}

// Register creates an account. Success surfaces the server confirmation
// message; no session is established, the user must log in afterwards.
func (o *Orchestrator) Register(ctx context.Context, in RegisterInput) error {
	if err := in.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	o.state.ClearError()
	seq := o.dispatch(OpRegister)
	o.state.begin(OpRegister)

	message, err := o.service.Register(ctx, in)
	if err != nil {
		msg := failureMessage(err)
		o.notifier.Error("Registration failed")
		o.recordActivity(ctx, ActivityEventRegisterFailure, "", map[string]any{
			"email": in.Email,
			"error": msg,
		})
		if o.current(OpRegister) == seq {
			o.state.fail(OpRegister, msg)
		}
		return err
	}

	o.notifier.Success("Account created successfully")
	o.recordActivity(ctx, ActivityEventRegisterSuccess, "", map[string]any{
		"email": in.Email,
	})

	if o.current(OpRegister) == seq {
		o.state.completeMessage(OpRegister, message)
	}
	return nil
}

// Login authenticates against the remote service. Success persists the
// returned token and writes the decoded user into the session state; a
// failed login de-authenticates.
func (o *Orchestrator) Login(ctx context.Context, in LoginInput) error {
	if err := in.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload")
	}

	o.state.ClearError()
	seq := o.dispatch(OpLogin)
	o.state.begin(OpLogin)

	token, err := o.service.Login(ctx, in)
	if err != nil {
		msg := failureMessage(err)
		o.notifier.Error("Login failed")
		o.recordActivity(ctx, ActivityEventLoginFailure, "", map[string]any{
			"email": in.Email,
			"error": msg,
		})
		if o.current(OpLogin) == seq {
			o.state.failDeauthenticated(OpLogin, msg)
		}
		return err
	}

	o.notifier.Success("Login successful")

	if o.current(OpLogin) != seq {
		// a newer login was dispatched while this one was in flight;
		// its result owns the session now
		o.logger.Debug("login completion superseded, skipping session write")
		o.recordActivity(ctx, ActivityEventLoginSuccess, "", map[string]any{"superseded": true})
		return nil
	}

	user := o.settleToken(token)
	o.recordActivity(ctx, ActivityEventLoginSuccess, userID(user), nil)
	o.state.completeAuthenticated(OpLogin, tokenFor(user, token), user, "")
	return nil
}

// UpdateProfile sends the changed profile to the remote service using the
// current session token as bearer credential. The service re-issues a token
// reflecting the change, which is saved and decoded exactly as login does.
// Gating on an existing session is the caller's responsibility.
func (o *Orchestrator) UpdateProfile(ctx context.Context, in ProfileUpdate) error {
	if err := in.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid profile payload")
	}

	token := o.state.Token()

	o.state.ClearError()
	seq := o.dispatch(OpUpdateProfile)
	o.state.begin(OpUpdateProfile)

	fresh, err := o.service.UpdateProfile(ctx, token, in)
	if err != nil {
		msg := failureMessage(err)
		o.notifier.Error("Profile update failed")
		o.recordActivity(ctx, ActivityEventProfileUpdateFailure, userID(o.state.User()), map[string]any{
			"error": msg,
		})
		if o.current(OpUpdateProfile) == seq {
			o.state.fail(OpUpdateProfile, msg)
		}
		return err
	}

	o.notifier.Success("Profile updated successfully!")

	if o.current(OpUpdateProfile) != seq {
		o.logger.Debug("profile update completion superseded, skipping session write")
		o.recordActivity(ctx, ActivityEventProfileUpdateSuccess, "", map[string]any{"superseded": true})
		return nil
	}

	user := o.settleToken(fresh)
	o.recordActivity(ctx, ActivityEventProfileUpdateSuccess, userID(user), nil)
	o.state.completeAuthenticated(OpUpdateProfile, tokenFor(user, fresh), user, "Profile updated successfully!")
	return nil
}

// settleToken persists and decodes a freshly issued token. A token the
// decoder rejects has already been purged from the store.
func (o *Orchestrator) settleToken(token string) *User {
	o.store.Save(token)
	return o.decoder.Decode(token)
}

// tokenFor keeps the token/user invariant: no decoded user, no resident
// token.
func tokenFor(user *User, token string) string {
	if user == nil {
		return ""
	}
	return token
}

func userID(user *User) string {
	if user == nil {
		return ""
	}
	return user.ID
}

func (o *Orchestrator) dispatch(kind OpKind) uint64 {
	o.seqMu.Lock()
	defer o.seqMu.Unlock()
	o.seq[kind]++
	return o.seq[kind]
}

func (o *Orchestrator) current(kind OpKind) uint64 {
	o.seqMu.Lock()
	defer o.seqMu.Unlock()
	return o.seq[kind]
}

func (o *Orchestrator) recordActivity(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}
	if err := o.sink.Record(ctx, event); err != nil {
		o.logger.Warn("activity sink error: %v", err)
	}
}
