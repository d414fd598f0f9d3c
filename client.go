package speak

import (
	"context"
)

// Client wires the session components together with their default
// implementations: a file-backed token store, the HTTP auth service, and a
// websocket presence channel. Pieces can be swapped through options before
// first use.
type Client struct {
	config   Config
	store    TokenStore
	decoder  *Decoder
	state    *SessionState
	auth     *Orchestrator
	presence *PresenceController
	logger   Logger
}

// ClientOption customizes client construction.
type ClientOption func(*clientDeps)

type clientDeps struct {
	store    TokenStore
	service  AuthService
	channel  Channel
	notifier Notifier
	sink     ActivitySink
	logger   Logger
}

// WithTokenStore swaps the default file-backed store.
func WithTokenStore(store TokenStore) ClientOption {
	return func(d *clientDeps) {
		if store != nil {
			d.store = store
		}
	}
}

// WithAuthService swaps the default HTTP auth service.
func WithAuthService(service AuthService) ClientOption {
	return func(d *clientDeps) {
		if service != nil {
			d.service = service
		}
	}
}

// WithChannel swaps the default websocket channel.
func WithChannel(channel Channel) ClientOption {
	return func(d *clientDeps) {
		if channel != nil {
			d.channel = channel
		}
	}
}

// WithNotifier sets the transient notification surface.
func WithNotifier(notifier Notifier) ClientOption {
	return func(d *clientDeps) {
		if notifier != nil {
			d.notifier = notifier
		}
	}
}

// WithActivitySink sets the audit event sink.
func WithActivitySink(sink ActivitySink) ClientOption {
	return func(d *clientDeps) {
		if sink != nil {
			d.sink = sink
		}
	}
}

// WithClientLogger sets the logger shared by all components.
func WithClientLogger(logger Logger) ClientOption {
	return func(d *clientDeps) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewClient builds a fully wired client. The session is rehydrated from
// the token store, and the presence controller is bound to it, so a stored
// valid token reconnects presence immediately.
func NewClient(ctx context.Context, cfg Config, opts ...ClientOption) *Client {
	deps := &clientDeps{
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(deps)
		}
	}

	if deps.store == nil {
		deps.store = NewFileTokenStore(cfg.GetTokenPath()).WithLogger(deps.logger)
	}
	if deps.service == nil {
		deps.service = NewHTTPAuthService(cfg).WithLogger(deps.logger)
	}
	if deps.channel == nil {
		deps.channel = NewWebsocketChannel(cfg.GetSocketURL()).WithLogger(deps.logger)
	}
	if deps.notifier == nil {
		deps.notifier = logNotifier{logger: deps.logger}
	}

	decoder := NewDecoder(deps.store).WithLogger(deps.logger)
	state := NewSessionState(deps.store, decoder).
		WithLogger(deps.logger).
		WithNotifier(deps.notifier).
		WithActivitySink(deps.sink)

	auth := NewOrchestrator(deps.service, deps.store, decoder, state).
		WithLogger(deps.logger).
		WithNotifier(deps.notifier).
		WithActivitySink(deps.sink)

	presence := NewPresenceController(deps.channel).WithLogger(deps.logger)
	presence.Bind(ctx, state)

	return &Client{
		config:   cfg,
		store:    deps.store,
		decoder:  decoder,
		state:    state,
		auth:     auth,
		presence: presence,
		logger:   deps.logger,
	}
}

// Session exposes the session state for read access and logout.
func (c *Client) Session() *SessionState {
	return c.state
}

// Auth exposes the operation orchestrator.
func (c *Client) Auth() *Orchestrator {
	return c.auth
}

// Presence exposes the presence controller.
func (c *Client) Presence() *PresenceController {
	return c.presence
}

// Close detaches presence from the session and closes the channel.
func (c *Client) Close() error {
	c.presence.Unbind()
	return c.presence.Disconnect()
}
