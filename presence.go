package speak

import (
	"context"
	"encoding/json"
	"sync"
)

// Channel event names shared with the Speak service.
const (
	EventUserOnline     = "user_online"
	EventOnlineUsers    = "update_online_users"
	EventGetOnlineUsers = "get_online_users"
)

// PresenceController keeps one shared real-time channel open exactly while
// a valid session exists. It observes the session's authenticated state:
// on false -> true it opens the channel and announces presence with the
// decoded user; on true -> false it closes the channel. Both directions
// are idempotent inside the controller, so redundant observer firings are
// harmless.
//
// Reconnection and backoff are the Channel implementation's concern; the
// controller only expresses connect/disconnect intent.
type PresenceController struct {
	channel Channel
	logger  Logger

	mu        sync.Mutex
	connected bool
	user      *User
	stop      chan struct{}

	rosterMu sync.RWMutex
	roster   []User

	unsubscribe func()
}

// NewPresenceController returns a controller owning the given channel for
// the process lifetime.
func NewPresenceController(channel Channel) *PresenceController {
	return &PresenceController{
		channel: channel,
		logger:  defLogger{},
	}
}

func (p *PresenceController) WithLogger(logger Logger) *PresenceController {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Bind subscribes the controller to the session's authenticated state and
// applies the current value immediately. Call Unbind to detach.
func (p *PresenceController) Bind(ctx context.Context, state *SessionState) {
	p.unsubscribe = state.Subscribe(func(user *User) {
		if user != nil {
			if err := p.Connect(ctx, user); err != nil {
				p.logger.Error("presence connect failed", "error", err)
			}
			return
		}
		if err := p.Disconnect(); err != nil {
			p.logger.Error("presence disconnect failed", "error", err)
		}
	})
}

// Unbind detaches the controller from the session state. The channel is
// left in its current state.
func (p *PresenceController) Unbind() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

// Connect opens the channel and announces presence with the given user.
// Calling Connect while already connected is a no-op.
func (p *PresenceController) Connect(ctx context.Context, user *User) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		return nil
	}

	if err := p.channel.Open(ctx); err != nil {
		return err
	}

	p.connected = true
	p.user = user
	p.stop = make(chan struct{})
	go p.consume(p.channel.Events(), p.stop)

	if err := p.channel.Emit(EventUserOnline, user); err != nil {
		p.logger.Warn("presence announce failed", "error", err)
	}

	return nil
}

// Disconnect closes the channel. Calling Disconnect while already closed is
// a no-op and never errors.
func (p *PresenceController) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil
	}

	p.connected = false
	p.user = nil
	close(p.stop)

	if err := p.channel.Close(); err != nil {
		p.logger.Warn("presence channel close error", "error", err)
	}

	p.rosterMu.Lock()
	p.roster = nil
	p.rosterMu.Unlock()

	return nil
}

// Connected reports whether the controller currently holds the channel
// open.
func (p *PresenceController) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// OnlineUsers returns the roster from the most recent server broadcast.
func (p *PresenceController) OnlineUsers() []User {
	p.rosterMu.RLock()
	defer p.rosterMu.RUnlock()
	out := make([]User, len(p.roster))
	copy(out, p.roster)
	return out
}

// RequestRoster asks the server for a fresh roster broadcast.
func (p *PresenceController) RequestRoster() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return ErrChannelClosed
	}
	return p.channel.Emit(EventGetOnlineUsers, nil)
}

// consume drains server events until the channel is torn down, tracking
// roster broadcasts.
func (p *PresenceController) consume(events <-chan ChannelEvent, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Name != EventOnlineUsers {
				continue
			}
			var roster []User
			if err := json.Unmarshal(event.Data, &roster); err != nil {
				p.logger.Warn("presence roster decode failed", "error", err)
				continue
			}
			p.rosterMu.Lock()
			p.roster = roster
			p.rosterMu.Unlock()
		}
	}
}
