package speak

import (
	"github.com/golang-jwt/jwt/v5"
)

// Decoder extracts profile claims from a session token without contacting
// the remote service. Signature verification is the service's concern; the
// client validates structure only, so decoding stays pure and offline.
//
// A token that fails to decode is purged from the TokenStore as a side
// effect. That keeps the invariant that a nil user implies no resident
// token: a corrupt token is a consistency repair, not a user-facing error.
type Decoder struct {
	store  TokenStore
	parser *jwt.Parser
	logger Logger
}

// NewDecoder returns a Decoder bound to the given token store.
func NewDecoder(store TokenStore) *Decoder {
	return &Decoder{
		store:  store,
		parser: jwt.NewParser(),
		logger: defLogger{},
	}
}

func (d *Decoder) WithLogger(logger Logger) *Decoder {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// Decode parses the token's embedded claims and returns the derived user,
// or nil when the token is empty or structurally invalid. Expiry encoded in
// the token is not enforced here beyond decode failure.
func (d *Decoder) Decode(token string) *User {
	if token == "" {
		return nil
	}

	claims := &ProfileClaims{}
	if _, _, err := d.parser.ParseUnverified(token, claims); err != nil {
		d.logger.Warn("decoder purging malformed token", "error", err)
		d.store.Clear()
		return nil
	}

	return claims.User()
}
