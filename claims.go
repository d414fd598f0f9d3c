package speak

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the locally derived identity view extracted from a session
// token's claims. It is recomputed from the token whenever the token
// changes and is never persisted directly.
type User struct {
	ID              string    `json:"user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	IsDeaf          bool      `json:"isDeaf"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	ExpiresAt       time.Time `json:"-"`
}

// ProfileClaims is the claim set the Speak service encodes into session
// tokens.
type ProfileClaims struct {
	jwt.RegisteredClaims
	UserID          string `json:"user_id,omitempty"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	IsDeaf          bool   `json:"isDeaf"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// GetUserID returns the user identifier, falling back to the subject claim.
func (c *ProfileClaims) GetUserID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *ProfileClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// User projects the claims into the client-facing identity view.
func (c *ProfileClaims) User() *User {
	return &User{
		ID:              c.GetUserID(),
		Name:            c.Name,
		Email:           c.Email,
		IsDeaf:          c.IsDeaf,
		ProfileImageURL: c.ProfileImageURL,
		ExpiresAt:       c.Expires(),
	}
}
