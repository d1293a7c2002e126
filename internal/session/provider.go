package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionExpired is returned by a token source whose credential can no longer be used.
var ErrSessionExpired = errors.New("session expired")

// Provider is the identity provider capability the gate wraps.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context, user *User) error
}

// TokenSource hands out the bearer token for authenticated requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// User is an authenticated session as seen by the client.
type User struct {
	ID     string
	Email  string
	tokens TokenSource
}

func NewUser(id, email string, tokens TokenSource) *User {
	return &User{ID: id, Email: email, tokens: tokens}
}

// Token returns a bearer token for this session.
func (u *User) Token(ctx context.Context) (string, error) {
	if u.tokens == nil {
		return "", ErrSessionExpired
	}
	return u.tokens.Token(ctx)
}

// StaticToken is a bearer token with a fixed expiry.
type StaticToken struct {
	Value     string
	ExpiresAt time.Time
	Now       func() time.Time
}

func (t StaticToken) Token(ctx context.Context) (string, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	if t.Value == "" || (!t.ExpiresAt.IsZero() && !now().Before(t.ExpiresAt)) {
		return "", ErrSessionExpired
	}
	return t.Value, nil
}
