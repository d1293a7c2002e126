package linkapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"linkwise/internal/domain"
	"linkwise/internal/session"
)

// Identity implements session.Provider against the backend's auth endpoints.
type Identity struct {
	client *Client
}

var _ session.Provider = (*Identity)(nil)

func NewIdentity(client *Client) *Identity {
	return &Identity{client: client}
}

type sessionEnvelope struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (i *Identity) authenticate(ctx context.Context, path, email, password string) (*session.User, error) {
	var env sessionEnvelope
	err := i.client.do(ctx, http.MethodPost, path, "", map[string]string{"email": email, "password": password}, &env)
	if err != nil {
		return nil, authError(err)
	}
	return session.NewUser(env.User.ID, env.User.Email, session.StaticToken{Value: env.Token, ExpiresAt: env.ExpiresAt}), nil
}

func (i *Identity) SignIn(ctx context.Context, email, password string) (*session.User, error) {
	return i.authenticate(ctx, "/api/auth/signin", email, password)
}

func (i *Identity) SignUp(ctx context.Context, email, password string) (*session.User, error) {
	return i.authenticate(ctx, "/api/auth/signup", email, password)
}

// SignOut revokes the token server side. An already expired session has nothing to revoke.
func (i *Identity) SignOut(ctx context.Context, user *session.User) error {
	tok, err := user.Token(ctx)
	if errors.Is(err, session.ErrSessionExpired) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := i.client.do(ctx, http.MethodPost, "/api/auth/signout", tok, nil, nil); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil
		}
		return authError(err)
	}
	return nil
}

func authError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return domain.NewAuthError(apiErr.Message, err)
	}
	return domain.NewAuthError("Authentication service unavailable", err)
}
