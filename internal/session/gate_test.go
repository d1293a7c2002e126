package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkwise/internal/domain"
)

type fakeProvider struct {
	signIns, signUps, signOuts int
	err                        error
	signOutErr                 error
	token                      TokenSource
}

func (f *fakeProvider) user(email string) *User {
	tokens := f.token
	if tokens == nil {
		tokens = StaticToken{Value: "tok-" + email}
	}
	return NewUser("id-"+email, email, tokens)
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	f.signIns++
	if f.err != nil {
		return nil, f.err
	}
	return f.user(email), nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (*User, error) {
	f.signUps++
	if f.err != nil {
		return nil, f.err
	}
	return f.user(email), nil
}

func (f *fakeProvider) SignOut(ctx context.Context, user *User) error {
	f.signOuts++
	return f.signOutErr
}

func newGate(p Provider) *Gate {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewGate(p, logger)
}

func emails(users []*User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u == nil {
			out = append(out, "")
			continue
		}
		out = append(out, u.Email)
	}
	return out
}

func TestGate_SubscribeDeliversImmediatelyAndOnChange(t *testing.T) {
	p := &fakeProvider{}
	g := newGate(p)
	ctx := context.Background()

	var seen []*User
	unsubscribe := g.Subscribe(func(u *User) { seen = append(seen, u) })
	require.Len(t, seen, 1)
	assert.Nil(t, seen[0])

	require.NoError(t, g.SignIn(ctx, " a@example.com ", "secret"))
	require.NoError(t, g.SignOut(ctx))
	assert.Equal(t, []string{"", "a@example.com", ""}, emails(seen))

	unsubscribe()
	require.NoError(t, g.SignIn(ctx, "a@example.com", "secret"))
	assert.Len(t, seen, 3, "no delivery after unsubscribe")
	assert.Equal(t, "a@example.com", g.Current().Email)
}

func TestGate_SignUpPasswordLength(t *testing.T) {
	p := &fakeProvider{}
	g := newGate(p)
	ctx := context.Background()

	err := g.SignUp(ctx, "a@example.com", "12345")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Password must be at least 6 characters", domain.Message(err))
	assert.Equal(t, 0, p.signUps)

	require.NoError(t, g.SignUp(ctx, "a@example.com", "123456"))
	assert.Equal(t, 1, p.signUps)
}

func TestGate_MissingCredentials(t *testing.T) {
	p := &fakeProvider{}
	g := newGate(p)

	for _, fn := range []func(context.Context, string, string) error{g.SignIn, g.SignUp} {
		err := fn(context.Background(), "  ", "secret1")
		assert.Equal(t, "Please enter email and password", domain.Message(err))
		err = fn(context.Background(), "a@example.com", "")
		assert.True(t, domain.IsValidation(err))
	}
	assert.Zero(t, p.signIns+p.signUps)
}

func TestGate_ProviderFailureIsAuthError(t *testing.T) {
	p := &fakeProvider{err: errors.New("Invalid email or password")}
	g := newGate(p)

	err := g.SignIn(context.Background(), "a@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, domain.IsAuth(err))
	assert.Equal(t, "Invalid email or password", domain.Message(err))
	assert.Nil(t, g.Current())
	assert.Equal(t, 1, p.signIns, "no retry")
}

func TestGate_SignOutFailureKeepsSession(t *testing.T) {
	p := &fakeProvider{signOutErr: errors.New("network down")}
	g := newGate(p)
	ctx := context.Background()
	require.NoError(t, g.SignIn(ctx, "a@example.com", "secret"))

	err := g.SignOut(ctx)
	assert.True(t, domain.IsAuth(err))
	assert.NotNil(t, g.Current())
}

func TestGate_TokenExpirySignsOut(t *testing.T) {
	now := time.Now()
	p := &fakeProvider{token: StaticToken{Value: "tok", ExpiresAt: now.Add(time.Minute), Now: func() time.Time { return now }}}
	g := newGate(p)
	ctx := context.Background()

	_, err := g.Token(ctx)
	assert.ErrorIs(t, err, domain.ErrNotSignedIn)

	require.NoError(t, g.SignIn(ctx, "a@example.com", "secret"))
	tok, err := g.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	last := g.Current()
	g.Subscribe(func(u *User) { last = u })
	now = now.Add(2 * time.Minute)

	_, err = g.Token(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Nil(t, g.Current())
	assert.Nil(t, last)
}

func TestGate_TransitionsFromObserversAreQueued(t *testing.T) {
	p := &fakeProvider{}
	g := newGate(p)
	ctx := context.Background()

	var first, second []string
	g.Subscribe(func(u *User) {
		first = append(first, emails([]*User{u})...)
		if u != nil && u.Email == "a@example.com" {
			// Signing out from inside a notification must not deadlock or reorder.
			require.NoError(t, g.SignOut(ctx))
		}
	})
	g.Subscribe(func(u *User) { second = append(second, emails([]*User{u})...) })

	require.NoError(t, g.SignIn(ctx, "a@example.com", "secret"))
	assert.Equal(t, []string{"", "a@example.com", ""}, first)
	assert.Equal(t, []string{"", "a@example.com", ""}, second)
	assert.Nil(t, g.Current())
}
