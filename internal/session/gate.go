package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"linkwise/internal/domain"
)

// Observer receives the current session, nil meaning signed out.
type Observer func(user *User)

// Gate owns the current session and tells observers about every transition.
type Gate struct {
	provider Provider
	log      logrus.FieldLogger

	mu        sync.Mutex
	current   *User
	observers map[int]Observer
	order     []int
	nextID    int
	pending   []*User
	draining  bool
}

func NewGate(provider Provider, logger logrus.FieldLogger) *Gate {
	return &Gate{
		provider:  provider,
		log:       logger.WithField("component", "session_gate"),
		observers: make(map[int]Observer),
	}
}

// Current returns the signed-in user or nil.
func (g *Gate) Current() *User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Subscribe registers fn and calls it right away with the current session.
func (g *Gate) Subscribe(fn Observer) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.observers[id] = fn
	g.order = append(g.order, id)
	current := g.current
	g.mu.Unlock()

	fn(current)

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.observers, id)
		for i, oid := range g.order {
			if oid == id {
				g.order = append(g.order[:i:i], g.order[i+1:]...)
				break
			}
		}
	}
}

func credentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", domain.NewValidationError("Please enter email and password")
	}
	return email, nil
}

func asAuthError(err error) error {
	if domain.IsAuth(err) || domain.IsValidation(err) {
		return err
	}
	return domain.NewAuthError(err.Error(), err)
}

func (g *Gate) SignIn(ctx context.Context, email, password string) error {
	email, err := credentials(email, password)
	if err != nil {
		return err
	}
	user, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		g.log.WithError(err).Info("Sign-in failed")
		return asAuthError(err)
	}
	g.set(user)
	return nil
}

func (g *Gate) SignUp(ctx context.Context, email, password string) error {
	email, err := credentials(email, password)
	if err != nil {
		return err
	}
	if len(password) < domain.MinPasswordLength {
		return domain.NewValidationError("Password must be at least 6 characters")
	}
	user, err := g.provider.SignUp(ctx, email, password)
	if err != nil {
		g.log.WithError(err).Info("Sign-up failed")
		return asAuthError(err)
	}
	g.set(user)
	return nil
}

// SignOut ends the session. A failed provider call leaves the session in place.
func (g *Gate) SignOut(ctx context.Context) error {
	user := g.Current()
	if user == nil {
		return nil
	}
	if err := g.provider.SignOut(ctx, user); err != nil {
		g.log.WithError(err).Error("Sign out failed")
		return asAuthError(err)
	}
	g.set(nil)
	return nil
}

// Token returns a bearer token for the current session. An expired session signs the
// gate out before the error is returned.
func (g *Gate) Token(ctx context.Context) (string, error) {
	user := g.Current()
	if user == nil {
		return "", domain.ErrNotSignedIn
	}
	tok, err := user.Token(ctx)
	if errors.Is(err, ErrSessionExpired) {
		g.log.WithField("email", user.Email).Info("Session expired")
		g.expire(user)
	}
	return tok, err
}

func (g *Gate) expire(user *User) {
	g.mu.Lock()
	still := g.current == user
	g.mu.Unlock()
	if still {
		g.set(nil)
	}
}

// set records the new session and delivers it. Transitions raised while observers run,
// from any goroutine, are queued and delivered in order by the goroutine already draining.
func (g *Gate) set(user *User) {
	g.mu.Lock()
	g.current = user
	g.pending = append(g.pending, user)
	if g.draining {
		g.mu.Unlock()
		return
	}
	g.draining = true
	for len(g.pending) > 0 {
		next := g.pending[0]
		g.pending = g.pending[1:]
		observers := make([]Observer, 0, len(g.order))
		for _, id := range g.order {
			observers = append(observers, g.observers[id])
		}
		g.mu.Unlock()
		for _, fn := range observers {
			fn(next)
		}
		g.mu.Lock()
	}
	g.draining = false
	g.mu.Unlock()
}
