// Package app holds the controller shared by the front-ends. It reacts to session changes,
// keeps the search query, and drives the link store and the view.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"linkwise/internal/domain"
	"linkwise/internal/linkstore"
	"linkwise/internal/render"
	"linkwise/internal/session"
)

// View is what a front-end shows. Calls may arrive from any goroutine.
type View interface {
	ShowAuth()
	ShowApp(email string)
	RenderLinks(items []render.Item)
	AuthError(msg string)
	AddError(msg string)
}

type Controller struct {
	ctx   context.Context
	gate  *session.Gate
	store *linkstore.Store
	view  View
	log   logrus.FieldLogger
	now   func() time.Time

	mu          sync.Mutex
	query       string
	unsubscribe func()
}

// New wires the controller to gate and store and shows the screen matching the current
// session. ctx bounds the refreshes started by session changes.
func New(ctx context.Context, gate *session.Gate, store *linkstore.Store, view View, logger logrus.FieldLogger) *Controller {
	c := &Controller{
		ctx:   ctx,
		gate:  gate,
		store: store,
		view:  view,
		log:   logger.WithField("component", "controller"),
		now:   time.Now,
	}
	store.OnChange(c.render)
	unsubscribe := gate.Subscribe(c.onSession)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	return c
}

func (c *Controller) onSession(user *session.User) {
	if user == nil {
		c.log.Debug("No session")
		c.view.ShowAuth()
		c.store.Clear()
		return
	}
	c.log.WithField("email", user.Email).Info("Session started")
	c.view.ShowApp(user.Email)
	if err := c.store.Refresh(c.ctx); err != nil {
		c.log.WithError(err).Error("Failed to load links")
	}
}

func (c *Controller) render(links []domain.Link) {
	c.mu.Lock()
	query := c.query
	c.mu.Unlock()
	c.view.RenderLinks(render.Items(links, query, c.now()))
}

// Email returns the signed-in address, or "" when signed out.
func (c *Controller) Email() string {
	if u := c.gate.Current(); u != nil {
		return u.Email
	}
	return ""
}

func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	if err := c.gate.SignIn(ctx, email, password); err != nil {
		c.view.AuthError(domain.Message(err))
		return err
	}
	return nil
}

func (c *Controller) SignUp(ctx context.Context, email, password string) error {
	if err := c.gate.SignUp(ctx, email, password); err != nil {
		c.view.AuthError(domain.Message(err))
		return err
	}
	return nil
}

func (c *Controller) SignOut(ctx context.Context) error {
	if err := c.gate.SignOut(ctx); err != nil {
		c.log.WithError(err).Error("Sign out failed")
		return err
	}
	return nil
}

// AddLink saves url. Validation and backend failures are shown on the add form.
func (c *Controller) AddLink(ctx context.Context, url string) error {
	if err := c.store.Add(ctx, url); err != nil {
		c.view.AddError(domain.Message(err))
		return err
	}
	return nil
}

// DeleteLink removes a link after confirmation. Failures are only logged.
func (c *Controller) DeleteLink(ctx context.Context, id string) error {
	if err := c.store.Remove(ctx, id); err != nil {
		c.log.WithError(err).WithField("link_id", id).Error("Failed to delete link")
		return err
	}
	return nil
}

// Refresh reloads the list from the backend.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.store.Refresh(ctx); err != nil {
		c.log.WithError(err).Error("Failed to load links")
		return err
	}
	return nil
}

// Search re-renders the current snapshot filtered by query. No request is made.
func (c *Controller) Search(query string) {
	c.mu.Lock()
	c.query = query
	c.mu.Unlock()
	c.render(c.store.Snapshot())
}

// Close detaches the controller from the session gate.
func (c *Controller) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}
