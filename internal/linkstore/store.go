// Package linkstore keeps the client's copy of the user's links. The copy is only ever
// replaced wholesale from a fresh listing, never patched.
package linkstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"linkwise/internal/domain"
	"linkwise/internal/linkapi"
)

// API is the link backend as the store uses it.
type API interface {
	ListLinks(ctx context.Context, token string) ([]domain.Link, error)
	CreateLink(ctx context.Context, token, url string) (domain.Link, error)
	DeleteLink(ctx context.Context, token, id string) error
}

// TokenSource yields the bearer token of the current session, or domain.ErrNotSignedIn.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

const DeletePrompt = "Delete this link?"

type Store struct {
	api     API
	tokens  TokenSource
	confirm Confirmer
	log     logrus.FieldLogger

	mu        sync.RWMutex
	links     []domain.Link
	gen       uint64
	listeners []func([]domain.Link)

	adding atomic.Bool
}

func New(api API, tokens TokenSource, confirm Confirmer, logger logrus.FieldLogger) *Store {
	return &Store{
		api:     api,
		tokens:  tokens,
		confirm: confirm,
		log:     logger.WithField("component", "link_store"),
		links:   []domain.Link{},
	}
}

// OnChange registers fn to receive every new snapshot.
func (s *Store) OnChange(fn func([]domain.Link)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a copy of the current links in backend order.
func (s *Store) Snapshot() []domain.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLinks(s.links)
}

func cloneLinks(links []domain.Link) []domain.Link {
	out := make([]domain.Link, len(links))
	copy(out, links)
	return out
}

// Clear drops the snapshot. Refreshes started before the call are discarded on arrival.
func (s *Store) Clear() {
	s.mu.Lock()
	s.gen++
	s.links = []domain.Link{}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.RLock()
	snapshot := cloneLinks(s.links)
	listeners := append([]func([]domain.Link){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Refresh replaces the snapshot with the backend's full listing. On failure the previous
// snapshot stays as it was.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	links, err := s.api.ListLinks(ctx, token)
	if err != nil {
		s.log.WithError(err).Error("Failed to load links")
		return domain.NewNetworkError("Failed to load links", statusOf(err), err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.log.Debug("Discarding refresh from an ended session")
		return nil
	}
	s.links = cloneLinks(links)
	s.mu.Unlock()

	s.log.WithField("link_count", len(links)).Debug("Links refreshed")
	s.notify()
	return nil
}

// Add validates url locally, asks the backend to save it and refreshes on success.
// Only one Add runs at a time; overlapping calls get domain.ErrAddInFlight.
func (s *Store) Add(ctx context.Context, rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if err := domain.ValidateURL(rawURL); err != nil {
		return err
	}
	if !s.adding.CompareAndSwap(false, true) {
		return domain.ErrAddInFlight
	}
	defer s.adding.Store(false)

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("add link: %w", err)
	}
	if _, err := s.api.CreateLink(ctx, token, rawURL); err != nil {
		s.log.WithError(err).WithField("url", rawURL).Warn("Failed to add link")
		var apiErr *linkapi.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = "Failed to add link"
			}
			return domain.NewNetworkError(msg, apiErr.Status, err)
		}
		return domain.NewNetworkError("Failed to add link. Please try again.", 0, err)
	}

	if err := s.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("Link added but refresh failed")
	}
	return nil
}

// Remove deletes a link after the user confirms. A declined prompt is not an error and
// sends nothing.
func (s *Store) Remove(ctx context.Context, id string) error {
	ok, err := s.confirm.Confirm(ctx, DeletePrompt)
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		s.log.WithField("link_id", id).Debug("Delete declined")
		return nil
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if err := s.api.DeleteLink(ctx, token, id); err != nil {
		return domain.NewNetworkError("Failed to delete link", statusOf(err), err)
	}
	return s.Refresh(ctx)
}

func statusOf(err error) int {
	var apiErr *linkapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
