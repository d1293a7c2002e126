package storage

import (
	"context"

	"linkwise/internal/domain"
)

// LinkRepository defines the storage operations the link backend needs.
// This allows us to swap storage implementations (BadgerDB, PostgreSQL)
// without changing the services that use it.
type LinkRepository interface {
	// SaveLink stores a new link or replaces an existing one with the same ID.
	SaveLink(ctx context.Context, link domain.Link) error

	// GetLinksByUser retrieves all links saved by a user, newest first.
	GetLinksByUser(ctx context.Context, userID string) ([]domain.Link, error)

	// GetLink returns one link by ID. domain.ErrNotFound if it does not exist.
	GetLink(ctx context.Context, linkID string) (domain.Link, error)

	// DeleteLink removes a link. Deleting a missing link is not an error.
	DeleteLink(ctx context.Context, linkID string) error
}

// UserRepository stores identity service accounts.
type UserRepository interface {
	// CreateUser inserts a user. domain.ErrConflict if the email is taken.
	CreateUser(ctx context.Context, user domain.User) error

	// GetUserByEmail looks a user up by lowercased email. domain.ErrNotFound if absent.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

// Repository is everything `linkwise serve` persists.
type Repository interface {
	LinkRepository
	UserRepository

	// Close gracefully shuts down the repository connection.
	Close() error
}
