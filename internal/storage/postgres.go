package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"linkwise/internal/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS links (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	url        TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	tags       TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS links_user_created_idx ON links (user_id, created_at DESC);
`

// PostgresRepository implements Repository on PostgreSQL via sqlx.
type PostgresRepository struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

var _ Repository = (*PostgresRepository)(nil)

type linkRow struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	URL       string         `db:"url"`
	Title     string         `db:"title"`
	Summary   string         `db:"summary"`
	Tags      pq.StringArray `db:"tags"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r linkRow) toDomain() domain.Link {
	return domain.Link{
		ID:        r.ID,
		UserID:    r.UserID,
		URL:       r.URL,
		Title:     r.Title,
		Summary:   r.Summary,
		Tags:      []string(r.Tags),
		CreatedAt: r.CreatedAt,
	}
}

// newLinkRow converts a link for writing. Nil tags become an empty array so the NOT NULL
// column accepts them.
func newLinkRow(link domain.Link) linkRow {
	tags := pq.StringArray(link.Tags)
	if tags == nil {
		tags = pq.StringArray{}
	}
	return linkRow{
		ID: link.ID, UserID: link.UserID, URL: link.URL, Title: link.Title,
		Summary: link.Summary, Tags: tags, CreatedAt: link.CreatedAt,
	}
}

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// NewPostgresRepository connects and makes sure the schema exists.
func NewPostgresRepository(ctx context.Context, dsn string, logger logrus.FieldLogger) (*PostgresRepository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to PostgreSQL")
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply postgres schema: %w", err)
	}
	logger.Info("PostgreSQL connected")
	return &PostgresRepository{db: db, log: logger.WithField("component", "repository")}, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) SaveLink(ctx context.Context, link domain.Link) error {
	if link.ID == "" || link.UserID == "" {
		return fmt.Errorf("save link: id and user id are required: %w", domain.ErrInvalid)
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO links (id, user_id, url, title, summary, tags, created_at)
		VALUES (:id, :user_id, :url, :title, :summary, :tags, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url, title = EXCLUDED.title, summary = EXCLUDED.summary,
			tags = EXCLUDED.tags, created_at = EXCLUDED.created_at`,
		newLinkRow(link))
	if err != nil {
		r.log.WithError(err).WithField("link_id", link.ID).Error("Failed to save link")
		return fmt.Errorf("failed to save link: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetLinksByUser(ctx context.Context, userID string) ([]domain.Link, error) {
	var rows []linkRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, user_id, url, title, summary, tags, created_at FROM links WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links for user %s: %w", userID, err)
	}
	links := make([]domain.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, row.toDomain())
	}
	return links, nil
}

func (r *PostgresRepository) GetLink(ctx context.Context, linkID string) (domain.Link, error) {
	var row linkRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, user_id, url, title, summary, tags, created_at FROM links WHERE id = $1`, linkID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Link{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Link{}, fmt.Errorf("failed to get link %s: %w", linkID, err)
	}
	return row.toDomain(), nil
}

func (r *PostgresRepository) DeleteLink(ctx context.Context, linkID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1`, linkID); err != nil {
		return fmt.Errorf("failed to delete link %s: %w", linkID, err)
	}
	return nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user domain.User) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (:id, :email, :password_hash, :created_at)`,
		userRow{ID: user.ID, Email: strings.ToLower(user.Email), PasswordHash: user.PasswordHash, CreatedAt: user.CreatedAt})
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return domain.User{ID: row.ID, Email: row.Email, PasswordHash: row.PasswordHash, CreatedAt: row.CreatedAt}, nil
}
