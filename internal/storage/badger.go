package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"linkwise/internal/domain"
)

// BadgerRepository implements Repository using BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger
}

var _ Repository = (*BadgerRepository)(nil)

// NewBadgerRepository opens the database at dbPath.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.Info("BadgerDB opened successfully at path: ", dbPath)

	return &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
	}, nil
}

// Close closes the BadgerDB database connection.
func (r *BadgerRepository) Close() error {
	r.log.Info("Closing BadgerDB...")
	err := r.db.Close()
	if err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Info("BadgerDB closed.")
	return nil
}

// RunGC reclaims value log space. badger.ErrNoRewrite means there was nothing to do.
func (r *BadgerRepository) RunGC(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.db.RunValueLogGC(0.7)
		if errors.Is(err, badger.ErrNoRewrite) {
			r.log.Debug("BadgerDB GC: No rewrite needed")
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger value log gc: %w", err)
		}
	}
}

// Key layout:
//
//	link:{linkID}            -> link JSON
//	user:{userID}:link:{id}  -> empty, per-user index
//	account:{userID}         -> user JSON
//	email:{email}            -> userID
func linkKey(linkID string) []byte {
	return []byte("link:" + linkID)
}

func userLinkKey(userID, linkID string) []byte {
	return []byte(fmt.Sprintf("user:%s:link:%s", userID, linkID))
}

func userLinkPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("user:%s:link:", userID))
}

func accountKey(userID string) []byte {
	return []byte("account:" + userID)
}

func emailKey(email string) []byte {
	return []byte("email:" + strings.ToLower(email))
}

// storedLink is the on-disk form; domain.Link hides UserID from JSON.
type storedLink struct {
	domain.Link
	Owner string `json:"userId"`
}

type storedUser struct {
	domain.User
	Hash string `json:"passwordHash"`
}

// SaveLink stores or replaces a link.
func (r *BadgerRepository) SaveLink(ctx context.Context, link domain.Link) error {
	log := r.log.WithFields(logrus.Fields{
		"user_id": link.UserID,
		"link_id": link.ID,
	})
	log.Debug("Attempting to save link")

	if link.ID == "" || link.UserID == "" {
		return fmt.Errorf("save link: id and user id are required: %w", domain.ErrInvalid)
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	linkBytes, err := json.Marshal(storedLink{Link: link, Owner: link.UserID})
	if err != nil {
		log.WithError(err).Error("Failed to marshal link to JSON")
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(linkKey(link.ID), linkBytes); err != nil {
			return err
		}
		return txn.Set(userLinkKey(link.UserID, link.ID), nil)
	})
	if err != nil {
		log.WithError(err).Error("Failed to save link to BadgerDB")
		return fmt.Errorf("failed to save link: %w", err)
	}

	log.Info("Link saved successfully")
	return nil
}

func readLink(txn *badger.Txn, linkID string) (domain.Link, error) {
	item, err := txn.Get(linkKey(linkID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Link{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Link{}, err
	}
	var stored storedLink
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &stored)
	})
	if err != nil {
		return domain.Link{}, fmt.Errorf("failed to unmarshal link %s: %w", linkID, err)
	}
	link := stored.Link
	link.UserID = stored.Owner
	return link, nil
}

// GetLinksByUser retrieves all links for a user, newest first.
func (r *BadgerRepository) GetLinksByUser(ctx context.Context, userID string) ([]domain.Link, error) {
	log := r.log.WithField("user_id", userID)
	log.Debug("Attempting to get links for user")

	links := []domain.Link{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := userLinkPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			linkID := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			link, err := readLink(txn, linkID)
			if errors.Is(err, domain.ErrNotFound) {
				log.WithField("link_id", linkID).Warn("Dangling link index entry")
				continue
			}
			if err != nil {
				return err
			}
			links = append(links, link)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to retrieve links from BadgerDB")
		return nil, fmt.Errorf("failed to get links for user %s: %w", userID, err)
	}

	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	log.WithField("link_count", len(links)).Debug("Links retrieved successfully")
	return links, nil
}

// GetLink returns a single link.
func (r *BadgerRepository) GetLink(ctx context.Context, linkID string) (domain.Link, error) {
	var link domain.Link
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		link, err = readLink(txn, linkID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Link{}, err
		}
		return domain.Link{}, fmt.Errorf("failed to get link %s: %w", linkID, err)
	}
	return link, nil
}

// DeleteLink removes a link and its index entry.
func (r *BadgerRepository) DeleteLink(ctx context.Context, linkID string) error {
	log := r.log.WithField("link_id", linkID)
	log.Debug("Attempting to delete link")

	err := r.db.Update(func(txn *badger.Txn) error {
		link, err := readLink(txn, linkID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete(userLinkKey(link.UserID, linkID)); err != nil {
			return err
		}
		return txn.Delete(linkKey(linkID))
	})
	if err != nil {
		log.WithError(err).Error("Failed to delete link from BadgerDB")
		return fmt.Errorf("failed to delete link %s: %w", linkID, err)
	}

	log.Info("Link deleted successfully")
	return nil
}

// CreateUser stores a new account, claiming its email atomically.
func (r *BadgerRepository) CreateUser(ctx context.Context, user domain.User) error {
	log := r.log.WithField("user_id", user.ID)

	userBytes, err := json.Marshal(storedUser{User: user, Hash: user.PasswordHash})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(emailKey(user.Email))
		if err == nil {
			return domain.ErrConflict
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(emailKey(user.Email), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(accountKey(user.ID), userBytes)
	})
	if errors.Is(err, domain.ErrConflict) {
		return err
	}
	if err != nil {
		log.WithError(err).Error("Failed to save user to BadgerDB")
		return fmt.Errorf("failed to create user: %w", err)
	}
	log.Info("User created")
	return nil
}

// GetUserByEmail resolves the email index and loads the account.
func (r *BadgerRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		userID, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(accountKey(string(userID)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var stored storedUser
			if err := json.Unmarshal(val, &stored); err != nil {
				return err
			}
			user = stored.User
			user.PasswordHash = stored.Hash
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
