package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"linkwise/internal/ai"
	"linkwise/internal/domain"
	"linkwise/internal/scraper"
	"linkwise/internal/storage"
)

// ErrExtractFailed is returned when the page could not be fetched or was refused.
var ErrExtractFailed = errors.New("failed to extract article content")

// LinkService implements the link backend operations for an authenticated user.
type LinkService struct {
	repo       storage.LinkRepository
	extractor  scraper.Extractor
	summarizer ai.Summarizer
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewLinkService(repo storage.LinkRepository, extractor scraper.Extractor, summarizer ai.Summarizer, logger logrus.FieldLogger) *LinkService {
	return &LinkService{
		repo:       repo,
		extractor:  extractor,
		summarizer: summarizer,
		log:        logger.WithField("component", "link_service"),
		now:        time.Now,
	}
}

func (s *LinkService) List(ctx context.Context, userID string) ([]domain.Link, error) {
	return s.repo.GetLinksByUser(ctx, userID)
}

// Create extracts the article, summarizes it and stores the link.
func (s *LinkService) Create(ctx context.Context, userID, rawURL string) (domain.Link, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return domain.Link{}, fmt.Errorf("url required: %w", domain.ErrInvalid)
	}
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "url": rawURL})

	article, err := s.extractor.Extract(ctx, rawURL)
	if err != nil {
		log.WithError(err).Warn("Article extraction failed")
		return domain.Link{}, fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}

	summary, err := s.summarizer.Summarize(ctx, article.Title, article.Content)
	if err != nil {
		log.WithError(err).Warn("Summarizer failed, using fallback")
		summary = ai.Fallback(article.Title)
	}

	link := domain.Link{
		ID:        uuid.NewString(),
		UserID:    userID,
		URL:       rawURL,
		Title:     article.Title,
		Summary:   summary.Summary,
		Tags:      summary.Tags,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.SaveLink(ctx, link); err != nil {
		return domain.Link{}, err
	}
	log.WithField("link_id", link.ID).Info("Link created")
	return link, nil
}

// Delete removes a link owned by userID. Links of other users look like missing ones.
func (s *LinkService) Delete(ctx context.Context, userID, linkID string) error {
	link, err := s.repo.GetLink(ctx, linkID)
	if err != nil {
		return err
	}
	if link.UserID != userID {
		s.log.WithFields(logrus.Fields{"user_id": userID, "link_id": linkID}).Warn("Delete of foreign link refused")
		return domain.ErrNotFound
	}
	return s.repo.DeleteLink(ctx, linkID)
}
