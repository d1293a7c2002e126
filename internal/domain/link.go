package domain

import (
	"net/url"
	"strings"
	"time"
)

// Link represents a saved bookmark as issued by the link backend.
type Link struct {
	// ID is assigned by the backend and stays stable for the link's lifetime.
	ID string `json:"id"`

	// URL is the absolute address the user submitted.
	URL string `json:"url"`

	// Title is taken from the page's <title> tag, or the URL when none was found.
	Title string `json:"title"`

	// Summary is the AI generated synopsis of the article.
	Summary string `json:"summary"`

	// Tags is the ordered list of short labels for the link.
	Tags []string `json:"tags"`

	// CreatedAt is when the backend stored the link.
	CreatedAt time.Time `json:"createdAt"`

	// UserID is the owner. Never sent to clients.
	UserID string `json:"-"`
}

// ValidateURL reports whether raw is an absolute URI the backend can be asked to save.
// It returns a ValidationError describing the problem otherwise.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NewValidationError("Please enter a URL")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return NewValidationError("Please enter a valid URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return NewValidationError("Please enter a valid URL")
		}
	default:
		if u.Opaque == "" && u.Host == "" && u.Path == "" {
			return NewValidationError("Please enter a valid URL")
		}
	}
	return nil
}
