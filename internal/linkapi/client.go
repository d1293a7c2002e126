// Package linkapi talks to the Linkwise backend over HTTP.
package linkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"linkwise/internal/domain"
)

// APIError is a response the backend answered without success.
// Message is the backend's error text and may be empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("linkwise api: status %d", e.Status)
	}
	return fmt.Sprintf("linkwise api: status %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Links   []domain.Link `json:"links"`
	Link    *domain.Link  `json:"link"`
}

// Client calls the link endpoints. It applies no timeout of its own; pass an http.Client
// with one if needed.
type Client struct {
	base string
	http *http.Client
	log  logrus.FieldLogger
}

func NewClient(baseURL string, httpClient *http.Client, logger logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
		log:  logger.WithField("component", "linkapi"),
	}
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path})
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.WithField("status", resp.StatusCode).Warn("response is not JSON")
		return &APIError{Status: resp.StatusCode}
	}
	if resp.StatusCode/100 != 2 || !env.Success {
		log.WithFields(logrus.Fields{"status": resp.StatusCode, "error": env.Error}).Debug("request rejected")
		return &APIError{Status: resp.StatusCode, Message: env.Error}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// ListLinks fetches the full collection for the token's user, in backend order.
func (c *Client) ListLinks(ctx context.Context, token string) ([]domain.Link, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/api/links", token, nil, &env); err != nil {
		return nil, err
	}
	if env.Links == nil {
		env.Links = []domain.Link{}
	}
	return env.Links, nil
}

// CreateLink asks the backend to save url.
func (c *Client) CreateLink(ctx context.Context, token, rawURL string) (domain.Link, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/links", token, map[string]string{"url": rawURL}, &env); err != nil {
		return domain.Link{}, err
	}
	if env.Link == nil {
		return domain.Link{}, nil
	}
	return *env.Link, nil
}

func (c *Client) DeleteLink(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/links/"+url.PathEscape(id), token, nil, nil)
}
