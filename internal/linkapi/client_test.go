package linkapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkwise/internal/domain"
	"linkwise/internal/session"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(srv.URL+"/", srv.Client(), logger)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ListLinks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/links", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]interface{}{
			"success": true,
			"links": []map[string]interface{}{
				{"id": "2", "url": "https://b.example", "title": "B", "summary": "", "tags": []string{"x"}, "createdAt": "2026-10-17T10:00:00Z"},
				{"id": "1", "url": "https://a.example", "title": "A", "summary": "", "tags": []string{}, "createdAt": nil},
			},
		})
	})

	links, err := c.ListLinks(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "2", links[0].ID, "backend order is kept")
	assert.Equal(t, time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC), links[0].CreatedAt)
	assert.True(t, links[1].CreatedAt.IsZero())
}

func TestClient_ErrorShapes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/api/links":
			writeJSON(w, 400, map[string]interface{}{"error": "Failed to extract article content"})
		case "/api/links/a%2Fb":
			writeJSON(w, 200, map[string]interface{}{"success": false})
		default:
			w.WriteHeader(502)
			_, _ = io.WriteString(w, "<html>bad gateway</html>")
		}
	})
	ctx := context.Background()

	_, err := c.CreateLink(ctx, "tok", "https://example.com")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Failed to extract article content", apiErr.Message)

	err = c.DeleteLink(ctx, "tok", "a/b")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 200, apiErr.Status)
	assert.Empty(t, apiErr.Message)

	err = c.do(ctx, http.MethodGet, "/elsewhere", "", nil, nil)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 502, apiErr.Status)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c := NewClient(srv.URL, nil, logger)

	_, err := c.ListLinks(context.Background(), "tok")
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestIdentity(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	var signedOut string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/api/auth/signin":
			if body["password"] != "secret1" {
				writeJSON(w, 401, map[string]interface{}{"error": "Invalid email or password"})
				return
			}
			fallthrough
		case "/api/auth/signup":
			writeJSON(w, 200, map[string]interface{}{
				"success": true, "token": "tok-1", "expiresAt": expires,
				"user": map[string]string{"id": "u1", "email": body["email"]},
			})
		case "/api/auth/signout":
			signedOut = r.Header.Get("Authorization")
			writeJSON(w, 200, map[string]interface{}{"success": true})
		}
	})
	id := NewIdentity(c)
	ctx := context.Background()

	_, err := id.SignIn(ctx, "a@example.com", "nope")
	require.Error(t, err)
	assert.True(t, domain.IsAuth(err))
	assert.Equal(t, "Invalid email or password", domain.Message(err))

	user, err := id.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "a@example.com", user.Email)
	tok, err := user.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	require.NoError(t, id.SignOut(ctx, user))
	assert.Equal(t, "Bearer tok-1", signedOut)

	expired := session.NewUser("u1", "a@example.com", session.StaticToken{Value: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	signedOut = ""
	require.NoError(t, id.SignOut(ctx, expired))
	assert.Empty(t, signedOut, "expired sessions are not sent")
}
