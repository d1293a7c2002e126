package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkwise/internal/token"
)

type verifierFunc func(bearer string) (*token.Claims, error)

func (f verifierFunc) Verify(bearer string) (*token.Claims, error) { return f(bearer) }

func authEngine(v TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", BearerAuth(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c)})
	})
	return r
}

func get(t *testing.T, r http.Handler, authorization string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestBearerAuth(t *testing.T) {
	r := authEngine(verifierFunc(func(bearer string) (*token.Claims, error) {
		if bearer == "good" {
			return &token.Claims{UserID: "u1"}, nil
		}
		return nil, fmt.Errorf("%w: token has invalid claims: token is expired", token.ErrInvalidToken)
	}))

	code, out := get(t, r, "Bearer good")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u1", out["user"])

	code, out = get(t, r, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Missing or invalid Authorization header", out["error"])

	code, out = get(t, r, "Basic Zm9vOmJhcg==")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Missing or invalid Authorization header", out["error"])
}

func TestBearerAuth_HidesVerifierDetail(t *testing.T) {
	for _, cause := range []error{
		fmt.Errorf("%w: token is malformed: could not base64 decode header", token.ErrInvalidToken),
		token.ErrRevoked,
		errors.New("unexpected signing method"),
	} {
		r := authEngine(verifierFunc(func(string) (*token.Claims, error) { return nil, cause }))

		code, out := get(t, r, "Bearer whatever")
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Session expired", out["error"])
		assert.Equal(t, false, out["success"])
		assert.NotContains(t, fmt.Sprint(out), "base64")
	}
}
