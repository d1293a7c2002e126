package token

import (
	"fmt"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager([]byte("secret"), time.Hour)

	signed, expires, err := m.Issue("user-1", "a@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	signed, _, err := NewManager([]byte("one"), time.Hour).Issue("u", "e")
	require.NoError(t, err)

	_, err = NewManager([]byte("two"), time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager([]byte("two"), time.Hour).Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager([]byte("secret"), time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	signed, _, err := m.Issue("u", "e")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Revoke(t *testing.T) {
	m := NewManager([]byte("secret"), time.Hour)
	signed, _, err := m.Issue("u", "e")
	require.NoError(t, err)
	claims, err := m.Parse(signed)
	require.NoError(t, err)

	m.Revoke(claims)
	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestManager_RevocationSurvivesManySignOuts(t *testing.T) {
	m := NewManager([]byte("secret"), time.Hour)
	signed, _, err := m.Issue("u", "e")
	require.NoError(t, err)
	first, err := m.Parse(signed)
	require.NoError(t, err)
	m.Revoke(first)

	for i := 0; i < 20000; i++ {
		m.Revoke(&Claims{RegisteredClaims: jwtlib.RegisteredClaims{ID: fmt.Sprintf("other-%d", i)}})
	}

	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrRevoked, "older revocations must not be evicted")
}
