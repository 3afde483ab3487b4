package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TOKEN & MIDDLEWARE TEST SUITE
// ============================================================================

func TestTokenSuite(t *testing.T) {
	t.Run("Issue And Parse Round Trip", func(t *testing.T) {
		token, err := issueToken("user-123")
		require.NoError(t, err)

		id, ok := parseUserIDFromJWT(token)
		require.True(t, ok)
		assert.Equal(t, "user-123", id)
	})

	t.Run("Garbage Token Rejected", func(t *testing.T) {
		_, ok := parseUserIDFromJWT("not.a.token")
		assert.False(t, ok)
	})

	t.Run("Wrong Secret Rejected", func(t *testing.T) {
		other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "user-123"})
		signed, err := other.SignedString([]byte("some-other-secret"))
		require.NoError(t, err)

		_, ok := parseUserIDFromJWT(signed)
		assert.False(t, ok)
	})

	t.Run("Missing user_id Claim Rejected", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-123"})
		signed, err := tok.SignedString(jwtSecret)
		require.NoError(t, err)

		_, ok := parseUserIDFromJWT(signed)
		assert.False(t, ok)
	})
}

func TestAuthenticateMiddleware(t *testing.T) {
	protected := authenticate(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"userId": r.Context().Value(userIDKey).(string),
		})
	})

	t.Run("No Header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		protected(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Valid Bearer Token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected(rec, authedRequest(t, http.MethodGet, "/me", "user-9"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-9", decodeBody(t, rec)["userId"])
	})

	t.Run("Query Token Works For WebSocket Path", func(t *testing.T) {
		token, err := issueToken("user-9")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/ws/chat?token="+token, nil)

		id, ok := getUserIDFromRequest(req)
		require.True(t, ok)
		assert.Equal(t, "user-9", id)
	})
}
