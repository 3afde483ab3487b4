package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Initialize JWT secret for handler tests
func init() {
	jwtSecret = []byte("test-secret-key-for-testing")
}

func authedRequest(t *testing.T, method, target, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	token, err := issueToken(userID)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ============================================================================
// CANDIDATES ENDPOINT TEST SUITE
// ============================================================================

func TestCandidatesHandlerSuite(t *testing.T) {
	t.Run("Rejects Missing Token", func(t *testing.T) {
		handler := candidatesHandler(NewCandidateRanker(newMemStore()))
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/candidates", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Rejects Incomplete Onboarding", func(t *testing.T) {
		store := newMemStore()
		store.AddProfile(&Profile{UserID: "me", OnboardingComplete: false})
		handler := candidatesHandler(NewCandidateRanker(store))

		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, http.MethodGet, "/candidates", "me"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "incomplete_profile", decodeBody(t, rec)["error"])
	})

	t.Run("Unknown User Is 404", func(t *testing.T) {
		handler := candidatesHandler(NewCandidateRanker(newMemStore()))
		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, http.MethodGet, "/candidates", "ghost"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Payload Shape", func(t *testing.T) {
		store := newMemStore()
		store.AddProfile(onboardedProfile("me",
			Preference{Category: "SMOKING", Value: "NO", Strength: 8},
		))
		cand := onboardedProfile("cand",
			Preference{Category: "SMOKING", Value: "NO", Strength: 6},
		)
		cand.Bio = "quiet grad student"
		store.AddProfile(cand)

		handler := candidatesHandler(NewCandidateRanker(store))
		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, http.MethodGet, "/candidates?limit=5", "me"))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		candidates, ok := body["candidates"].([]interface{})
		require.True(t, ok)
		require.Len(t, candidates, 1)

		entry := candidates[0].(map[string]interface{})
		assert.Equal(t, "cand", entry["userId"])
		assert.Equal(t, "quiet grad student", entry["bio"])
		assert.Equal(t, float64(100), entry["compatibilityScore"])
		assert.NotEmpty(t, entry["compatibilityExplanation"])
		// Raw preference rows never leave the server.
		assert.NotContains(t, entry, "preferences")
	})

	t.Run("Rejects Non-GET", func(t *testing.T) {
		handler := candidatesHandler(NewCandidateRanker(newMemStore()))
		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, http.MethodPost, "/candidates", "me"))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

// ============================================================================
// SWIPE ENDPOINTS TEST SUITE
// ============================================================================

func TestSwipeHandlersSuite(t *testing.T) {
	newFixture := func() (*memStore, *MatchEngine) {
		store := newMemStore()
		store.AddUser("alice", "alice@test.local")
		store.AddUser("bob", "bob@test.local")
		return store, NewMatchEngine(store, store, store, newCaptureSink())
	}

	t.Run("Like Returns Swipe Result", func(t *testing.T) {
		_, engine := newFixture()
		rec := httptest.NewRecorder()
		likeHandler(engine)(rec, authedRequest(t, http.MethodPost, "/like/bob", "alice"))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["liked"])
		assert.Equal(t, false, body["alreadyLiked"])
		assert.Nil(t, body["match"])
	})

	t.Run("Repeat Like Reports AlreadyLiked", func(t *testing.T) {
		_, engine := newFixture()
		handler := likeHandler(engine)

		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, http.MethodPost, "/like/bob", "alice"))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		handler(rec, authedRequest(t, http.MethodPost, "/like/bob", "alice"))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["alreadyLiked"])
		assert.Nil(t, body["match"])
	})

	t.Run("Mutual Like Returns Match", func(t *testing.T) {
		_, engine := newFixture()
		handler := likeHandler(engine)

		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, http.MethodPost, "/like/alice", "bob"))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		handler(rec, authedRequest(t, http.MethodPost, "/like/bob", "alice"))
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		match, ok := body["match"].(map[string]interface{})
		require.True(t, ok, "expected match object, got %v", body["match"])
		assert.Equal(t, "alice", match["userAId"])
		assert.Equal(t, "bob", match["userBId"])
	})

	t.Run("Self Like Is invalid_target", func(t *testing.T) {
		_, engine := newFixture()
		rec := httptest.NewRecorder()
		likeHandler(engine)(rec, authedRequest(t, http.MethodPost, "/like/alice", "alice"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_target", decodeBody(t, rec)["error"])
	})

	t.Run("Unknown Target Is 404", func(t *testing.T) {
		_, engine := newFixture()
		rec := httptest.NewRecorder()
		likeHandler(engine)(rec, authedRequest(t, http.MethodPost, "/like/ghost", "alice"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Pass Responds And Stays Silent", func(t *testing.T) {
		store, engine := newFixture()
		handler := passHandler(engine)

		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, http.MethodPost, "/pass/bob", "alice"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["pass"])

		// repeat pass is fine
		rec = httptest.NewRecorder()
		handler(rec, authedRequest(t, http.MethodPost, "/pass/bob", "alice"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, store.MatchCount())
	})

	t.Run("Rejects GET", func(t *testing.T) {
		_, engine := newFixture()
		rec := httptest.NewRecorder()
		likeHandler(engine)(rec, authedRequest(t, http.MethodGet, "/like/bob", "alice"))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("Malformed Path Is 404", func(t *testing.T) {
		_, engine := newFixture()
		rec := httptest.NewRecorder()
		likeHandler(engine)(rec, authedRequest(t, http.MethodPost, "/like/", "alice"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
