package main

import (
	"errors"
	"log"
	"net/http"
	"strings"
)

// Swipe endpoints. Both are idempotent: a repeated like answers
// {alreadyLiked:true, match:null}, a repeated pass is a silent no-op.

// POST /like/{userId}
func likeHandler(engine *MatchEngine) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		targetID, ok := swipeTarget(w, r, "like")
		if !ok {
			return
		}
		actorID := r.Context().Value(userIDKey).(string)

		result, err := engine.RecordLike(r.Context(), actorID, targetID)
		if !writeSwipeError(w, err) {
			return
		}
		writeJSON(w, http.StatusOK, result)
	})
}

// POST /pass/{userId}
func passHandler(engine *MatchEngine) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		targetID, ok := swipeTarget(w, r, "pass")
		if !ok {
			return
		}
		actorID := r.Context().Value(userIDKey).(string)

		if !writeSwipeError(w, engine.RecordPass(r.Context(), actorID, targetID)) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"pass": true})
	})
}

// swipeTarget validates method and path shape for /like/{id} and
// /pass/{id}, writing the error response itself on failure.
func swipeTarget(w http.ResponseWriter, r *http.Request, action string) (string, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		return "", false
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 || parts[0] != action || parts[1] == "" {
		http.NotFound(w, r)
		return "", false
	}
	return parts[1], true
}

// writeSwipeError maps engine errors onto the response vocabulary and
// reports whether the caller may continue.
func writeSwipeError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrInvalidTarget):
		writeError(w, http.StatusBadRequest, "invalid_target")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		writeError(w, http.StatusInternalServerError, "db_error")
		log.Println("swipe error:", err)
	}
	return false
}
