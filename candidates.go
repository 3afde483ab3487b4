package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
)

// GET /candidates?limit=20
// Returns the ranked, exclusion-aware candidate page for the caller.
// The payload carries score and explanation, never raw preference rows.
func candidatesHandler(ranker *CandidateRanker) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(string)

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n // Rank clamps to its own bounds
			}
		}

		ranked, err := ranker.Rank(r.Context(), userID, limit)
		if errors.Is(err, ErrOnboardingIncomplete) {
			writeError(w, http.StatusForbidden, "incomplete_profile")
			return
		}
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("candidatesHandler rank error:", err)
			return
		}

		payload := make([]map[string]interface{}, 0, len(ranked))
		for _, rc := range ranked {
			payload = append(payload, candidatePayload(rc))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"candidates": payload})
	})
}

func candidatePayload(rc RankedCandidate) map[string]interface{} {
	p := rc.Profile
	return map[string]interface{}{
		"userId":                   p.UserID,
		"email":                    p.Email,
		"bio":                      p.Bio,
		"tags":                     p.Tags,
		"housingType":              p.HousingType,
		"preferredAreas":           p.PreferredAreas,
		"budgetMin":                p.BudgetMin,
		"budgetMax":                p.BudgetMax,
		"sleepSchedule":            p.SleepSchedule,
		"cleanlinessLevel":         p.CleanlinessLevel,
		"compatibilityScore":       rc.Compatibility.Score,
		"compatibilityExplanation": rc.Compatibility.Explanation,
	}
}
