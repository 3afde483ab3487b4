package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

// profileUpdateRequest enumerates every field an onboarding edit may carry.
// Pointer fields distinguish "omitted" from "set"; the variant tables in
// models.go decide what values are accepted. Unknown values never reach
// storage or the scorer.
type profileUpdateRequest struct {
	HousingType        *string       `json:"housingType"`
	PreferredAreas     *[]string     `json:"preferredAreas"`
	BudgetMin          *int          `json:"budgetMin"`
	BudgetMax          *int          `json:"budgetMax"`
	LeaseDuration      *string       `json:"leaseDuration"`
	MoveInDate         *string       `json:"moveInDate"`
	SleepSchedule      *string       `json:"sleepSchedule"`
	CleanlinessLevel   *int          `json:"cleanlinessLevel"`
	GuestsFrequency    *string       `json:"guestsFrequency"`
	StudyEnvironment   *string       `json:"studyEnvironment"`
	NoiseTolerance     *string       `json:"noiseTolerance"`
	SmokingStance      *string       `json:"smokingStance"`
	DrinkingStance     *string       `json:"drinkingStance"`
	PetsStance         *string       `json:"petsStance"`
	IntrovertExtrovert *int          `json:"introvertExtrovert"`
	SocialHabits       *string       `json:"socialHabits"`
	ConflictStyle      *string       `json:"conflictStyle"`
	SharedActivities   *[]string     `json:"sharedActivities"`
	Bio                *string       `json:"bio"`
	Tags               *[]string     `json:"tags"`
	Preferences        *[]Preference `json:"preferences"`
}

// validateProfileUpdate returns an error code for the first rejected field,
// or "" when the update is acceptable.
func validateProfileUpdate(req *profileUpdateRequest) string {
	enumChecks := []struct {
		field string
		value *string
	}{
		{"housing_type", req.HousingType},
		{"lease_duration", req.LeaseDuration},
		{"sleep_schedule", req.SleepSchedule},
		{"guests_frequency", req.GuestsFrequency},
		{"study_environment", req.StudyEnvironment},
		{"noise_tolerance", req.NoiseTolerance},
		{"smoking_stance", req.SmokingStance},
		{"drinking_stance", req.DrinkingStance},
		{"pets_stance", req.PetsStance},
		{"social_habits", req.SocialHabits},
		{"conflict_style", req.ConflictStyle},
	}
	for _, check := range enumChecks {
		if check.value != nil && !isEnumVariant(check.field, *check.value) {
			return "invalid_" + check.field
		}
	}

	if req.BudgetMin != nil && *req.BudgetMin < 0 {
		return "invalid_budget_min"
	}
	if req.BudgetMax != nil && *req.BudgetMax < 0 {
		return "invalid_budget_max"
	}
	if req.CleanlinessLevel != nil && (*req.CleanlinessLevel < 1 || *req.CleanlinessLevel > 5) {
		return "invalid_cleanliness_level"
	}
	if req.IntrovertExtrovert != nil && (*req.IntrovertExtrovert < 1 || *req.IntrovertExtrovert > 10) {
		return "invalid_introvert_extrovert"
	}

	if req.Preferences != nil {
		seen := map[string]bool{}
		for _, pref := range *req.Preferences {
			if !isPrefCategory(pref.Category) {
				return "invalid_preference_category"
			}
			if seen[pref.Category] {
				return "duplicate_preference_category"
			}
			seen[pref.Category] = true
			if pref.Strength < 1 || pref.Strength > 10 {
				return "invalid_preference_strength"
			}
		}
	}
	return ""
}

// GET /me
func meHandler(store *pgStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(string)
		profile, err := store.ProfileWithPreferences(r.Context(), userID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":                 userID,
			"email":              profile.Email,
			"onboardingComplete": profile.OnboardingComplete,
		})
	})
}

// GET + PATCH /me/profile
func meProfileHandler(store *pgStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			getMyProfile(store, w, r)
		case http.MethodPatch:
			patchMyProfile(store, w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}

func getMyProfile(store *pgStore, w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)
	profile, err := store.ProfileWithPreferences(r.Context(), userID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		log.Println("getMyProfile error:", err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(profile))
}

func patchMyProfile(store *pgStore, w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if code := validateProfileUpdate(&req); code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}

	profile, err := store.ProfileWithPreferences(r.Context(), userID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		log.Println("patchMyProfile load error:", err)
		return
	}

	applyProfileUpdate(profile, &req)
	if profile.BudgetMin != nil && profile.BudgetMax != nil && *profile.BudgetMin > *profile.BudgetMax {
		writeError(w, http.StatusBadRequest, "invalid_budget_range")
		return
	}

	if err := store.SaveProfile(r.Context(), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "profile_save_error")
		log.Println("Error saving profile:", err)
		return
	}
	if req.Preferences != nil {
		// Replace-all semantics: the submitted set is the new truth.
		if err := store.ReplacePreferences(r.Context(), profile.ID, *req.Preferences); err != nil {
			writeError(w, http.StatusInternalServerError, "profile_save_error")
			log.Println("Error saving preferences:", err)
			return
		}
		profile.Preferences = *req.Preferences
	}

	writeJSON(w, http.StatusOK, profileResponse(profile))
}

func applyProfileUpdate(p *Profile, req *profileUpdateRequest) {
	if req.HousingType != nil {
		p.HousingType = *req.HousingType
	}
	if req.PreferredAreas != nil {
		p.PreferredAreas = *req.PreferredAreas
	}
	if req.BudgetMin != nil {
		p.BudgetMin = req.BudgetMin
	}
	if req.BudgetMax != nil {
		p.BudgetMax = req.BudgetMax
	}
	if req.LeaseDuration != nil {
		p.LeaseDuration = *req.LeaseDuration
	}
	if req.MoveInDate != nil {
		// Accept RFC3339 or plain dates; anything else is ignored.
		if t, err := time.Parse(time.RFC3339, *req.MoveInDate); err == nil {
			p.MoveInDate = &t
		} else if t, err := time.Parse("2006-01-02", *req.MoveInDate); err == nil {
			p.MoveInDate = &t
		}
	}
	if req.SleepSchedule != nil {
		p.SleepSchedule = *req.SleepSchedule
	}
	if req.CleanlinessLevel != nil {
		p.CleanlinessLevel = req.CleanlinessLevel
	}
	if req.GuestsFrequency != nil {
		p.GuestsFrequency = *req.GuestsFrequency
	}
	if req.StudyEnvironment != nil {
		p.StudyEnvironment = *req.StudyEnvironment
	}
	if req.NoiseTolerance != nil {
		p.NoiseTolerance = *req.NoiseTolerance
	}
	if req.SmokingStance != nil {
		p.SmokingStance = *req.SmokingStance
	}
	if req.DrinkingStance != nil {
		p.DrinkingStance = *req.DrinkingStance
	}
	if req.PetsStance != nil {
		p.PetsStance = *req.PetsStance
	}
	if req.IntrovertExtrovert != nil {
		p.IntrovertExtrovert = req.IntrovertExtrovert
	}
	if req.SocialHabits != nil {
		p.SocialHabits = *req.SocialHabits
	}
	if req.ConflictStyle != nil {
		p.ConflictStyle = *req.ConflictStyle
	}
	if req.SharedActivities != nil {
		p.SharedActivities = *req.SharedActivities
	}
	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
	}
}

// POST /me/profile/complete
func completeOnboardingHandler(store *pgStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPatch {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(string)
		if err := store.SetOnboardingComplete(r.Context(), userID); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "profile_not_found")
				return
			}
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("completeOnboardingHandler error:", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"onboardingComplete": true})
	})
}

func profileResponse(p *Profile) map[string]interface{} {
	resp := map[string]interface{}{
		"userId":             p.UserID,
		"email":              p.Email,
		"housingType":        p.HousingType,
		"preferredAreas":     p.PreferredAreas,
		"budgetMin":          p.BudgetMin,
		"budgetMax":          p.BudgetMax,
		"leaseDuration":      p.LeaseDuration,
		"sleepSchedule":      p.SleepSchedule,
		"cleanlinessLevel":   p.CleanlinessLevel,
		"guestsFrequency":    p.GuestsFrequency,
		"studyEnvironment":   p.StudyEnvironment,
		"noiseTolerance":     p.NoiseTolerance,
		"smokingStance":      p.SmokingStance,
		"drinkingStance":     p.DrinkingStance,
		"petsStance":         p.PetsStance,
		"introvertExtrovert": p.IntrovertExtrovert,
		"socialHabits":       p.SocialHabits,
		"conflictStyle":      p.ConflictStyle,
		"sharedActivities":   p.SharedActivities,
		"bio":                p.Bio,
		"tags":               p.Tags,
		"onboardingComplete": p.OnboardingComplete,
		"preferences":        p.Preferences,
	}
	if p.MoveInDate != nil {
		resp["moveInDate"] = p.MoveInDate.Format(time.RFC3339)
	}
	return resp
}
