package main

import "time"

// Profile holds everything the scorer and ranker need about one user:
// housing/budget fields, lifestyle enums and the preference rows attached
// to the profile. Email is joined in from users for response payloads.
type Profile struct {
	ID                 string
	UserID             string
	Email              string
	HousingType        string
	PreferredAreas     []string
	BudgetMin          *int
	BudgetMax          *int
	LeaseDuration      string
	MoveInDate         *time.Time
	SleepSchedule      string
	CleanlinessLevel   *int
	GuestsFrequency    string
	StudyEnvironment   string
	NoiseTolerance     string
	SmokingStance      string
	DrinkingStance     string
	PetsStance         string
	IntrovertExtrovert *int
	SocialHabits       string
	ConflictStyle      string
	SharedActivities   []string
	Bio                string
	Tags               []string
	OnboardingComplete bool
	Preferences        []Preference
}

// Preference is one weighted preference row, unique per (profile, category).
// Profile edits replace the whole set; rows are never mutated in place.
type Preference struct {
	Category    string `json:"category"`
	Value       string `json:"value"`
	Strength    int    `json:"strength"`
	Dealbreaker bool   `json:"dealbreaker"`
}

// Match is the canonical undirected pairing: UserAID < UserBID always,
// enforced by the store's unique index.
type Match struct {
	ID        string    `json:"id"`
	UserAID   string    `json:"userAId"`
	UserBID   string    `json:"userBId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CompatibilityResult is the scorer output for one profile pair.
type CompatibilityResult struct {
	Score              int      `json:"score"`
	PassedDealbreakers bool     `json:"passedDealbreakers"`
	Explanation        []string `json:"explanation"`
}

// Preference categories the scorer evaluates, in evaluation order.
var prefCategories = []string{
	"CLEANLINESS",
	"SLEEP_SCHEDULE",
	"GUESTS",
	"NOISE_TOLERANCE",
	"SMOKING",
	"PETS",
	"BUDGET",
}

// Accepted variants for every enum field an onboarding update may carry.
// Anything outside these sets is rejected at the boundary, so the core
// never sees an unknown value.
var profileEnumVariants = map[string][]string{
	"housing_type":      {"ON_CAMPUS", "OFF_CAMPUS"},
	"lease_duration":    {"6_MONTHS", "9_MONTHS", "12_MONTHS"},
	"sleep_schedule":    {"EARLY_BIRD", "NIGHT_OWL", "FLEXIBLE"},
	"guests_frequency":  {"RARELY", "SOMETIMES", "OFTEN"},
	"study_environment": {"QUIET", "MODERATE", "SOCIAL"},
	"noise_tolerance":   {"LOW", "MEDIUM", "HIGH"},
	"smoking_stance":    {"NO", "OK_OUTSIDE", "OK"},
	"drinking_stance":   {"NO", "OCCASIONAL", "YES"},
	"pets_stance":       {"NO", "YES", "HAVE_PET"},
	"social_habits":     {"HOME_BODY", "BALANCED", "VERY_SOCIAL"},
	"conflict_style":    {"AVOID", "TALK_IT_OUT", "MEDIATE"},
}

func isEnumVariant(field, value string) bool {
	for _, v := range profileEnumVariants[field] {
		if v == value {
			return true
		}
	}
	return false
}

func isPrefCategory(category string) bool {
	for _, c := range prefCategories {
		if c == category {
			return true
		}
	}
	return false
}
