package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

// ============================================================================
// PROFILE VALIDATION TEST SUITE
// ============================================================================

func TestProfileValidationSuite(t *testing.T) {
	t.Run("Empty Update Is Valid", func(t *testing.T) {
		assert.Equal(t, "", validateProfileUpdate(&profileUpdateRequest{}))
	})

	t.Run("Enum Fields", func(t *testing.T) {
		tests := []struct {
			name string
			req  profileUpdateRequest
			code string
		}{
			{"valid housing", profileUpdateRequest{HousingType: strPtr("ON_CAMPUS")}, ""},
			{"bad housing", profileUpdateRequest{HousingType: strPtr("castle")}, "invalid_housing_type"},
			{"valid sleep", profileUpdateRequest{SleepSchedule: strPtr("NIGHT_OWL")}, ""},
			{"bad sleep", profileUpdateRequest{SleepSchedule: strPtr("nocturnal")}, "invalid_sleep_schedule"},
			{"bad smoking", profileUpdateRequest{SmokingStance: strPtr("sometimes")}, "invalid_smoking_stance"},
			{"bad conflict style", profileUpdateRequest{ConflictStyle: strPtr("loud")}, "invalid_conflict_style"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.code, validateProfileUpdate(&tt.req))
			})
		}
	})

	t.Run("Numeric Ranges", func(t *testing.T) {
		assert.Equal(t, "invalid_budget_min", validateProfileUpdate(&profileUpdateRequest{BudgetMin: intPtr(-1)}))
		assert.Equal(t, "invalid_cleanliness_level", validateProfileUpdate(&profileUpdateRequest{CleanlinessLevel: intPtr(0)}))
		assert.Equal(t, "invalid_cleanliness_level", validateProfileUpdate(&profileUpdateRequest{CleanlinessLevel: intPtr(6)}))
		assert.Equal(t, "", validateProfileUpdate(&profileUpdateRequest{CleanlinessLevel: intPtr(3)}))
		assert.Equal(t, "invalid_introvert_extrovert", validateProfileUpdate(&profileUpdateRequest{IntrovertExtrovert: intPtr(11)}))
	})

	t.Run("Preferences", func(t *testing.T) {
		bad := profileUpdateRequest{Preferences: &[]Preference{
			{Category: "ASTROLOGY", Strength: 5},
		}}
		assert.Equal(t, "invalid_preference_category", validateProfileUpdate(&bad))

		dup := profileUpdateRequest{Preferences: &[]Preference{
			{Category: "PETS", Strength: 5},
			{Category: "PETS", Strength: 7},
		}}
		assert.Equal(t, "duplicate_preference_category", validateProfileUpdate(&dup))

		weak := profileUpdateRequest{Preferences: &[]Preference{
			{Category: "PETS", Strength: 0},
		}}
		assert.Equal(t, "invalid_preference_strength", validateProfileUpdate(&weak))

		ok := profileUpdateRequest{Preferences: &[]Preference{
			{Category: "PETS", Value: "no_pets", Strength: 10, Dealbreaker: true},
			{Category: "BUDGET", Strength: 6},
		}}
		assert.Equal(t, "", validateProfileUpdate(&ok))
	})
}

func TestApplyProfileUpdate(t *testing.T) {
	t.Run("Only Provided Fields Change", func(t *testing.T) {
		p := &Profile{
			UserID:      "u",
			HousingType: "ON_CAMPUS",
			Bio:         "old bio",
			BudgetMin:   intPtr(500),
		}
		applyProfileUpdate(p, &profileUpdateRequest{Bio: strPtr("new bio")})

		assert.Equal(t, "new bio", p.Bio)
		assert.Equal(t, "ON_CAMPUS", p.HousingType)
		assert.Equal(t, 500, *p.BudgetMin)
	})

	t.Run("Move In Date Parsing", func(t *testing.T) {
		p := &Profile{UserID: "u"}
		applyProfileUpdate(p, &profileUpdateRequest{MoveInDate: strPtr("2026-09-01")})
		if assert.NotNil(t, p.MoveInDate) {
			assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), *p.MoveInDate)
		}

		// Unparseable dates leave the field alone.
		q := &Profile{UserID: "u"}
		applyProfileUpdate(q, &profileUpdateRequest{MoveInDate: strPtr("next fall")})
		assert.Nil(t, q.MoveInDate)
	})

	t.Run("Sets Can Be Cleared", func(t *testing.T) {
		p := &Profile{UserID: "u", Tags: []string{"gamer"}}
		applyProfileUpdate(p, &profileUpdateRequest{Tags: &[]string{}})
		assert.Empty(t, p.Tags)
	})
}
