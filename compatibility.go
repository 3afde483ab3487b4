package main

import (
	"math"
	"strings"
)

// Compatibility scoring: dealbreaker filter first, then a weighted soft
// score normalized to 0-100. Pure function of the two profiles, no side
// effects, so it can be hammered in tests without any storage behind it.

func prefFor(p *Profile, category string) *Preference {
	for i := range p.Preferences {
		if p.Preferences[i].Category == category {
			return &p.Preferences[i]
		}
	}
	return nil
}

// valuesMatch compares preference values case-insensitively. An empty value
// on either side counts as a match: no opinion recorded means no conflict.
func valuesMatch(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return strings.EqualFold(a, b)
}

// budgetOverlap reports whether two budget ranges intersect. A missing
// bound on either side means "no constraint", which always overlaps.
// Symmetric in its two range arguments.
func budgetOverlap(minA, maxA, minB, maxB *int) bool {
	if minA == nil || maxA == nil || minB == nil || maxB == nil {
		return true
	}
	return !(*maxA < *minB || *maxB < *minA)
}

func dealbreakerExplanation(category string) string {
	return "Dealbreaker: " + strings.ReplaceAll(category, "_", " ") + " mismatch"
}

// scoreCompatibility scores one profile pair.
//
// Dealbreaker pass: a category is checked only when at least one side has
// flagged it. BUDGET compares range overlap; every other category compares
// stored values when both sides have one. A side with no stored value for
// a flagged category is treated as compatible by default -- a strict
// dealbreaker can be bypassed by an opponent with no opinion recorded.
// That is long-standing behaviour the test suite pins down; do not change
// it without migrating stored preferences.
//
// The first incompatible dealbreaker short-circuits: score 0, a single
// explanation entry naming that category, later categories unevaluated.
func scoreCompatibility(a, b *Profile) CompatibilityResult {
	explanation := []string{}

	for _, category := range prefCategories {
		prefA := prefFor(a, category)
		prefB := prefFor(b, category)
		flagged := (prefA != nil && prefA.Dealbreaker) || (prefB != nil && prefB.Dealbreaker)
		if !flagged {
			continue
		}

		compatible := true
		if category == "BUDGET" {
			compatible = budgetOverlap(a.BudgetMin, a.BudgetMax, b.BudgetMin, b.BudgetMax)
		} else if prefA != nil && prefB != nil {
			compatible = valuesMatch(prefA.Value, prefB.Value)
		}
		if !compatible {
			return CompatibilityResult{
				Score:              0,
				PassedDealbreakers: false,
				Explanation:        []string{dealbreakerExplanation(category)},
			}
		}
	}

	var softScore, weightSum float64

	// Housing type boost
	if a.HousingType != "" && b.HousingType != "" && a.HousingType == b.HousingType {
		softScore += 15
		weightSum += 15
		explanation = append(explanation, "Same housing type (on/off campus)")
	}

	// Preferred area overlap (case-sensitive set intersection)
	areaOverlap := false
	if len(a.PreferredAreas) > 0 && len(b.PreferredAreas) > 0 {
		for _, area := range a.PreferredAreas {
			for _, other := range b.PreferredAreas {
				if area == other {
					areaOverlap = true
				}
			}
		}
	}
	if areaOverlap {
		softScore += 10
		weightSum += 10
		explanation = append(explanation, "Overlapping preferred areas")
	}

	// Budget overlap counts only when somebody actually set a bound
	if budgetOverlap(a.BudgetMin, a.BudgetMax, b.BudgetMin, b.BudgetMax) &&
		(a.BudgetMin != nil || b.BudgetMin != nil) {
		softScore += 10
		weightSum += 10
		explanation = append(explanation, "Budget range overlap")
	}

	// Preference alignment: weight by the stronger side's strength.
	// Weight accrues whether or not the values match, so mismatches on
	// strongly-held preferences drag the normalized score down.
	for _, category := range prefCategories {
		prefA := prefFor(a, category)
		prefB := prefFor(b, category)
		if prefA == nil || prefB == nil {
			continue
		}
		weight := float64(max(prefA.Strength, prefB.Strength)) / 10
		weightSum += weight * 10
		if valuesMatch(prefA.Value, prefB.Value) {
			softScore += weight * 10
			explanation = append(explanation, strings.ReplaceAll(category, "_", " ")+" aligned")
		}
	}

	// Lifestyle fields carried on the profile itself (never dealbreakers)
	if a.SleepSchedule != "" && b.SleepSchedule != "" && a.SleepSchedule == b.SleepSchedule {
		softScore += 5
		weightSum += 5
	}
	if a.CleanlinessLevel != nil && b.CleanlinessLevel != nil {
		diff := *a.CleanlinessLevel - *b.CleanlinessLevel
		if diff < 0 {
			diff = -diff
		}
		softScore += math.Max(0, float64(5-diff))
		weightSum += 5
	}

	// No shared signal at all: neutral midpoint rather than 0 or 100.
	score := 50
	if weightSum > 0 {
		score = int(math.Round(softScore / weightSum * 100))
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	if len(explanation) == 0 {
		explanation = []string{"Preferences align well"}
	}
	return CompatibilityResult{
		Score:              score,
		PassedDealbreakers: true,
		Explanation:        explanation,
	}
}
