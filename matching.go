package main

import (
	"context"
	"errors"
	"sort"
)

// The matching core talks to storage through these interfaces instead of a
// shared client, so the Postgres implementations (repository.go) and the
// in-memory ones the tests use (memory_store.go) are interchangeable.

var (
	// ErrOnboardingIncomplete gates candidate requests from users who have
	// not finished onboarding.
	ErrOnboardingIncomplete = errors.New("onboarding incomplete")
	// ErrInvalidTarget rejects self-likes and self-passes.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrNotFound covers absent users and profiles.
	ErrNotFound = errors.New("not found")
)

// ProfileRepository is read access to profiles and the swipe/match ledger.
type ProfileRepository interface {
	// ProfileWithPreferences returns the profile and its preference rows,
	// or ErrNotFound when the user has no profile.
	ProfileWithPreferences(ctx context.Context, userID string) (*Profile, error)
	// CandidatePool returns up to take onboarded profiles whose user id is
	// not in exclude, preferences attached.
	CandidatePool(ctx context.Context, exclude map[string]struct{}, take int) ([]*Profile, error)
	LikedTargets(ctx context.Context, userID string) ([]string, error)
	PassedTargets(ctx context.Context, userID string) ([]string, error)
	MatchedPeers(ctx context.Context, userID string) ([]string, error)
	UserExists(ctx context.Context, userID string) (bool, error)
}

// SwipeStore records directed like/pass edges. Both inserts are guarded by
// the ordered-pair uniqueness of the underlying store.
type SwipeStore interface {
	// InsertLike inserts the ordered edge and reports whether this call
	// created it (false: the pair already existed, nothing changed).
	InsertLike(ctx context.Context, actor, target string) (bool, error)
	HasLike(ctx context.Context, actor, target string) (bool, error)
	// UpsertPass is idempotent; repeated passes are harmless.
	UpsertPass(ctx context.Context, actor, target string) error
}

// MatchStore persists canonical matches. CreateMatch must be atomic against
// the canonical-pair uniqueness: when two calls race, exactly one creates
// the row and both return it.
type MatchStore interface {
	// CreateMatch inserts the canonical match for the unordered pair and
	// returns the surviving row plus whether this call created it.
	CreateMatch(ctx context.Context, userA, userB string) (*Match, bool, error)
	MatchesFor(ctx context.Context, userID string) ([]Match, error)
}

// NotificationSink pushes events to a user's connected sessions.
// Fire-and-forget, at most once; the core never retries.
type NotificationSink interface {
	Publish(userID string, evt ServerEvent)
}

// RankedCandidate pairs a candidate profile with its compatibility result.
type RankedCandidate struct {
	Profile       *Profile
	Compatibility CompatibilityResult
}

const (
	defaultCandidatePageSize = 20
	maxCandidatePageSize     = 50
	// The pool is oversampled so dealbreaker attrition still tends to fill
	// a page. No guarantee: empty and partial pages are valid results.
	poolOversample = 3
)

// CandidateRanker turns the profile pool into a sorted, exclusion-aware
// shortlist for one requesting user.
type CandidateRanker struct {
	profiles ProfileRepository
}

func NewCandidateRanker(profiles ProfileRepository) *CandidateRanker {
	return &CandidateRanker{profiles: profiles}
}

// Rank returns up to limit candidates for userID, best score first. Equal
// scores order by candidate user id ascending so pages are deterministic
// regardless of pool fetch order.
func (cr *CandidateRanker) Rank(ctx context.Context, userID string, limit int) ([]RankedCandidate, error) {
	if limit <= 0 {
		limit = defaultCandidatePageSize
	}
	if limit > maxCandidatePageSize {
		limit = maxCandidatePageSize
	}

	me, err := cr.profiles.ProfileWithPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !me.OnboardingComplete {
		return nil, ErrOnboardingIncomplete
	}

	exclude := map[string]struct{}{userID: {}}
	liked, err := cr.profiles.LikedTargets(ctx, userID)
	if err != nil {
		return nil, err
	}
	passed, err := cr.profiles.PassedTargets(ctx, userID)
	if err != nil {
		return nil, err
	}
	matched, err := cr.profiles.MatchedPeers(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range liked {
		exclude[id] = struct{}{}
	}
	for _, id := range passed {
		exclude[id] = struct{}{}
	}
	for _, id := range matched {
		exclude[id] = struct{}{}
	}

	pool, err := cr.profiles.CandidatePool(ctx, exclude, limit*poolOversample)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedCandidate, 0, len(pool))
	for _, candidate := range pool {
		result := scoreCompatibility(me, candidate)
		if !result.PassedDealbreakers {
			// Dealbreaker mismatches are not errors; the candidate is
			// silently dropped from the page.
			continue
		}
		ranked = append(ranked, RankedCandidate{Profile: candidate, Compatibility: result})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Compatibility.Score != ranked[j].Compatibility.Score {
			return ranked[i].Compatibility.Score > ranked[j].Compatibility.Score
		}
		return ranked[i].Profile.UserID < ranked[j].Profile.UserID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// SwipeResult is the outcome of a like. Match is non-nil exactly when the
// like completed the reciprocal pair (or raced another call doing so).
type SwipeResult struct {
	Liked        bool   `json:"liked"`
	AlreadyLiked bool   `json:"alreadyLiked"`
	Match        *Match `json:"match"`
}

// MatchEngine owns the swipe ledger and race-safe mutual-match formation.
type MatchEngine struct {
	profiles ProfileRepository
	swipes   SwipeStore
	matches  MatchStore
	sink     NotificationSink
}

func NewMatchEngine(profiles ProfileRepository, swipes SwipeStore, matches MatchStore, sink NotificationSink) *MatchEngine {
	return &MatchEngine{profiles: profiles, swipes: swipes, matches: matches, sink: sink}
}

func (e *MatchEngine) validateTarget(ctx context.Context, actor, target string) error {
	if actor == target {
		return ErrInvalidTarget
	}
	exists, err := e.profiles.UserExists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// RecordLike inserts the directed like and, when the reciprocal like
// exists, forms the canonical match. Two users liking each other at the
// same instant both reach CreateMatch; the store's canonical-pair
// uniqueness lets exactly one insert win and hands the loser the winner's
// row, so both callers report the same single match.
func (e *MatchEngine) RecordLike(ctx context.Context, actor, target string) (SwipeResult, error) {
	if err := e.validateTarget(ctx, actor, target); err != nil {
		return SwipeResult{}, err
	}

	inserted, err := e.swipes.InsertLike(ctx, actor, target)
	if err != nil {
		return SwipeResult{}, err
	}
	if !inserted {
		// Repeat of an earlier like: no ledger change, no new match.
		return SwipeResult{Liked: true, AlreadyLiked: true}, nil
	}

	mutual, err := e.swipes.HasLike(ctx, target, actor)
	if err != nil {
		return SwipeResult{}, err
	}
	if !mutual {
		return SwipeResult{Liked: true}, nil
	}

	match, created, err := e.matches.CreateMatch(ctx, actor, target)
	if err != nil {
		return SwipeResult{}, err
	}
	if created && e.sink != nil {
		evt := ServerEvent{Type: "match", Data: match}
		e.sink.Publish(match.UserAID, evt)
		e.sink.Publish(match.UserBID, evt)
	}
	return SwipeResult{Liked: true, Match: match}, nil
}

// RecordPass records a pass. Passing the same target again is a no-op.
func (e *MatchEngine) RecordPass(ctx context.Context, actor, target string) error {
	if err := e.validateTarget(ctx, actor, target); err != nil {
		return err
	}
	return e.swipes.UpsertPass(ctx, actor, target)
}

// canonicalPair orders an unordered user pair by lexical id comparison so
// it has one storage identity no matter who liked whom first.
func canonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
