package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory implementation of ProfileRepository, SwipeStore
// and MatchStore. It mirrors the uniqueness guarantees of schema.sql (one
// like per ordered pair, one match per canonical pair) behind a mutex, so
// the matching core can be exercised in tests without a database.
type memStore struct {
	mu       sync.Mutex
	users    map[string]string // id -> email
	profiles map[string]*Profile
	likes    map[string]map[string]bool // liker -> liked set
	passes   map[string]map[string]bool
	matches  map[[2]string]Match
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]string),
		profiles: make(map[string]*Profile),
		likes:    make(map[string]map[string]bool),
		passes:   make(map[string]map[string]bool),
		matches:  make(map[[2]string]Match),
	}
}

// AddProfile registers the profile's user and stores the profile.
func (s *memStore) AddProfile(p *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.users[p.UserID] = p.Email
	s.profiles[p.UserID] = p
}

// AddUser registers a user without a profile row.
func (s *memStore) AddUser(id, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = email
}

func (s *memStore) ProfileWithPreferences(_ context.Context, userID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *memStore) CandidatePool(_ context.Context, exclude map[string]struct{}, take int) ([]*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pool []*Profile
	for userID, p := range s.profiles {
		if !p.OnboardingComplete {
			continue
		}
		if _, skip := exclude[userID]; skip {
			continue
		}
		if len(pool) >= take {
			break
		}
		pool = append(pool, p)
	}
	return pool, nil
}

func (s *memStore) LikedTargets(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setKeys(s.likes[userID]), nil
}

func (s *memStore) PassedTargets(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setKeys(s.passes[userID]), nil
}

func (s *memStore) MatchedPeers(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var peers []string
	for pair := range s.matches {
		if pair[0] == userID {
			peers = append(peers, pair[1])
		} else if pair[1] == userID {
			peers = append(peers, pair[0])
		}
	}
	return peers, nil
}

func (s *memStore) UserExists(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[userID]
	return ok, nil
}

func (s *memStore) InsertLike(_ context.Context, actor, target string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.likes[actor][target] {
		return false, nil
	}
	if s.likes[actor] == nil {
		s.likes[actor] = make(map[string]bool)
	}
	s.likes[actor][target] = true
	return true, nil
}

func (s *memStore) HasLike(_ context.Context, actor, target string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes[actor][target], nil
}

func (s *memStore) UpsertPass(_ context.Context, actor, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.passes[actor] == nil {
		s.passes[actor] = make(map[string]bool)
	}
	s.passes[actor][target] = true
	return nil
}

func (s *memStore) CreateMatch(_ context.Context, userA, userB string) (*Match, bool, error) {
	a, b := canonicalPair(userA, userB)
	key := [2]string{a, b}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.matches[key]; ok {
		m := existing
		return &m, false, nil
	}
	m := Match{
		ID:        uuid.NewString(),
		UserAID:   a,
		UserBID:   b,
		CreatedAt: time.Now().UTC(),
	}
	s.matches[key] = m
	return &m, true, nil
}

func (s *memStore) MatchesFor(_ context.Context, userID string) ([]Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Match
	for pair, m := range s.matches {
		if pair[0] == userID || pair[1] == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

// MatchCount reports the number of stored match rows.
func (s *memStore) MatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

func setKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}
