package main

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// pgStore is the Postgres implementation of ProfileRepository, SwipeStore
// and MatchStore. All mutation goes through single-row inserts/upserts; the
// unique indexes in schema.sql are what make the like ledger and the
// canonical match pair race-safe.
type pgStore struct {
	db *sql.DB
}

func newPGStore(db *sql.DB) *pgStore {
	return &pgStore{db: db}
}

const profileColumns = `
	p.id, p.user_id, u.email, p.housing_type, p.preferred_areas,
	p.budget_min, p.budget_max, p.lease_duration, p.move_in_date,
	p.sleep_schedule, p.cleanliness_level, p.guests_frequency,
	p.study_environment, p.noise_tolerance, p.smoking_stance,
	p.drinking_stance, p.pets_stance, p.introvert_extrovert,
	p.social_habits, p.conflict_style, p.shared_activities, p.bio, p.tags,
	p.onboarding_complete`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	var housing, lease, sleep, guests, study, noise, smoking, drinking, pets, social, conflict, bio sql.NullString
	var areas, activities, tags []byte
	var budgetMin, budgetMax, cleanliness, introvert sql.NullInt64
	var moveIn sql.NullTime

	err := row.Scan(
		&p.ID, &p.UserID, &p.Email, &housing, &areas,
		&budgetMin, &budgetMax, &lease, &moveIn,
		&sleep, &cleanliness, &guests,
		&study, &noise, &smoking,
		&drinking, &pets, &introvert,
		&social, &conflict, &activities, &bio, &tags,
		&p.OnboardingComplete,
	)
	if err != nil {
		return nil, err
	}

	p.HousingType = housing.String
	p.LeaseDuration = lease.String
	p.SleepSchedule = sleep.String
	p.GuestsFrequency = guests.String
	p.StudyEnvironment = study.String
	p.NoiseTolerance = noise.String
	p.SmokingStance = smoking.String
	p.DrinkingStance = drinking.String
	p.PetsStance = pets.String
	p.SocialHabits = social.String
	p.ConflictStyle = conflict.String
	p.Bio = bio.String
	if budgetMin.Valid {
		v := int(budgetMin.Int64)
		p.BudgetMin = &v
	}
	if budgetMax.Valid {
		v := int(budgetMax.Int64)
		p.BudgetMax = &v
	}
	if cleanliness.Valid {
		v := int(cleanliness.Int64)
		p.CleanlinessLevel = &v
	}
	if introvert.Valid {
		v := int(introvert.Int64)
		p.IntrovertExtrovert = &v
	}
	if moveIn.Valid {
		t := moveIn.Time
		p.MoveInDate = &t
	}
	_ = json.Unmarshal(areas, &p.PreferredAreas)
	_ = json.Unmarshal(activities, &p.SharedActivities)
	_ = json.Unmarshal(tags, &p.Tags)
	return &p, nil
}

func (s *pgStore) ProfileWithPreferences(ctx context.Context, userID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
	`, userID)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachPreferences(ctx, []*Profile{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *pgStore) CandidatePool(ctx context.Context, exclude map[string]struct{}, take int) ([]*Profile, error) {
	excluded := make([]string, 0, len(exclude))
	for id := range exclude {
		excluded = append(excluded, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.onboarding_complete = TRUE
		  AND NOT (p.user_id = ANY($1))
		LIMIT $2
	`, pq.Array(excluded), take)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pool []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		pool = append(pool, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachPreferences(ctx, pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// attachPreferences loads the preference rows of every listed profile in
// one query and attaches them.
func (s *pgStore) attachPreferences(ctx context.Context, profiles []*Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	ids := make([]string, len(profiles))
	byID := make(map[string]*Profile, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_id, category, value, strength, dealbreaker
		FROM preferences
		WHERE profile_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var profileID string
		var pref Preference
		if err := rows.Scan(&profileID, &pref.Category, &pref.Value, &pref.Strength, &pref.Dealbreaker); err != nil {
			return err
		}
		if p, ok := byID[profileID]; ok {
			p.Preferences = append(p.Preferences, pref)
		}
	}
	return rows.Err()
}

func (s *pgStore) LikedTargets(ctx context.Context, userID string) ([]string, error) {
	return s.idColumn(ctx, `SELECT liked_id FROM likes WHERE liker_id = $1`, userID)
}

func (s *pgStore) PassedTargets(ctx context.Context, userID string) ([]string, error) {
	return s.idColumn(ctx, `SELECT passed_id FROM passes WHERE passer_id = $1`, userID)
}

func (s *pgStore) MatchedPeers(ctx context.Context, userID string) ([]string, error) {
	return s.idColumn(ctx, `
		SELECT
			CASE
				WHEN user_a_id = $1 THEN user_b_id
				ELSE user_a_id
			END AS peer_id
		FROM matches
		WHERE user_a_id = $1 OR user_b_id = $1
	`, userID)
}

func (s *pgStore) idColumn(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *pgStore) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID,
	).Scan(&exists)
	return exists, err
}

func (s *pgStore) InsertLike(ctx context.Context, actor, target string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO likes (liker_id, liked_id)
		VALUES ($1, $2)
		ON CONFLICT (liker_id, liked_id) DO NOTHING
	`, actor, target)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *pgStore) HasLike(ctx context.Context, actor, target string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE liker_id = $1 AND liked_id = $2)`,
		actor, target,
	).Scan(&exists)
	return exists, err
}

func (s *pgStore) UpsertPass(ctx context.Context, actor, target string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO passes (passer_id, passed_id)
		VALUES ($1, $2)
		ON CONFLICT (passer_id, passed_id) DO NOTHING
	`, actor, target)
	return err
}

// CreateMatch inserts the canonical pair row. When two mutual likes race,
// one insert hits the unique index, gets no row back and refetches the
// winner's row instead of erroring.
func (s *pgStore) CreateMatch(ctx context.Context, userA, userB string) (*Match, bool, error) {
	a, b := canonicalPair(userA, userB)

	var m Match
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO matches (id, user_a_id, user_b_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_a_id, user_b_id) DO NOTHING
		RETURNING id, user_a_id, user_b_id, created_at
	`, uuid.NewString(), a, b).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CreatedAt)
	if err == nil {
		return &m, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, err
	}

	// Race: the other direction created the match first -> return theirs.
	err = s.db.QueryRowContext(ctx, `
		SELECT id, user_a_id, user_b_id, created_at
		FROM matches
		WHERE user_a_id = $1 AND user_b_id = $2
	`, a, b).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CreatedAt)
	if err != nil {
		return nil, false, err
	}
	return &m, false, nil
}

func (s *pgStore) MatchesFor(ctx context.Context, userID string) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_a_id, user_b_id, created_at
		FROM matches
		WHERE user_a_id = $1 OR user_b_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CreatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *pgStore) SaveProfile(ctx context.Context, p *Profile) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET
			housing_type = $1,
			preferred_areas = $2,
			budget_min = $3,
			budget_max = $4,
			lease_duration = $5,
			move_in_date = $6,
			sleep_schedule = $7,
			cleanliness_level = $8,
			guests_frequency = $9,
			study_environment = $10,
			noise_tolerance = $11,
			smoking_stance = $12,
			drinking_stance = $13,
			pets_stance = $14,
			introvert_extrovert = $15,
			social_habits = $16,
			conflict_style = $17,
			shared_activities = $18,
			bio = $19,
			tags = $20
		WHERE id = $21
	`,
		nullableString(p.HousingType),
		marshalStringSet(p.PreferredAreas),
		p.BudgetMin,
		p.BudgetMax,
		nullableString(p.LeaseDuration),
		p.MoveInDate,
		nullableString(p.SleepSchedule),
		p.CleanlinessLevel,
		nullableString(p.GuestsFrequency),
		nullableString(p.StudyEnvironment),
		nullableString(p.NoiseTolerance),
		nullableString(p.SmokingStance),
		nullableString(p.DrinkingStance),
		nullableString(p.PetsStance),
		p.IntrovertExtrovert,
		nullableString(p.SocialHabits),
		nullableString(p.ConflictStyle),
		marshalStringSet(p.SharedActivities),
		nullableString(p.Bio),
		marshalStringSet(p.Tags),
		p.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) ReplacePreferences(ctx context.Context, profileID string, prefs []Preference) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM preferences WHERE profile_id = $1", profileID); err != nil {
			return err
		}
		for _, pref := range prefs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO preferences (profile_id, category, value, strength, dealbreaker)
				VALUES ($1, $2, $3, $4, $5)
			`, profileID, pref.Category, pref.Value, pref.Strength, pref.Dealbreaker)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *pgStore) SetOnboardingComplete(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET onboarding_complete = TRUE WHERE user_id = $1", userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// marshalStringSet stores string sets as JSONB the same way the profile
// writer does, never NULL so scans stay simple.
func marshalStringSet(values []string) []byte {
	if values == nil {
		values = []string{}
	}
	out, _ := json.Marshal(values)
	return out
}
