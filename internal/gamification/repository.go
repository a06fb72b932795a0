// AngelaMos | 2026
// repository.go

package gamification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/coachforge/platform/internal/core"
)

// Store holds every query the engine runs. The same methods serve plain
// reads and, through Repository.InTx, a single award transaction.
type Store interface {
	LockProfile(ctx context.Context, userID string) (*Profile, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	SaveProfile(ctx context.Context, p *Profile) error

	HasLedgerEntry(ctx context.Context, userID, sourceType, sourceID string) (bool, error)
	InsertLedger(ctx context.Context, e *LedgerEntry) (bool, error)
	ListLedger(ctx context.Context, userID string, limit, offset int) ([]LedgerEntry, int, error)

	CreateAchievement(ctx context.Context, a *Achievement) error
	ListAchievements(ctx context.Context) ([]Achievement, error)
	LockedAchievements(ctx context.Context, userID string) ([]Achievement, error)
	UnlockAchievement(ctx context.Context, userID, achievementID string) (bool, error)
	UserAchievements(ctx context.Context, userID string) ([]UnlockedAchievement, error)

	CreateChallenge(ctx context.Context, c *Challenge) error
	GetChallenge(ctx context.Context, id string) (*Challenge, error)
	ListChallenges(ctx context.Context, activeOnly bool) ([]Challenge, error)
	JoinChallenge(ctx context.Context, challengeID, userID string) error
	OpenParticipations(ctx context.Context, userID string, at time.Time) ([]Participation, error)
	SaveProgress(ctx context.Context, p *Participation) error
	ChallengeStandings(ctx context.Context, challengeID string, limit int) ([]Standing, error)

	CloseExpiredChallenges(ctx context.Context, now time.Time) (int64, error)
	ResetLapsedStreaks(ctx context.Context, today time.Time) (int64, error)
}

type Repository interface {
	Store
	InTx(ctx context.Context, fn func(Store) error) error
}

type repository struct {
	*store
	db core.DB
}

func NewRepository(db core.DB) Repository {
	return &repository{store: &store{db: db}, db: db}
}

func (r *repository) InTx(ctx context.Context, fn func(Store) error) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&store{db: tx})
	})
}

type store struct {
	db core.DBTX
}

const profileColumns = `user_id, total_points, xp, level, current_streak,
	longest_streak, last_workout_date, workouts_logged, sessions_completed,
	updated_at`

// LockProfile creates the profile if needed and locks it for the
// surrounding transaction so concurrent awards for one user serialize.
func (s *store) LockProfile(ctx context.Context, userID string) (*Profile, error) {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO gamification_profiles (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	var p Profile
	err := s.db.GetContext(ctx, &p, `
		SELECT `+profileColumns+`
		FROM gamification_profiles
		WHERE user_id = $1
		FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("lock profile: %w", err)
	}
	return &p, nil
}

func (s *store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := s.db.GetContext(ctx, &p, `
		SELECT `+profileColumns+`
		FROM gamification_profiles
		WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *store) SaveProfile(ctx context.Context, p *Profile) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE gamification_profiles
		SET total_points = $2, xp = $3, level = $4, current_streak = $5,
		    longest_streak = $6, last_workout_date = $7, workouts_logged = $8,
		    sessions_completed = $9, updated_at = NOW()
		WHERE user_id = $1`,
		p.UserID,
		p.TotalPoints,
		p.XP,
		p.Level,
		p.CurrentStreak,
		p.LongestStreak,
		p.LastWorkoutDate,
		p.WorkoutsLogged,
		p.SessionsCompleted,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *store) HasLedgerEntry(
	ctx context.Context,
	userID, sourceType, sourceID string,
) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM point_ledger
			WHERE user_id = $1 AND source_type = $2 AND source_id = $3
		)`, userID, sourceType, sourceID)
	if err != nil {
		return false, fmt.Errorf("check ledger: %w", err)
	}
	return exists, nil
}

// InsertLedger returns false when the source was already awarded.
func (s *store) InsertLedger(ctx context.Context, e *LedgerEntry) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO point_ledger (id, user_id, source_type, source_id, points, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, source_type, source_id) DO NOTHING`,
		e.ID,
		e.UserID,
		e.SourceType,
		e.SourceID,
		e.Points,
		e.Reason,
	)
	if err != nil {
		return false, fmt.Errorf("insert ledger entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert ledger entry: %w", err)
	}
	return rows == 1, nil
}

func (s *store) ListLedger(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]LedgerEntry, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM point_ledger WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("count ledger: %w", err)
	}

	var entries []LedgerEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, source_type, source_id, points, reason, created_at
		FROM point_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger: %w", err)
	}
	return entries, total, nil
}

const achievementColumns = `id, code, name, description, criteria, threshold,
	reward_points, created_at`

func (s *store) CreateAchievement(ctx context.Context, a *Achievement) error {
	err := s.db.GetContext(ctx, &a.CreatedAt, `
		INSERT INTO achievements (id, code, name, description, criteria, threshold, reward_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		a.ID,
		a.Code,
		a.Name,
		a.Description,
		a.Criteria,
		a.Threshold,
		a.RewardPoints,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create achievement: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create achievement: %w", err)
	}
	return nil
}

func (s *store) ListAchievements(ctx context.Context) ([]Achievement, error) {
	var out []Achievement
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+achievementColumns+`
		FROM achievements
		ORDER BY criteria, threshold`)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return out, nil
}

func (s *store) LockedAchievements(ctx context.Context, userID string) ([]Achievement, error) {
	var out []Achievement
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+achievementColumns+`
		FROM achievements a
		WHERE NOT EXISTS (
			SELECT 1 FROM user_achievements ua
			WHERE ua.achievement_id = a.id AND ua.user_id = $1
		)
		ORDER BY threshold`, userID)
	if err != nil {
		return nil, fmt.Errorf("list locked achievements: %w", err)
	}
	return out, nil
}

func (s *store) UnlockAchievement(
	ctx context.Context,
	userID, achievementID string,
) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, achievementID)
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}
	return rows == 1, nil
}

func (s *store) UserAchievements(
	ctx context.Context,
	userID string,
) ([]UnlockedAchievement, error) {
	var out []UnlockedAchievement
	err := s.db.SelectContext(ctx, &out, `
		SELECT a.id, a.code, a.name, a.description, a.criteria, a.threshold,
		       a.reward_points, a.created_at, ua.unlocked_at
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1
		ORDER BY ua.unlocked_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user achievements: %w", err)
	}
	return out, nil
}

const challengeColumns = `id, title, description, metric, goal, reward_points,
	starts_at, ends_at, status, created_by, created_at`

func (s *store) CreateChallenge(ctx context.Context, c *Challenge) error {
	err := s.db.GetContext(ctx, &c.CreatedAt, `
		INSERT INTO challenges (
			id, title, description, metric, goal, reward_points,
			starts_at, ends_at, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		c.ID,
		c.Title,
		c.Description,
		c.Metric,
		c.Goal,
		c.RewardPoints,
		c.StartsAt,
		c.EndsAt,
		c.Status,
		c.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

func (s *store) GetChallenge(ctx context.Context, id string) (*Challenge, error) {
	var c Challenge
	err := s.db.GetContext(ctx, &c,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get challenge: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return &c, nil
}

func (s *store) ListChallenges(ctx context.Context, activeOnly bool) ([]Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges`
	if activeOnly {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY ends_at`

	var out []Challenge
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return out, nil
}

func (s *store) JoinChallenge(ctx context.Context, challengeID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenge_participants (challenge_id, user_id)
		VALUES ($1, $2)`, challengeID, userID)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("join challenge: %w", core.ErrDuplicateKey)
		}
		if core.IsForeignKeyError(err) {
			return fmt.Errorf("join challenge: %w", core.ErrNotFound)
		}
		return fmt.Errorf("join challenge: %w", err)
	}
	return nil
}

// OpenParticipations locks the user's unfinished entries in challenges that
// are running at the given time.
func (s *store) OpenParticipations(
	ctx context.Context,
	userID string,
	at time.Time,
) ([]Participation, error) {
	var out []Participation
	err := s.db.SelectContext(ctx, &out, `
		SELECT cp.challenge_id, cp.user_id, cp.progress, cp.completed_at, cp.joined_at,
		       c.id AS "challenge.id", c.title AS "challenge.title",
		       c.description AS "challenge.description", c.metric AS "challenge.metric",
		       c.goal AS "challenge.goal", c.reward_points AS "challenge.reward_points",
		       c.starts_at AS "challenge.starts_at", c.ends_at AS "challenge.ends_at",
		       c.status AS "challenge.status", c.created_by AS "challenge.created_by",
		       c.created_at AS "challenge.created_at"
		FROM challenge_participants cp
		JOIN challenges c ON c.id = cp.challenge_id
		WHERE cp.user_id = $1
		  AND cp.completed_at IS NULL
		  AND c.status = 'active'
		  AND c.starts_at <= $2 AND c.ends_at > $2
		FOR UPDATE OF cp`, userID, at)
	if err != nil {
		return nil, fmt.Errorf("list open participations: %w", err)
	}
	return out, nil
}

func (s *store) SaveProgress(ctx context.Context, p *Participation) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE challenge_participants
		SET progress = $3, completed_at = $4
		WHERE challenge_id = $1 AND user_id = $2`,
		p.ChallengeID, p.UserID, p.Progress, p.CompletedAt)
	if err != nil {
		return fmt.Errorf("save challenge progress: %w", err)
	}
	return nil
}

func (s *store) ChallengeStandings(
	ctx context.Context,
	challengeID string,
	limit int,
) ([]Standing, error) {
	var out []Standing
	err := s.db.SelectContext(ctx, &out, `
		SELECT RANK() OVER (ORDER BY progress DESC) AS rank,
		       user_id, progress AS score
		FROM challenge_participants
		WHERE challenge_id = $1
		ORDER BY progress DESC, COALESCE(completed_at, 'infinity'), joined_at
		LIMIT $2`, challengeID, limit)
	if err != nil {
		return nil, fmt.Errorf("challenge standings: %w", err)
	}
	return out, nil
}

func (s *store) CloseExpiredChallenges(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE challenges SET status = 'closed'
		WHERE status = 'active' AND ends_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("close challenges: %w", err)
	}
	return result.RowsAffected()
}

// ResetLapsedStreaks zeroes streaks whose last workout is before yesterday.
func (s *store) ResetLapsedStreaks(ctx context.Context, today time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE gamification_profiles
		SET current_streak = 0, updated_at = NOW()
		WHERE current_streak > 0 AND last_workout_date < $1`,
		utcDay(today).AddDate(0, 0, -1))
	if err != nil {
		return 0, fmt.Errorf("reset streaks: %w", err)
	}
	return result.RowsAffected()
}
