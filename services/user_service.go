package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillForgeAPI/internal/leaderboard"
	"skillForgeAPI/internal/stats"
	"skillForgeAPI/internal/streak"
	"skillForgeAPI/internal/user"
)

type UserService struct {
	db      *pgxpool.Pool
	streaks *StreakService
	ledger  *PointsService
}

func NewUserService(db *pgxpool.Pool, streaks *StreakService, ledger *PointsService) *UserService {
	return &UserService{db: db, streaks: streaks, ledger: ledger}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{}
	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, 'user', NOW(), NOW())
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, role, email_verified, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		uuid.New().String(), req.ClerkID, req.Email, req.Username, req.FirstName, req.LastName, req.ImageURL,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, first_name, last_name, image_url, role, email_verified, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// ResolveUserID maps a Clerk subject to the internal user id.
func (s *UserService) ResolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user not found")
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

// IsAdmin reports whether the Clerk subject has the admin role. Admin-only
// handlers call this before touching anything else.
func (s *UserService) IsAdmin(ctx context.Context, clerkID string) (bool, error) {
	var role user.Role
	err := s.db.QueryRow(ctx, `SELECT role FROM users WHERE clerk_id = $1`, clerkID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("user not found")
		}
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return role == user.RoleAdmin, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET
		username = COALESCE(NULLIF($2, ''), username),
		first_name = COALESCE(NULLIF($3, ''), first_name),
		last_name = COALESCE(NULLIF($4, ''), last_name),
		image_url = COALESCE(NULLIF($5, ''), image_url),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, role, email_verified, created_at, updated_at
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID, req.Username, req.FirstName, req.LastName, req.ImageURL).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET email_verified = $2, updated_at = NOW() WHERE clerk_id = $1`,
		clerkID, verified,
	)
	return err
}

// SetUserRole promotes or demotes a user. Admin only; enforced by the
// caller.
func (s *UserService) SetUserRole(ctx context.Context, targetUserID uuid.UUID, role user.Role) error {
	if role != user.RoleUser && role != user.RoleAdmin {
		return fmt.Errorf("unknown role: %s", role)
	}
	result, err := s.db.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`,
		targetUserID, role,
	)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (s *UserService) SearchUsers(ctx context.Context, query string) ([]*user.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	sqlQuery := `
	SELECT id, clerk_id, email, username, first_name, last_name, image_url, role, email_verified, created_at, updated_at
	FROM users
	WHERE username ILIKE '%' || $1 || '%'
		OR first_name ILIKE '%' || $1 || '%'
		OR last_name ILIKE '%' || $1 || '%'
	ORDER BY username
	LIMIT 30
	`

	rows, err := s.db.Query(ctx, sqlQuery, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u := &user.User{}
		err := rows.Scan(
			&u.ID,
			&u.ClerkID,
			&u.Email,
			&u.Username,
			&u.FirstName,
			&u.LastName,
			&u.ImageURL,
			&u.Role,
			&u.EmailVerified,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// GetLeaderboard ranks users by total points and includes the requesting
// user's own position even when they fall outside the page.
func (s *UserService) GetLeaderboard(ctx context.Context, clerkID string, limit int) (*leaderboard.Leaderboard, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	userID, err := s.ResolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	WITH ranked AS (
		SELECT
			u.id AS user_id,
			u.username,
			u.image_url,
			COALESCE(utp.total_points, 0) AS total_points,
			COALESCE(utp.level, 1) AS level,
			RANK() OVER (ORDER BY COALESCE(utp.total_points, 0) DESC, u.username ASC) AS rank
		FROM users u
		LEFT JOIN user_total_points utp ON u.id = utp.user_id
	)
	SELECT user_id, username, image_url, total_points, level, rank
	FROM ranked
	ORDER BY rank ASC
	LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	lb := &leaderboard.Leaderboard{}
	for rows.Next() {
		e := &leaderboard.Entry{}
		if err := rows.Scan(&e.UserID, &e.Username, &e.ImageURL, &e.TotalPoints, &e.Level, &e.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		lb.Entries = append(lb.Entries, e)
		if e.UserID == userID {
			lb.UserPosition = e
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&lb.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	if lb.UserPosition == nil {
		posQuery := `
		WITH ranked AS (
			SELECT
				u.id AS user_id,
				u.username,
				u.image_url,
				COALESCE(utp.total_points, 0) AS total_points,
				COALESCE(utp.level, 1) AS level,
				RANK() OVER (ORDER BY COALESCE(utp.total_points, 0) DESC, u.username ASC) AS rank
			FROM users u
			LEFT JOIN user_total_points utp ON u.id = utp.user_id
		)
		SELECT user_id, username, image_url, total_points, level, rank
		FROM ranked
		WHERE user_id = $1
		`
		pos := &leaderboard.Entry{}
		err := s.db.QueryRow(ctx, posQuery, userID).Scan(
			&pos.UserID, &pos.Username, &pos.ImageURL, &pos.TotalPoints, &pos.Level, &pos.Rank,
		)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to get user position: %w", err)
		}
		if err == nil {
			lb.UserPosition = pos
		}
	}

	return lb, nil
}

// GetUserStats aggregates the dashboard numbers: study-day counts, streaks,
// points, badges, certificates and points rank.
func (s *UserService) GetUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	userID, err := s.ResolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	st := &stats.UserStats{}

	query := `
	SELECT
		EXISTS (
			SELECT 1 FROM daily_activity
			WHERE user_id = $1 AND activity_type = 'study' AND activity_date = CURRENT_DATE
		) AS today_studied,
		(SELECT COUNT(*) FROM daily_activity
			WHERE user_id = $1 AND activity_type = 'study'
			AND activity_date >= DATE_TRUNC('week', CURRENT_DATE)
			AND activity_date <= CURRENT_DATE) AS days_this_week,
		(SELECT COUNT(*) FROM daily_activity
			WHERE user_id = $1 AND activity_type = 'study'
			AND activity_date >= DATE_TRUNC('month', CURRENT_DATE)
			AND activity_date <= CURRENT_DATE) AS days_this_month,
		(SELECT COUNT(*) FROM daily_activity
			WHERE user_id = $1 AND activity_type = 'study'
			AND activity_date >= DATE_TRUNC('year', CURRENT_DATE)
			AND activity_date <= CURRENT_DATE) AS days_this_year,
		(SELECT COUNT(*) FROM daily_activity
			WHERE user_id = $1 AND activity_type = 'study') AS total_study_days,
		(SELECT COUNT(*) FROM course_progress
			WHERE user_id = $1 AND percentage = 100) AS courses_completed,
		(SELECT COUNT(*) FROM user_badges WHERE user_id = $1) AS badges_count,
		(SELECT COUNT(*) FROM user_certificates WHERE user_id = $1 AND revoked = false) AS certificates_count
	`
	err = s.db.QueryRow(ctx, query, userID).Scan(
		&st.TodayStudied,
		&st.DaysThisWeek,
		&st.DaysThisMonth,
		&st.DaysThisYear,
		&st.TotalStudyDays,
		&st.CoursesCompleted,
		&st.BadgesCount,
		&st.CertificatesCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	total, err := s.ledger.GetTotalPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	st.TotalPoints = total.TotalPoints
	st.Level = total.Level

	currentStreak, err := s.streaks.GetCurrentStreak(ctx, userID, streak.ActivityStudy)
	if err != nil {
		return nil, err
	}
	st.CurrentStreak = currentStreak

	longestStreak, err := s.streaks.GetLongestStreak(ctx, userID, streak.ActivityStudy)
	if err != nil {
		return nil, err
	}
	st.LongestStreak = longestStreak

	rankQuery := `
	WITH ranked AS (
		SELECT
			u.id,
			RANK() OVER (ORDER BY COALESCE(utp.total_points, 0) DESC, u.username ASC) AS rank
		FROM users u
		LEFT JOIN user_total_points utp ON u.id = utp.user_id
	)
	SELECT rank FROM ranked WHERE id = $1
	`
	if err := s.db.QueryRow(ctx, rankQuery, userID).Scan(&st.Rank); err != nil {
		return nil, fmt.Errorf("failed to calculate rank: %w", err)
	}

	return st, nil
}

// GetDaysStat counts study days in the given period for the stats widgets.
func (s *UserService) GetDaysStat(ctx context.Context, clerkID, period string) (*stats.DaysStat, error) {
	userID, err := s.ResolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var trunc string
	var totalDays int
	switch period {
	case "week":
		trunc, totalDays = "week", 7
	case "month":
		trunc, totalDays = "month", 31
	case "year":
		trunc, totalDays = "year", 365
	case "all_time":
		trunc, totalDays = "", 0
	default:
		return nil, fmt.Errorf("unknown period: %s", period)
	}

	st := &stats.DaysStat{Period: period, TotalDays: totalDays}

	query := `
	SELECT COUNT(*)
	FROM daily_activity
	WHERE user_id = $1 AND activity_type = 'study'
	`
	if trunc != "" {
		query += fmt.Sprintf(" AND activity_date >= DATE_TRUNC('%s', CURRENT_DATE) AND activity_date <= CURRENT_DATE", trunc)
	}

	if err := s.db.QueryRow(ctx, query, userID).Scan(&st.DaysStudied); err != nil {
		return nil, fmt.Errorf("failed to get %s stats: %w", period, err)
	}

	return st, nil
}
