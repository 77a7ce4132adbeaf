package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/quiz-grade-api/internal/models"
)

const attemptColumns = `id, user_id, quiz_id, course_hour_id, score, is_passed, comment, user_answers, created_at`

const defaultTopLimit = 10

// AttemptRepository stores quiz attempts in user_quiz_records.
type AttemptRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewAttemptRepository constructs an attempt repository.
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db, now: time.Now}
}

// RecordOnlineAttempt always appends a new row.
func (r *AttemptRepository) RecordOnlineAttempt(ctx context.Context, params models.OnlineAttemptParams) (*models.QuizAttempt, error) {
	answers := params.Answers
	if answers == nil {
		answers = models.AnswerSheet{}
	}
	attempt := &models.QuizAttempt{
		UserID:       params.UserID,
		QuizID:       params.QuizID,
		CourseHourID: params.CourseHourID,
		Score:        params.Score,
		Passed:       params.Passed,
		Answers:      answers,
		CreatedAt:    r.now().UTC(),
	}
	const query = `INSERT INTO user_quiz_records (user_id, quiz_id, course_hour_id, score, is_passed, comment, user_answers, created_at)
VALUES ($1, $2, $3, $4, $5, '', $6, $7)
RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, attempt.UserID, attempt.QuizID, attempt.CourseHourID, attempt.Score, attempt.Passed, attempt.Answers, attempt.CreatedAt).Scan(&attempt.ID); err != nil {
		return nil, fmt.Errorf("insert quiz attempt: %w", err)
	}
	return attempt, nil
}

// UpsertManualScore keeps at most one official record per (learner, quiz): the latest row is
// overwritten in place, otherwise a row without course hour or answers is created. Concurrent
// callers for the same pair are serialised by a transaction-scoped advisory lock.
func (r *AttemptRepository) UpsertManualScore(ctx context.Context, params models.ManualScoreParams) (attempt *models.QuizAttempt, err error) {
	takenAt := r.now().UTC()
	if params.TakenAt != nil {
		takenAt = params.TakenAt.UTC()
	}
	comment := strings.TrimSpace(params.Comment)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin manual score transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2::text))`
	if _, err = tx.ExecContext(ctx, lockQuery, params.UserID, params.QuizID); err != nil {
		return nil, fmt.Errorf("lock manual score: %w", err)
	}

	var current models.QuizAttempt
	selectQuery := `SELECT ` + attemptColumns + ` FROM user_quiz_records WHERE user_id = $1 AND quiz_id = $2 ORDER BY id DESC LIMIT 1 FOR UPDATE`
	if err = tx.GetContext(ctx, &current, selectQuery, params.UserID, params.QuizID); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("select latest quiz attempt: %w", err)
		}
		attempt = &models.QuizAttempt{
			UserID:    params.UserID,
			QuizID:    params.QuizID,
			Score:     params.Score,
			Passed:    params.Passed,
			Comment:   comment,
			Answers:   models.AnswerSheet{},
			CreatedAt: takenAt,
		}
		const insertQuery = `INSERT INTO user_quiz_records (user_id, quiz_id, course_hour_id, score, is_passed, comment, user_answers, created_at)
VALUES ($1, $2, 0, $3, $4, $5, '{}', $6)
RETURNING id`
		if err = tx.QueryRowxContext(ctx, insertQuery, params.UserID, params.QuizID, params.Score, params.Passed, comment, takenAt).Scan(&attempt.ID); err != nil {
			return nil, fmt.Errorf("insert manual score: %w", err)
		}
	} else {
		const updateQuery = `UPDATE user_quiz_records SET score = $2, is_passed = $3, comment = $4, created_at = $5 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, updateQuery, current.ID, params.Score, params.Passed, comment, takenAt); err != nil {
			return nil, fmt.Errorf("update manual score: %w", err)
		}
		current.Score = params.Score
		current.Passed = params.Passed
		current.Comment = comment
		current.CreatedAt = takenAt
		attempt = &current
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit manual score: %w", err)
	}
	return attempt, nil
}

// LatestForCourseHour returns the newest attempt for the course hour, or sql.ErrNoRows.
func (r *AttemptRepository) LatestForCourseHour(ctx context.Context, userID string, courseHourID int64) (*models.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM user_quiz_records WHERE user_id = $1 AND course_hour_id = $2 ORDER BY id DESC LIMIT 1`
	var attempt models.QuizAttempt
	if err := r.db.GetContext(ctx, &attempt, query, userID, courseHourID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("latest attempt for course hour: %w", err)
	}
	return &attempt, nil
}

// AllForQuiz returns every attempt of the quiz in insertion order.
func (r *AttemptRepository) AllForQuiz(ctx context.Context, quizID int64) ([]models.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM user_quiz_records WHERE quiz_id = $1 ORDER BY id ASC`
	var attempts []models.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, quizID); err != nil {
		return nil, fmt.Errorf("list attempts for quiz: %w", err)
	}
	return attempts, nil
}

// ListForLearner returns the learner's attempts ascending by creation time within inclusive bounds.
func (r *AttemptRepository) ListForLearner(ctx context.Context, userID string, from, to *time.Time) ([]models.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM user_quiz_records WHERE user_id = $1`
	args := []interface{}{userID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	var attempts []models.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, args...); err != nil {
		return nil, fmt.Errorf("list attempts for learner: %w", err)
	}
	return attempts, nil
}

const topScoresQuery = `SELECT ranked.user_id, COALESCE(u.full_name, '') AS full_name, ranked.quiz_id, q.title AS quiz_title,
	ranked.score, ranked.created_at,
	ROW_NUMBER() OVER (ORDER BY ranked.score DESC, ranked.created_at ASC, ranked.id ASC) AS rank
FROM (
	SELECT r.id, r.user_id, r.quiz_id, r.score, r.created_at,
		ROW_NUMBER() OVER (PARTITION BY r.user_id ORDER BY r.score DESC, r.created_at ASC, r.id ASC) AS rn
	FROM user_quiz_records r
	WHERE r.score IS NOT NULL%s
) ranked
LEFT JOIN users u ON u.id = ranked.user_id
LEFT JOIN quizzes q ON q.id = ranked.quiz_id
WHERE ranked.rn = 1
ORDER BY ranked.score DESC, ranked.created_at ASC, ranked.id ASC
LIMIT $%d`

// TopScoresBetween ranks each learner's best attempt created in [start, end).
func (r *AttemptRepository) TopScoresBetween(ctx context.Context, start, end time.Time, limit int) ([]models.TopScore, error) {
	query := fmt.Sprintf(topScoresQuery, " AND r.created_at >= $1 AND r.created_at < $2", 3)
	var rows []models.TopScore
	if err := r.db.SelectContext(ctx, &rows, query, start, end, topLimit(limit)); err != nil {
		return nil, fmt.Errorf("top scores between: %w", err)
	}
	return rows, nil
}

// TopScoresAllTime ranks each learner's best attempt ever.
func (r *AttemptRepository) TopScoresAllTime(ctx context.Context, limit int) ([]models.TopScore, error) {
	query := fmt.Sprintf(topScoresQuery, "", 1)
	var rows []models.TopScore
	if err := r.db.SelectContext(ctx, &rows, query, topLimit(limit)); err != nil {
		return nil, fmt.Errorf("top scores all time: %w", err)
	}
	return rows, nil
}

func topLimit(limit int) int {
	if limit <= 0 {
		return defaultTopLimit
	}
	return limit
}
