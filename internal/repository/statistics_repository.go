package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/quiz-grade-api/internal/models"
)

const statisticsColumns = `id, quiz_id, participant_count, avg_score, max_score, min_score, median_score, pass_rate, distribution, updated_at`

// StatisticsRepository stores one derived grade_statistics row per quiz.
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository constructs a statistics repository.
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// FindByQuizID returns sql.ErrNoRows when no snapshot was ever written.
func (r *StatisticsRepository) FindByQuizID(ctx context.Context, quizID int64) (*models.GradeStatistics, error) {
	query := `SELECT ` + statisticsColumns + ` FROM grade_statistics WHERE quiz_id = $1`
	var stats models.GradeStatistics
	if err := r.db.GetContext(ctx, &stats, query, quizID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grade statistics: %w", err)
	}
	return &stats, nil
}

// ListByQuizIDs returns the snapshots that exist for the given quizzes keyed by quiz id.
func (r *StatisticsRepository) ListByQuizIDs(ctx context.Context, quizIDs []int64) (map[int64]models.GradeStatistics, error) {
	result := make(map[int64]models.GradeStatistics, len(quizIDs))
	if len(quizIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + statisticsColumns + ` FROM grade_statistics WHERE quiz_id = ANY($1)`
	var rows []models.GradeStatistics
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(quizIDs)); err != nil {
		return nil, fmt.Errorf("list grade statistics: %w", err)
	}
	for _, row := range rows {
		result[row.QuizID] = row
	}
	return result, nil
}

// Upsert writes the snapshot keyed by quiz_id; an existing row keeps its id and gets a new timestamp.
func (r *StatisticsRepository) Upsert(ctx context.Context, stats *models.GradeStatistics) error {
	distribution := stats.Distribution
	if distribution == nil {
		distribution = models.EmptyDistribution()
	}
	const query = `INSERT INTO grade_statistics (quiz_id, participant_count, avg_score, max_score, min_score, median_score, pass_rate, distribution, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
ON CONFLICT (quiz_id) DO UPDATE SET
	participant_count = EXCLUDED.participant_count,
	avg_score = EXCLUDED.avg_score,
	max_score = EXCLUDED.max_score,
	min_score = EXCLUDED.min_score,
	median_score = EXCLUDED.median_score,
	pass_rate = EXCLUDED.pass_rate,
	distribution = EXCLUDED.distribution,
	updated_at = EXCLUDED.updated_at
RETURNING id, updated_at`
	row := r.db.QueryRowxContext(ctx, query, stats.QuizID, stats.ParticipantCount, stats.AvgScore, stats.MaxScore, stats.MinScore, stats.MedianScore, stats.PassRate, distribution)
	if err := row.Scan(&stats.ID, &stats.UpdatedAt); err != nil {
		return fmt.Errorf("upsert grade statistics: %w", err)
	}
	stats.Distribution = distribution
	return nil
}
