package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/quiz-grade-api/internal/models"
)

// CourseHourRepository records finished course hours.
type CourseHourRepository struct {
	db *sqlx.DB
}

// NewCourseHourRepository constructs a course hour repository.
func NewCourseHourRepository(db *sqlx.DB) *CourseHourRepository {
	return &CourseHourRepository{db: db}
}

// MarkFinished stores the completion once; repeats are ignored.
func (r *CourseHourRepository) MarkFinished(ctx context.Context, completion models.CourseHourCompletion) error {
	const query = `INSERT INTO user_course_hour_records (user_id, course_id, hour_id, finished_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, hour_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, completion.UserID, completion.CourseID, completion.HourID, completion.FinishedAt); err != nil {
		return fmt.Errorf("mark course hour finished: %w", err)
	}
	return nil
}
