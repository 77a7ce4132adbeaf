package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/quiz-grade-api/internal/models"
)

const quizColumns = `id, title, category, total_score, pass_score, exam_date, question_ids, created_by, created_at, updated_at`

// QuizRepository persists quiz definitions.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs a quiz repository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// List returns quizzes newest first with the total count for the filter.
func (r *QuizRepository) List(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, int, error) {
	baseQuery := `FROM quizzes WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalisePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY id DESC LIMIT %d OFFSET %d", quizColumns, baseQuery, pageSize, (page-1)*pageSize)

	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list quizzes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count quizzes: %w", err)
	}
	return quizzes, total, nil
}

// FindByID returns sql.ErrNoRows when the quiz does not exist.
func (r *QuizRepository) FindByID(ctx context.Context, id int64) (*models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = $1`
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find quiz: %w", err)
	}
	return &quiz, nil
}

// ListByIDs loads the quizzes that still exist among ids.
func (r *QuizRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Quiz, error) {
	if len(ids) == 0 {
		return []models.Quiz{}, nil
	}
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = ANY($1)`
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list quizzes by id: %w", err)
	}
	return quizzes, nil
}

// Create inserts quiz and fills its generated fields.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	const query = `INSERT INTO quizzes (title, category, total_score, pass_score, exam_date, question_ids, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, quiz.Title, quiz.Category, quiz.TotalScore, quiz.PassScore, quiz.ExamDate, quiz.QuestionIDs, quiz.CreatedBy)
	if err := row.Scan(&quiz.ID, &quiz.CreatedAt, &quiz.UpdatedAt); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

// Update overwrites the definition; sql.ErrNoRows when the id is unknown.
func (r *QuizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	const query = `UPDATE quizzes SET title = $2, category = $3, total_score = $4, pass_score = $5, exam_date = $6, question_ids = $7, updated_at = NOW()
WHERE id = $1
RETURNING created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, quiz.ID, quiz.Title, quiz.Category, quiz.TotalScore, quiz.PassScore, quiz.ExamDate, quiz.QuestionIDs)
	if err := row.Scan(&quiz.CreatedAt, &quiz.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("update quiz: %w", err)
	}
	return nil
}

// Delete removes the quiz row only; attempts and snapshots stay behind.
func (r *QuizRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quiz rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountReferencing counts quizzes whose question list contains questionID.
func (r *QuizRepository) CountReferencing(ctx context.Context, questionID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM quizzes WHERE question_ids @> jsonb_build_array($1::bigint)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, questionID); err != nil {
		return 0, fmt.Errorf("count quizzes referencing question: %w", err)
	}
	return count, nil
}

// ListReferencing returns the quizzes whose question list contains questionID.
func (r *QuizRepository) ListReferencing(ctx context.Context, questionID int64) ([]models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE question_ids @> jsonb_build_array($1::bigint) ORDER BY id`
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, query, questionID); err != nil {
		return nil, fmt.Errorf("list quizzes referencing question: %w", err)
	}
	return quizzes, nil
}
