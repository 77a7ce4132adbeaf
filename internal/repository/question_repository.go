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

const questionColumns = `id, type, content, options, answer, score, created_by, created_at, updated_at`

// QuestionRepository persists the question bank.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs a question repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// List returns questions newest first with the total count for the filter.
func (r *QuestionRepository) List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error) {
	baseQuery := `FROM questions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(content) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalisePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY id DESC LIMIT %d OFFSET %d", questionColumns, baseQuery, pageSize, (page-1)*pageSize)

	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}
	return questions, total, nil
}

// FindByID returns sql.ErrNoRows when the question does not exist.
func (r *QuestionRepository) FindByID(ctx context.Context, id int64) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	var q models.Question
	if err := r.db.GetContext(ctx, &q, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find question: %w", err)
	}
	return &q, nil
}

// ListByIDs loads the questions that exist among ids, in no particular order.
func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Question, error) {
	if len(ids) == 0 {
		return []models.Question{}, nil
	}
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = ANY($1)`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list questions by id: %w", err)
	}
	return questions, nil
}

// Create inserts q and fills its generated fields.
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	const query = `INSERT INTO questions (type, content, options, answer, score, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, q.Type, q.Content, q.Options, q.Answer, q.Score, q.CreatedBy)
	if err := row.Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// Update overwrites the definition and refreshes total_score on every ONLINE_AUTO quiz that
// references it, in one transaction; sql.ErrNoRows when the id is unknown.
func (r *QuestionRepository) Update(ctx context.Context, q *models.Question) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin question update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE questions SET type = $2, content = $3, options = $4, answer = $5, score = $6, updated_at = NOW()
WHERE id = $1
RETURNING created_at, updated_at`
	row := tx.QueryRowxContext(ctx, query, q.ID, q.Type, q.Content, q.Options, q.Answer, q.Score)
	if err = row.Scan(&q.CreatedAt, &q.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("update question: %w", err)
	}

	const totalsQuery = `UPDATE quizzes SET total_score = (
	SELECT COALESCE(SUM(qs.score), 0) FROM questions qs
	WHERE qs.id IN (SELECT jsonb_array_elements_text(quizzes.question_ids)::bigint)
), updated_at = NOW()
WHERE category = 'ONLINE_AUTO' AND question_ids @> jsonb_build_array($1::bigint)`
	if _, err = tx.ExecContext(ctx, totalsQuery, q.ID); err != nil {
		return fmt.Errorf("refresh quiz totals: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit question update: %w", err)
	}
	return nil
}

// Delete removes the question; sql.ErrNoRows when nothing was deleted.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete question rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func normalisePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
