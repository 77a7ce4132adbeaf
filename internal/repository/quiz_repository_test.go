package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quiz-grade-api/internal/models"
)

var quizRowColumns = []string{"id", "title", "category", "total_score", "pass_score", "exam_date", "question_ids", "created_by", "created_at", "updated_at"}

func TestQuizListFiltersAndCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(quizRowColumns).
		AddRow(2, "Week 2", "ONLINE_AUTO", 10, 5, nil, []byte("[1,2]"), nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM quizzes WHERE 1=1 AND category = $1 AND LOWER(title) LIKE $2 ORDER BY id DESC LIMIT 20 OFFSET 20")).
		WithArgs("ONLINE_AUTO", "%week%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM quizzes WHERE 1=1 AND category = $1")).
		WithArgs("ONLINE_AUTO", "%week%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	quizzes, total, err := repo.List(context.Background(), models.QuizFilter{Category: "ONLINE_AUTO", Search: "Week", Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, quizzes, 1)
	assert.Equal(t, models.QuestionIDList{1, 2}, quizzes[0].QuestionIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizCreateReturnsGeneratedFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	now := time.Now()
	quiz := &models.Quiz{Title: "Midterm", Category: models.QuizCategoryOfflineManual, TotalScore: 100, PassScore: 60, QuestionIDs: models.QuestionIDList{}}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO quizzes")).
		WithArgs("Midterm", models.QuizCategoryOfflineManual, 100, 60, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))

	require.NoError(t, repo.Create(context.Background(), quiz))
	assert.Equal(t, int64(7), quiz.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizUpdateUnknown(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE quizzes SET")).
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &models.Quiz{ID: 4})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM quizzes WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 4), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizCountReferencing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("question_ids @> jsonb_build_array($1::bigint)")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountReferencing(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizListByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	quizzes, err := NewQuizRepository(db).ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quizzes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizListReferencing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(quizRowColumns).
		AddRow(int64(5), "Week 1", "ONLINE_AUTO", 20, 20, nil, []byte(`[1,2]`), nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM quizzes WHERE question_ids @> jsonb_build_array($1::bigint) ORDER BY id")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	quizzes, err := NewQuizRepository(db).ListReferencing(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, models.QuestionIDList{1, 2}, quizzes[0].QuestionIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
