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

var statisticsRowColumns = []string{"id", "quiz_id", "participant_count", "avg_score", "max_score", "min_score", "median_score", "pass_rate", "distribution", "updated_at"}

func TestStatisticsUpsertKeepsIdentity(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatisticsRepository(db)

	updated := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (quiz_id) DO UPDATE SET")).
		WithArgs(int64(4), 5, 75.0, 95, 55, 75.0, 0.8, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(int64(12), updated))

	stats := &models.GradeStatistics{QuizID: 4, ParticipantCount: 5, AvgScore: 75, MaxScore: 95, MinScore: 55, MedianScore: 75, PassRate: 0.8}
	require.NoError(t, repo.Upsert(context.Background(), stats))
	assert.Equal(t, int64(12), stats.ID)
	assert.Equal(t, updated, stats.UpdatedAt)
	assert.Len(t, stats.Distribution, 5)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatisticsFindByQuizID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatisticsRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_statistics WHERE quiz_id = $1")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(statisticsRowColumns).
			AddRow(int64(12), int64(4), 2, "72.50", 80, 65, "72.5", "0.50", []byte(`[{"band":"60-70","count":1},{"band":"80-90","count":1}]`), now))

	stats, err := repo.FindByQuizID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 72.5, stats.AvgScore)
	assert.Equal(t, 0.5, stats.PassRate)
	assert.Equal(t, 2, stats.Distribution.Total())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatisticsFindMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery("FROM grade_statistics").WillReturnError(sql.ErrNoRows)
	_, err := NewStatisticsRepository(db).FindByQuizID(context.Background(), 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseHourMarkFinishedIgnoresDuplicates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	finished := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (user_id, hour_id) DO NOTHING")).
		WithArgs("u1", int64(3), int64(7), finished).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewCourseHourRepository(db).MarkFinished(context.Background(), models.CourseHourCompletion{UserID: "u1", CourseID: 3, HourID: 7, FinishedAt: finished})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
