package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	"github.com/noah-isme/quiz-grade-api/pkg/middleware/requestid"
)

type importFixture struct {
	svc         *OfflineImportService
	attempts    *fakeAttemptRepo
	stats       *recordingStatistics
	leaderboard *recordingInvalidator
	examDate    time.Time
}

func newImportFixture(maxRows int) *importFixture {
	examDate := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)
	quizzes := newFakeQuizRepo(
		&models.Quiz{ID: 2, Title: "Final", Category: models.QuizCategoryOfflineManual, TotalScore: 100, PassScore: 60, ExamDate: &examDate},
		&models.Quiz{ID: 3, Title: "Online", Category: models.QuizCategoryOnlineAuto, TotalScore: 25, PassScore: 15},
	)
	users := &fakeUserRepo{users: []models.User{
		{ID: "1", Email: "a@x.com", FullName: "Ana"},
		{ID: "2", Email: "b@x.com", IDCard: strPtr("3201"), FullName: "Budi"},
	}}
	f := &importFixture{
		attempts:    &fakeAttemptRepo{now: time.Now()},
		stats:       &recordingStatistics{},
		leaderboard: &recordingInvalidator{},
		examDate:    examDate,
	}
	f.svc = NewOfflineImportService(OfflineImportDeps{
		Quizzes:     quizzes,
		Users:       users,
		Attempts:    f.attempts,
		Statistics:  f.stats,
		Leaderboard: f.leaderboard,
		MaxRows:     maxRows,
	})
	return f
}

func TestImportTalliesRows(t *testing.T) {
	f := newImportFixture(0)

	result, err := f.svc.Import(context.Background(), 2, "op", []models.ScoreRow{
		{Account: "a@x.com", Score: "85", Comment: "good"},
		{Account: "", Score: "50"},
		{Account: "missing@x.com", Score: "70"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.SkippedCount)
	// The third data row sits on sheet line 4 because line 1 is the header.
	assert.Equal(t, []string{"row 4: account not found"}, result.Errors)
	assert.NotEmpty(t, result.BatchID)
	assert.True(t, result.StatisticsRefreshed)

	saved := f.attempts.forUser("1", 2)
	require.Len(t, saved, 1)
	assert.Equal(t, 85, saved[0].Score)
	assert.True(t, saved[0].Passed)
	assert.Equal(t, "good", saved[0].Comment)
	assert.Equal(t, f.examDate, saved[0].CreatedAt)

	assert.Equal(t, []bool{true}, f.stats.calls)
	assert.Equal(t, 1, f.leaderboard.count)
}

func TestImportOverwritesManualScore(t *testing.T) {
	f := newImportFixture(0)
	ctx := context.Background()

	_, err := f.svc.Import(ctx, 2, "op", []models.ScoreRow{{Account: "a@x.com", Score: "40"}})
	require.NoError(t, err)
	_, err = f.svc.Import(ctx, 2, "op", []models.ScoreRow{{Account: "a@x.com", Score: "90"}})
	require.NoError(t, err)

	saved := f.attempts.forUser("1", 2)
	require.Len(t, saved, 1)
	assert.Equal(t, 90, saved[0].Score)
	assert.True(t, saved[0].Passed)
}

func TestImportRowErrors(t *testing.T) {
	f := newImportFixture(0)
	f.attempts.failUsers = map[string]bool{"2": true}

	result, err := f.svc.Import(context.Background(), 2, "op", []models.ScoreRow{
		{Account: "a@x.com", Score: ""},
		{Account: "a@x.com", Score: "abc"},
		{Account: "a@x.com", Score: "-3"},
		{Account: "a@x.com", Score: "NaN"},
		{Account: "3201", Score: "70"},
		{Account: "   ", Score: "12"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"row 2: missing score",
		"row 3: invalid score",
		"row 4: score must not be negative",
		"row 5: invalid score",
		"row 6: failed to save score",
	}, result.Errors)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, []bool{true}, f.stats.calls)
}

func TestImportRoundsHalfUpAndResolvesIDCard(t *testing.T) {
	f := newImportFixture(0)

	result, err := f.svc.Import(context.Background(), 2, "op", []models.ScoreRow{
		{Account: "a@x.com", Score: "59.5"},
		{Account: "3201", Score: "-0.4"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.SuccessCount)

	ana := f.attempts.forUser("1", 2)
	require.Len(t, ana, 1)
	assert.Equal(t, 60, ana[0].Score)
	assert.True(t, ana[0].Passed)

	budi := f.attempts.forUser("2", 2)
	require.Len(t, budi, 1)
	assert.Equal(t, 0, budi[0].Score)
	assert.False(t, budi[0].Passed)
}

func TestImportRejectsOnlineQuiz(t *testing.T) {
	f := newImportFixture(0)
	_, err := f.svc.Import(context.Background(), 3, "op", nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.stats.calls)
}

func TestImportUnknownQuiz(t *testing.T) {
	f := newImportFixture(0)
	_, err := f.svc.Import(context.Background(), 404, "op", nil)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestImportRowLimit(t *testing.T) {
	f := newImportFixture(1)
	_, err := f.svc.Import(context.Background(), 2, "op", []models.ScoreRow{{Account: "a"}, {Account: "b"}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestImportReportsFailedRecompute(t *testing.T) {
	f := newImportFixture(0)
	f.stats.err = errors.New("db down")

	result, err := f.svc.Import(context.Background(), 2, "op", []models.ScoreRow{{Account: "a@x.com", Score: "75"}})
	require.NoError(t, err)
	assert.False(t, result.StatisticsRefreshed)
	assert.Equal(t, 1, result.SuccessCount)
}

func TestImportFileReadsCSV(t *testing.T) {
	f := newImportFixture(0)
	sheet := "account,score,comment\na@x.com,88,well done\n,10,\n"

	result, err := f.svc.ImportFile(context.Background(), 2, "op", "scores.csv", strings.NewReader(sheet))
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, "well done", f.attempts.forUser("1", 2)[0].Comment)
}

func TestImportFileRejectsUnknownExtension(t *testing.T) {
	f := newImportFixture(0)
	_, err := f.svc.ImportFile(context.Background(), 2, "op", "scores.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

type memoryArchive struct {
	files map[string][]byte
}

func (m *memoryArchive) Save(name string, data []byte) (string, error) {
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[name] = data
	return name, nil
}

func TestImportFileArchivesUpload(t *testing.T) {
	f := newImportFixture(0)
	archive := &memoryArchive{}
	f.svc.archive = archive
	sheet := "account,score\na@x.com,70\n"

	result, err := f.svc.ImportFile(context.Background(), 2, "op", "uploads/scores.csv", strings.NewReader(sheet))
	require.NoError(t, err)

	want := "quiz-2/" + result.BatchID + "-scores.csv"
	assert.Equal(t, want, result.ArchivedAs)
	assert.Equal(t, sheet, string(archive.files[want]))
}

func TestImportRowWarningsCarryBatchContext(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	quizzes := newFakeQuizRepo(&models.Quiz{ID: 2, Category: models.QuizCategoryOfflineManual, TotalScore: 100, PassScore: 60})
	attempts := &fakeAttemptRepo{now: time.Now(), failUsers: map[string]bool{"1": true}}
	svc := NewOfflineImportService(OfflineImportDeps{
		Quizzes:     quizzes,
		Users:       &fakeUserRepo{users: []models.User{{ID: "1", Email: "a@x.com"}}},
		Attempts:    attempts,
		Statistics:  &recordingStatistics{},
		Leaderboard: &recordingInvalidator{},
		Logger:      zap.New(core),
	})

	ctx := requestid.WithContext(context.Background(), "req-7")
	result, err := svc.Import(ctx, 2, "op", []models.ScoreRow{{Account: "a@x.com", Score: "80"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"row 2: failed to save score"}, result.Errors)

	entries := logs.FilterMessage("save imported score failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, result.BatchID, fields["batch_id"])
	assert.Equal(t, int64(2), fields["quiz_id"])
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "1", fields["user_id"])
}
