package service

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
)

type fakeQuizRepo struct {
	quizzes  map[int64]*models.Quiz
	err      error
	created  *models.Quiz
	updated  *models.Quiz
	nextID   int64
	listed   []models.Quiz
	refCount int
}

func newFakeQuizRepo(quizzes ...*models.Quiz) *fakeQuizRepo {
	repo := &fakeQuizRepo{quizzes: map[int64]*models.Quiz{}, nextID: 100}
	for _, q := range quizzes {
		repo.quizzes[q.ID] = q
	}
	return repo
}

func (f *fakeQuizRepo) List(context.Context, models.QuizFilter) ([]models.Quiz, int, error) {
	return f.listed, len(f.listed), f.err
}

func (f *fakeQuizRepo) FindByID(_ context.Context, id int64) (*models.Quiz, error) {
	if f.err != nil {
		return nil, f.err
	}
	q, ok := f.quizzes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *q
	return &copied, nil
}

func (f *fakeQuizRepo) ListByIDs(_ context.Context, ids []int64) ([]models.Quiz, error) {
	var out []models.Quiz
	for _, id := range ids {
		if q, ok := f.quizzes[id]; ok {
			out = append(out, *q)
		}
	}
	return out, f.err
}

func (f *fakeQuizRepo) Create(_ context.Context, quiz *models.Quiz) error {
	f.nextID++
	quiz.ID = f.nextID
	f.created = quiz
	return f.err
}

func (f *fakeQuizRepo) Update(_ context.Context, quiz *models.Quiz) error {
	f.updated = quiz
	return f.err
}

func (f *fakeQuizRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.quizzes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.quizzes, id)
	return nil
}

func (f *fakeQuizRepo) CountReferencing(context.Context, int64) (int, error) {
	return f.refCount, f.err
}

func (f *fakeQuizRepo) ListReferencing(_ context.Context, questionID int64) ([]models.Quiz, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Quiz
	for _, q := range f.quizzes {
		for _, id := range q.QuestionIDs {
			if id == questionID {
				out = append(out, *q)
				break
			}
		}
	}
	return out, nil
}

type fakeQuestionRepo struct {
	questions map[int64]models.Question
	created   *models.Question
	deleted   int64
}

func newFakeQuestionRepo(questions ...models.Question) *fakeQuestionRepo {
	repo := &fakeQuestionRepo{questions: map[int64]models.Question{}}
	for _, q := range questions {
		repo.questions[q.ID] = q
	}
	return repo
}

func (f *fakeQuestionRepo) List(context.Context, models.QuestionFilter) ([]models.Question, int, error) {
	out := make([]models.Question, 0, len(f.questions))
	for _, q := range f.questions {
		out = append(out, q)
	}
	return out, len(out), nil
}

func (f *fakeQuestionRepo) FindByID(_ context.Context, id int64) (*models.Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &q, nil
}

func (f *fakeQuestionRepo) ListByIDs(_ context.Context, ids []int64) ([]models.Question, error) {
	var out []models.Question
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestionRepo) Create(_ context.Context, q *models.Question) error {
	q.ID = int64(len(f.questions) + 1)
	f.questions[q.ID] = *q
	f.created = q
	return nil
}

func (f *fakeQuestionRepo) Update(_ context.Context, q *models.Question) error {
	f.questions[q.ID] = *q
	return nil
}

func (f *fakeQuestionRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.questions[id]; !ok {
		return sql.ErrNoRows
	}
	f.deleted = id
	delete(f.questions, id)
	return nil
}

// fakeAttemptRepo mimics user_quiz_records, including the overwrite-in-place manual path.
type fakeAttemptRepo struct {
	mu        sync.Mutex
	records   []models.QuizAttempt
	nextID    int64
	failUsers map[string]bool
	now       time.Time
	top       []models.TopScore
	topCalls  int
}

func (f *fakeAttemptRepo) RecordOnlineAttempt(_ context.Context, p models.OnlineAttemptParams) (*models.QuizAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a := models.QuizAttempt{ID: f.nextID, UserID: p.UserID, QuizID: p.QuizID, CourseHourID: p.CourseHourID, Score: p.Score, Passed: p.Passed, Answers: p.Answers, CreatedAt: f.now}
	f.records = append(f.records, a)
	return &a, nil
}

func (f *fakeAttemptRepo) UpsertManualScore(_ context.Context, p models.ManualScoreParams) (*models.QuizAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUsers[p.UserID] {
		return nil, sql.ErrConnDone
	}
	takenAt := f.now
	if p.TakenAt != nil {
		takenAt = *p.TakenAt
	}
	for i := len(f.records) - 1; i >= 0; i-- {
		r := &f.records[i]
		if r.UserID == p.UserID && r.QuizID == p.QuizID {
			r.Score, r.Passed, r.Comment, r.CreatedAt = p.Score, p.Passed, strings.TrimSpace(p.Comment), takenAt
			copied := *r
			return &copied, nil
		}
	}
	f.nextID++
	a := models.QuizAttempt{ID: f.nextID, UserID: p.UserID, QuizID: p.QuizID, Score: p.Score, Passed: p.Passed, Comment: strings.TrimSpace(p.Comment), Answers: models.AnswerSheet{}, CreatedAt: takenAt}
	f.records = append(f.records, a)
	return &a, nil
}

func (f *fakeAttemptRepo) LatestForCourseHour(_ context.Context, userID string, courseHourID int64) (*models.QuizAttempt, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].UserID == userID && f.records[i].CourseHourID == courseHourID {
			copied := f.records[i]
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAttemptRepo) AllForQuiz(_ context.Context, quizID int64) ([]models.QuizAttempt, error) {
	var out []models.QuizAttempt
	for _, r := range f.records {
		if r.QuizID == quizID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttemptRepo) ListForLearner(_ context.Context, userID string, from, to *time.Time) ([]models.QuizAttempt, error) {
	var out []models.QuizAttempt
	for _, r := range f.records {
		if r.UserID != userID {
			continue
		}
		if from != nil && r.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && r.CreatedAt.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeAttemptRepo) TopScoresBetween(_ context.Context, _, _ time.Time, limit int) ([]models.TopScore, error) {
	f.topCalls++
	return f.top, nil
}

func (f *fakeAttemptRepo) TopScoresAllTime(_ context.Context, limit int) ([]models.TopScore, error) {
	f.topCalls++
	return f.top, nil
}

func (f *fakeAttemptRepo) forUser(userID string, quizID int64) []models.QuizAttempt {
	var out []models.QuizAttempt
	for _, r := range f.records {
		if r.UserID == userID && r.QuizID == quizID {
			out = append(out, r)
		}
	}
	return out
}

type fakeStatsStore struct {
	snapshots map[int64]models.GradeStatistics
	upserts   int
	now       time.Time
	err       error
}

func newFakeStatsStore(now time.Time) *fakeStatsStore {
	return &fakeStatsStore{snapshots: map[int64]models.GradeStatistics{}, now: now}
}

func (f *fakeStatsStore) FindByQuizID(_ context.Context, quizID int64) (*models.GradeStatistics, error) {
	s, ok := f.snapshots[quizID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeStatsStore) ListByQuizIDs(_ context.Context, ids []int64) (map[int64]models.GradeStatistics, error) {
	out := map[int64]models.GradeStatistics{}
	for _, id := range ids {
		if s, ok := f.snapshots[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (f *fakeStatsStore) Upsert(_ context.Context, stats *models.GradeStatistics) error {
	if f.err != nil {
		return f.err
	}
	f.upserts++
	stats.UpdatedAt = f.now
	f.snapshots[stats.QuizID] = *stats
	return nil
}

type fakeUserRepo struct {
	users []models.User
}

func (f *fakeUserRepo) find(match func(models.User) bool) (*models.User, error) {
	for _, u := range f.users {
		if match(u) {
			copied := u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	return f.find(func(u models.User) bool { return u.ID == id })
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u models.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) FindByIDCard(_ context.Context, idCard string) (*models.User, error) {
	return f.find(func(u models.User) bool { return u.IDCard != nil && *u.IDCard == idCard })
}

func (f *fakeUserRepo) ListByIDs(_ context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, err := f.FindByID(context.Background(), id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeCacheRepo struct {
	store   map[string]interface{}
	deleted []string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{store: map[string]interface{}{}}
}

func (f *fakeCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	value, ok := f.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if typed, ok := dest.(*[]models.TopScore); ok {
		*typed = value.([]models.TopScore)
	}
	return nil
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.store[key] = value
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	f.deleted = append(f.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.store {
		if strings.HasPrefix(key, prefix) {
			delete(f.store, key)
		}
	}
	return nil
}

type recordingStatistics struct {
	calls  []bool
	err    error
	quizID int64
}

func (r *recordingStatistics) Compute(_ context.Context, quizID int64, force bool) (*models.GradeAnalysis, error) {
	r.quizID = quizID
	r.calls = append(r.calls, force)
	if r.err != nil {
		return nil, r.err
	}
	return &models.GradeAnalysis{QuizID: quizID}, nil
}

type recordingInvalidator struct {
	count int
}

func (r *recordingInvalidator) Invalidate(context.Context) {
	r.count++
}

type recordingNotifier struct {
	userID         string
	courseID, hour int64
	calls          int
}

func (r *recordingNotifier) NotifyCompleted(userID string, courseID, hourID int64) {
	r.userID, r.courseID, r.hour = userID, courseID, hourID
	r.calls++
}

func strPtr(s string) *string {
	return &s
}
