package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/quiz-grade-api/internal/dto"
	"github.com/noah-isme/quiz-grade-api/internal/models"
	"github.com/noah-isme/quiz-grade-api/pkg/dateparse"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	"github.com/noah-isme/quiz-grade-api/pkg/orderedset"
	"github.com/noah-isme/quiz-grade-api/pkg/validation"
)

type quizStore interface {
	List(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, int, error)
	FindByID(ctx context.Context, id int64) (*models.Quiz, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id int64) error
}

type questionLister interface {
	ListByIDs(ctx context.Context, ids []int64) ([]models.Question, error)
}

type statisticsSnapshotLister interface {
	ListByQuizIDs(ctx context.Context, quizIDs []int64) (map[int64]models.GradeStatistics, error)
}

// QuizService manages quiz definitions and resolves their questions.
type QuizService struct {
	quizzes   quizStore
	questions questionLister
	snapshots statisticsSnapshotLister
	validator *validation.Validator
	location  *time.Location
	logger    *zap.Logger
}

// NewQuizService constructs QuizService. loc is used for exam dates without an offset.
func NewQuizService(quizzes quizStore, questions questionLister, snapshots statisticsSnapshotLister, validator *validation.Validator, loc *time.Location, logger *zap.Logger) *QuizService {
	if validator == nil {
		validator = validation.New()
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{quizzes: quizzes, questions: questions, snapshots: snapshots, validator: validator, location: loc, logger: logger}
}

// List returns a page of quizzes, each with its cached statistics snapshot when one exists.
func (s *QuizService) List(ctx context.Context, filter models.QuizFilter) ([]models.QuizListItem, int, error) {
	quizzes, total, err := s.quizzes.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}

	ids := make([]int64, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	snapshots := map[int64]models.GradeStatistics{}
	if s.snapshots != nil && len(ids) > 0 {
		if snapshots, err = s.snapshots.ListByQuizIDs(ctx, ids); err != nil {
			s.logger.Warn("load statistics snapshots failed", zap.Error(err))
			snapshots = map[int64]models.GradeStatistics{}
		}
	}

	items := make([]models.QuizListItem, 0, len(quizzes))
	for _, q := range quizzes {
		item := models.QuizListItem{Quiz: q}
		if stats, ok := snapshots[q.ID]; ok {
			stats := stats
			item.Statistics = &stats
		}
		items = append(items, item)
	}
	return items, total, nil
}

// Get returns one quiz or NOT_FOUND.
func (s *QuizService) Get(ctx context.Context, id int64) (*models.Quiz, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	return quiz, nil
}

// Create validates and stores a quiz.
func (s *QuizService) Create(ctx context.Context, req dto.QuizRequest, actorID string) (*models.Quiz, error) {
	quiz, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if actorID != "" {
		quiz.CreatedBy = &actorID
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}
	s.logger.Info("quiz created", zap.Int64("quiz_id", quiz.ID), zap.String("category", string(quiz.Category)), zap.Int("total_score", quiz.TotalScore))
	return quiz, nil
}

// Update validates and overwrites a quiz.
func (s *QuizService) Update(ctx context.Context, id int64, req dto.QuizRequest) (*models.Quiz, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	quiz, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	quiz.ID = existing.ID
	quiz.CreatedBy = existing.CreatedBy
	if err := s.quizzes.Update(ctx, quiz); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update quiz")
	}
	return quiz, nil
}

// Delete removes the quiz definition; its attempts remain for reporting.
func (s *QuizService) Delete(ctx context.Context, id int64) error {
	if err := s.quizzes.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete quiz")
	}
	return nil
}

// Questions resolves the quiz's questions in quiz order. A missing question is a DATA_INTEGRITY error.
func (s *QuizService) Questions(ctx context.Context, quiz *models.Quiz) ([]models.Question, error) {
	ids := orderedset.New([]int64(quiz.QuestionIDs)...).Values()
	found, err := s.questions.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz questions")
	}
	byID := make(map[int64]models.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}

	ordered := make([]models.Question, 0, len(ids))
	var missing []string
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			missing = append(missing, strconv.FormatInt(id, 10))
			continue
		}
		ordered = append(ordered, q)
	}
	if len(missing) > 0 {
		s.logger.Error("quiz references missing questions", zap.Int64("quiz_id", quiz.ID), zap.Strings("question_ids", missing))
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("quiz %d references missing questions", quiz.ID)),
			map[string]string{"question_ids": strings.Join(missing, ",")},
		)
	}
	return ordered, nil
}

func (s *QuizService) prepare(ctx context.Context, req dto.QuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}

	quiz := &models.Quiz{
		Title:       title,
		Category:    models.ParseQuizCategory(strings.ToUpper(strings.TrimSpace(req.Category))),
		PassScore:   req.PassScore,
		QuestionIDs: models.QuestionIDList{},
	}

	examDate, err := dateparse.Parse(req.ExamDate, s.location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format")
	}
	if examDate != nil {
		t := examDate.Time
		quiz.ExamDate = &t
	}

	switch quiz.Category {
	case models.QuizCategoryOfflineManual:
		if req.TotalScore <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "total score must be greater than zero")
		}
		quiz.TotalScore = req.TotalScore
	default:
		ids := orderedset.New(req.QuestionIDs...).Values()
		if len(ids) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "online quizzes need at least one question")
		}
		total, err := s.sumQuestionScores(ctx, ids)
		if err != nil {
			return nil, err
		}
		quiz.QuestionIDs = ids
		quiz.TotalScore = total
	}

	if quiz.PassScore < 0 || quiz.PassScore > quiz.TotalScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pass score must be between 0 and the total score")
	}
	return quiz, nil
}

func (s *QuizService) sumQuestionScores(ctx context.Context, ids []int64) (int, error) {
	found, err := s.questions.ListByIDs(ctx, ids)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	scores := make(map[int64]int, len(found))
	for _, q := range found {
		scores[q.ID] = q.Score
	}
	total := 0
	for _, id := range ids {
		score, ok := scores[id]
		if !ok {
			return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("question %d not found", id))
		}
		total += score
	}
	return total, nil
}
