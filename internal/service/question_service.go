package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/quiz-grade-api/internal/dto"
	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	"github.com/noah-isme/quiz-grade-api/pkg/orderedset"
	"github.com/noah-isme/quiz-grade-api/pkg/validation"
)

type questionStore interface {
	List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error)
	FindByID(ctx context.Context, id int64) (*models.Question, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Question, error)
	Create(ctx context.Context, q *models.Question) error
	Update(ctx context.Context, q *models.Question) error
	Delete(ctx context.Context, id int64) error
}

type questionReferences interface {
	CountReferencing(ctx context.Context, questionID int64) (int, error)
	ListReferencing(ctx context.Context, questionID int64) ([]models.Quiz, error)
}

// QuestionService manages the question bank.
type QuestionService struct {
	repo      questionStore
	quizzes   questionReferences
	validator *validation.Validator
	logger    *zap.Logger
}

// NewQuestionService constructs QuestionService.
func NewQuestionService(repo questionStore, quizzes questionReferences, validator *validation.Validator, logger *zap.Logger) *QuestionService {
	if validator == nil {
		validator = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{repo: repo, quizzes: quizzes, validator: validator, logger: logger}
}

// List returns a page of questions and the total count.
func (s *QuestionService) List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error) {
	questions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}
	return questions, total, nil
}

// Get returns one question.
func (s *QuestionService) Get(ctx context.Context, id int64) (*models.Question, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	return q, nil
}

// Create validates and stores a new question.
func (s *QuestionService) Create(ctx context.Context, req dto.QuestionRequest, actorID string) (*models.Question, error) {
	q, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	if actorID != "" {
		q.CreatedBy = &actorID
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}
	s.logger.Info("question created", zap.Int64("question_id", q.ID), zap.String("type", string(q.Type)))
	return q, nil
}

// Update validates and overwrites an existing question.
func (s *QuestionService) Update(ctx context.Context, id int64, req dto.QuestionRequest) (*models.Question, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	q.ID = existing.ID
	q.CreatedBy = existing.CreatedBy
	if q.Score != existing.Score {
		if err := s.checkReferencingTotals(ctx, q); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, q); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}
	return q, nil
}

// checkReferencingTotals rejects a score change that would leave an ONLINE_AUTO quiz with a
// total below its pass score. The repository refreshes the totals themselves.
func (s *QuestionService) checkReferencingTotals(ctx context.Context, q *models.Question) error {
	quizzes, err := s.quizzes.ListReferencing(ctx, q.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check question usage")
	}
	for _, quiz := range quizzes {
		if quiz.Category != models.QuizCategoryOnlineAuto {
			continue
		}
		questions, err := s.repo.ListByIDs(ctx, orderedset.New([]int64(quiz.QuestionIDs)...).Values())
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz questions")
		}
		total := 0
		for _, other := range questions {
			if other.ID == q.ID {
				total += q.Score
				continue
			}
			total += other.Score
		}
		if quiz.PassScore > total {
			return appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("quiz %d would total %d, below its pass score %d", quiz.ID, total, quiz.PassScore)),
				map[string]string{"quiz_id": strconv.FormatInt(quiz.ID, 10)},
			)
		}
	}
	return nil
}

// Delete removes a question unless a quiz still references it.
func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	count, err := s.quizzes.CountReferencing(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check question usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("question is used by %d quiz(zes)", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	return nil
}

func (s *QuestionService) prepare(req dto.QuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	qType := models.QuestionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if !qType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported question type")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content is required")
	}

	options := make(models.QuestionOptions, 0, len(req.Options))
	for _, opt := range req.Options {
		value := strings.TrimSpace(opt.Value)
		if value == "" {
			continue
		}
		options = append(options, models.QuestionOption{Value: value, Label: strings.TrimSpace(opt.Label)})
	}
	if qType == models.QuestionTypeTrueFalse && len(options) < 2 {
		options = models.QuestionOptions{{Value: "TRUE", Label: "True"}, {Value: "FALSE", Label: "False"}}
	}
	if len(options) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least two options are required")
	}

	values := orderedset.New[string]()
	for _, opt := range options {
		if !values.Add(opt.Value) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "option values must be unique")
		}
	}

	answer := normaliseValues(req.Answer)
	if answer.Len() == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "answer is required")
	}
	if qType.SingleAnswer() && answer.Len() != 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "single choice questions need exactly one answer")
	}
	for _, v := range answer.Values() {
		if !values.Contains(v) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("answer %q is not a defined option", v))
		}
	}

	return &models.Question{
		Type:    qType,
		Content: content,
		Options: options,
		Answer:  answer.Values(),
		Score:   req.Score,
	}, nil
}
