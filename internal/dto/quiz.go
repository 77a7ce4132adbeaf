package dto

import "github.com/noah-isme/quiz-grade-api/internal/models"

// QuestionRequest is the create/update payload for a question.
type QuestionRequest struct {
	Type    string                  `json:"type" validate:"required"`
	Content string                  `json:"content" validate:"required"`
	Options []models.QuestionOption `json:"options"`
	Answer  []string                `json:"answer" validate:"required,min=1"`
	Score   int                     `json:"score" validate:"gt=0"`
}

// QuizRequest is the create/update payload. TotalScore is ignored for ONLINE_AUTO.
type QuizRequest struct {
	Title       string  `json:"title" validate:"required"`
	Category    string  `json:"category"`
	QuestionIDs []int64 `json:"question_ids"`
	TotalScore  int     `json:"total_score"`
	PassScore   int     `json:"pass_score"`
	ExamDate    string  `json:"exam_date"`
}

// SubmissionRequest is the learner's answer payload for an online quiz.
type SubmissionRequest struct {
	CourseID     int64              `json:"course_id"`
	CourseHourID int64              `json:"course_hour_id" validate:"gte=0"`
	Answers      map[int64][]string `json:"answers"`
}
