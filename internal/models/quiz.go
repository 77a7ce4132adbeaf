package models

import "time"

// QuizCategory distinguishes auto-graded online quizzes from offline exams.
type QuizCategory string

const (
	QuizCategoryOnlineAuto    QuizCategory = "ONLINE_AUTO"
	QuizCategoryOfflineManual QuizCategory = "OFFLINE_MANUAL"
)

// ParseQuizCategory normalises blank or unknown values to ONLINE_AUTO.
func ParseQuizCategory(raw string) QuizCategory {
	if QuizCategory(raw) == QuizCategoryOfflineManual {
		return QuizCategoryOfflineManual
	}
	return QuizCategoryOnlineAuto
}

// Quiz is a quiz definition.
type Quiz struct {
	ID          int64          `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Category    QuizCategory   `db:"category" json:"category"`
	TotalScore  int            `db:"total_score" json:"total_score"`
	PassScore   int            `db:"pass_score" json:"pass_score"`
	ExamDate    *time.Time     `db:"exam_date" json:"exam_date,omitempty"`
	QuestionIDs QuestionIDList `db:"question_ids" json:"question_ids"`
	CreatedBy   *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// QuizFilter narrows the quiz listing.
type QuizFilter struct {
	Category QuizCategory
	Search   string
	Page     int
	PageSize int
}

// QuizListItem pairs a quiz with its cached statistics snapshot, if one exists.
type QuizListItem struct {
	Quiz
	Statistics *GradeStatistics `json:"statistics,omitempty"`
}
