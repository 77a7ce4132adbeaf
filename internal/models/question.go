package models

import "time"

// QuestionType selects the correctness rule applied when scoring.
type QuestionType string

const (
	QuestionTypeSingle    QuestionType = "SINGLE"
	QuestionTypeMultiple  QuestionType = "MULTIPLE"
	QuestionTypeTrueFalse QuestionType = "TRUE_FALSE"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingle, QuestionTypeMultiple, QuestionTypeTrueFalse:
		return true
	}
	return false
}

// SingleAnswer reports whether the type expects exactly one answer value.
func (t QuestionType) SingleAnswer() bool {
	return t == QuestionTypeSingle || t == QuestionTypeTrueFalse
}

// QuestionOption is one selectable choice.
type QuestionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Question is a bank entry that quizzes reference by id.
type Question struct {
	ID        int64           `db:"id" json:"id"`
	Type      QuestionType    `db:"type" json:"type"`
	Content   string          `db:"content" json:"content"`
	Options   QuestionOptions `db:"options" json:"options"`
	Answer    StringList      `db:"answer" json:"answer"`
	Score     int             `db:"score" json:"score"`
	CreatedBy *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// QuestionFilter narrows the question listing.
type QuestionFilter struct {
	Type     QuestionType
	Search   string
	Page     int
	PageSize int
}

