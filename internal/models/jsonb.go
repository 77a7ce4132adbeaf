package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// QuestionOptions is the ordered option list persisted as JSONB.
type QuestionOptions []QuestionOption

func (o QuestionOptions) Value() (driver.Value, error) {
	if o == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

func (o *QuestionOptions) Scan(src interface{}) error {
	return scanJSON(src, o)
}

// StringList is an ordered list of strings persisted as JSONB.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// QuestionIDList is the ordered question id list of a quiz.
type QuestionIDList []int64

func (l QuestionIDList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *QuestionIDList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// AnswerSheet maps question id to the option values a learner picked.
type AnswerSheet map[int64][]string

func (a AnswerSheet) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *AnswerSheet) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// ScoreDistribution is the ordered band histogram persisted as JSONB.
type ScoreDistribution []BandCount

func (d ScoreDistribution) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

func (d *ScoreDistribution) Scan(src interface{}) error {
	return scanJSON(src, d)
}

func scanJSON(src interface{}, dest interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
