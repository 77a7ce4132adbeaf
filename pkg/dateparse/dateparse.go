// Package dateparse reads the loose date strings accepted by the grade endpoints.
package dateparse

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidFormat is returned for non-empty input matching no supported layout.
var ErrInvalidFormat = errors.New("invalid date format")

const dateOnly = "2006-01-02"

type layout struct {
	value    string
	zoned    bool
	dateOnly bool
}

var layouts = []layout{
	{value: time.RFC3339Nano, zoned: true},
	{value: "2006-01-02T15:04:05.999999999"},
	{value: "2006-01-02T15:04:05"},
	{value: "2006-01-02T15:04"},
	{value: "2006-01-02 15:04:05"},
	{value: "2006-01-02 15:04"},
	{value: dateOnly, dateOnly: true},
}

// Value is a parsed instant plus whether the input carried only a calendar date.
type Value struct {
	Time     time.Time
	DateOnly bool
}

// Parse interprets raw in loc unless it carries its own offset. Blank input yields nil.
func Parse(raw string, loc *time.Location) (*Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}

	for _, l := range layouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.value, raw)
		} else {
			t, err = time.ParseInLocation(l.value, raw, loc)
		}
		if err == nil {
			return &Value{Time: t, DateOnly: l.dateOnly}, nil
		}
	}
	return nil, ErrInvalidFormat
}

// Start parses a lower bound.
func Start(raw string, loc *time.Location) (*time.Time, error) {
	v, err := Parse(raw, loc)
	if err != nil || v == nil {
		return nil, err
	}
	return &v.Time, nil
}

// End parses an inclusive upper bound; a bare date covers the whole day.
func End(raw string, loc *time.Location) (*time.Time, error) {
	v, err := Parse(raw, loc)
	if err != nil || v == nil {
		return nil, err
	}
	t := v.Time
	if v.DateOnly {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
