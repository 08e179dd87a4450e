package backlog

import (
	"strings"
	"time"
)

// Status represents the lifecycle stage of a knowledge gap.
type Status string

const (
	StatusOpen     Status = "open"
	StatusAnswered Status = "answered"
	StatusRetired  Status = "retired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAnswered, StatusRetired:
		return true
	}
	return false
}

// Gap is a question the knowledge base had no relevant documents for.
// Repeats of the same question are folded into one gap.
type Gap struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	TimesAsked  int        `json:"times_asked"`
	Status      Status     `json:"status"`
	Answer      string     `json:"answer,omitempty"`
	AnsweredBy  string     `json:"answered_by,omitempty"`
	AnsweredAt  *time.Time `json:"answered_at,omitempty"`
	LastAskedAt time.Time  `json:"last_asked_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListFilter controls which gaps to return.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// questionKey folds case, whitespace and trailing punctuation so that
// repeats of a question collapse into one gap.
func questionKey(q string) string {
	key := strings.Join(strings.Fields(strings.ToLower(q)), " ")
	return strings.TrimRight(key, "?!. ")
}
