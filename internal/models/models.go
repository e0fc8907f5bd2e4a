package models

import (
	"time"
)

// Report categories accepted by the submission endpoint.
const (
	CategoryAccomplishment = "accomplishment"
	CategoryTodo           = "todo"
	CategoryAward          = "award"
	CategoryImpact         = "impact"
)

// Report lifecycle statuses. Reports are graded synchronously at creation;
// "pending" exists only for admin edits and legacy rows.
const (
	StatusPending  = "pending"
	StatusGraded   = "graded"
	StatusRejected = "rejected"
)

// ValidCategory reports whether c is one of the fixed report categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryAccomplishment, CategoryTodo, CategoryAward, CategoryImpact:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known report status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusGraded, StatusRejected:
		return true
	}
	return false
}

// Student represents a student and their cumulative ELO score
type Student struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Elo       int       `json:"elo" db:"elo"`
	School    *string   `json:"school,omitempty" db:"school"`
	Grade     *string   `json:"grade,omitempty" db:"grade"`
	AvatarURL *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Report represents one graded submission
type Report struct {
	ID            string         `json:"id" db:"id"`
	StudentID     string         `json:"student_id" db:"student_id"`
	Title         string         `json:"title" db:"title"`
	Description   string         `json:"description" db:"description"`
	Category      string         `json:"category" db:"category"`
	FileURLs      []string       `json:"file_urls" db:"file_urls"`
	EloAwarded    int            `json:"elo_awarded" db:"elo_awarded"`
	Feedback      string         `json:"ai_feedback" db:"ai_feedback"`
	AnalysisParts []string       `json:"analysis_parts" db:"analysis_parts"`
	CategoryScore *CategoryScore `json:"category_score,omitempty"`
	Status        string         `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	GradedAt      *time.Time     `json:"graded_at,omitempty" db:"graded_at"`
}

// CategoryScore holds the four grading sub-metrics, each in [0,10]
type CategoryScore struct {
	Impact       int `json:"impact"`
	Productivity int `json:"productivity"`
	Quality      int `json:"quality"`
	Relevance    int `json:"relevance"`
}

// Evaluation is the normalized output of the scoring model for one report.
// EloAwarded is always in [0,100] and sub-scores in [0,10]; a zero-value
// Evaluation with apologetic feedback stands in for any upstream failure.
type Evaluation struct {
	EloAwarded    int           `json:"elo_awarded"`
	Feedback      string        `json:"feedback"`
	AnalysisParts []string      `json:"analysis_parts"`
	CategoryScore CategoryScore `json:"category_score"`
}

// LeaderboardEntry is a student with their global rank
type LeaderboardEntry struct {
	Student
	Rank int `json:"rank"`
}
