package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ultra-eval/internal/models"
	"ultra-eval/internal/repository"
)

// ErrMissingFields is returned when a submission lacks a required field.
var ErrMissingFields = errors.New("missing required fields")

// ErrInvalidCategory is returned when a submission names an unknown category.
var ErrInvalidCategory = errors.New("invalid report category")

// StudentStore is the subset of the student repository the workflow needs.
type StudentStore interface {
	GetByID(id string) (*models.Student, error)
	AddElo(id string, delta int) (int, error)
}

// ReportStore is the subset of the report repository the workflow needs.
type ReportStore interface {
	Create(report *models.Report) error
}

// Evaluator grades a report and never fails (degraded outcomes carry warnings).
type Evaluator interface {
	Evaluate(ctx context.Context, title, description, category string, fileURLs []string) *EvaluationOutcome
}

// Notifier dispatches the grade notification to the student.
type Notifier interface {
	SendGradeNotification(to, studentName string, report *models.Report, evaluation *models.Evaluation) error
}

// SubmissionService sequences the side effects of one accomplishment
// submission: student lookup, evaluation, report insert, score increment,
// notification.
type SubmissionService struct {
	students  StudentStore
	reports   ReportStore
	evaluator Evaluator
	notifier  Notifier
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(students StudentStore, reports ReportStore, evaluator Evaluator, notifier Notifier) *SubmissionService {
	return &SubmissionService{
		students:  students,
		reports:   reports,
		evaluator: evaluator,
		notifier:  notifier,
	}
}

// SubmitReportInput is one submission attempt
type SubmitReportInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	StudentID   string   `json:"studentId"`
	FileURLs    []string `json:"fileUrls"`
}

// SubmissionResult is the outcome of a successful submission. Warnings lists
// non-fatal degradations (evaluation fallback, failed score increment,
// failed notification) that did not block the success path.
type SubmissionResult struct {
	Report     *models.Report    `json:"report"`
	Evaluation models.Evaluation `json:"evaluation"`
	NewElo     int               `json:"newElo"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// SubmitReport runs the submission pipeline. It returns an error only for
// input validation failures, an unknown student, or a failed report insert;
// everything downstream of the insert is best-effort and reported through
// SubmissionResult.Warnings.
func (s *SubmissionService) SubmitReport(ctx context.Context, input SubmitReportInput) (*SubmissionResult, error) {
	if input.Title == "" || input.Description == "" || input.Category == "" || input.StudentID == "" {
		return nil, ErrMissingFields
	}
	if !models.ValidCategory(input.Category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, input.Category)
	}

	student, err := s.students.GetByID(input.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}

	outcome := s.evaluator.Evaluate(ctx, input.Title, input.Description, input.Category, input.FileURLs)
	evaluation := outcome.Evaluation
	warnings := append([]string(nil), outcome.Warnings...)

	fileURLs := input.FileURLs
	if fileURLs == nil {
		fileURLs = []string{}
	}

	now := time.Now()
	report := &models.Report{
		StudentID:     student.ID,
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		FileURLs:      fileURLs,
		EloAwarded:    evaluation.EloAwarded,
		Feedback:      evaluation.Feedback,
		AnalysisParts: evaluation.AnalysisParts,
		CategoryScore: &evaluation.CategoryScore,
		Status:        models.StatusGraded,
		GradedAt:      &now,
	}

	if err := s.reports.Create(report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	// The report is durable from here on; a failed increment must not fail
	// the submission.
	newElo := student.Elo + evaluation.EloAwarded
	if updated, err := s.students.AddElo(student.ID, evaluation.EloAwarded); err != nil {
		slog.Error("Failed to update student elo",
			"student_id", student.ID,
			"delta", evaluation.EloAwarded,
			"error", err,
		)
		warnings = append(warnings, "failed to update student score")
	} else {
		newElo = updated
	}

	if s.notifier != nil {
		if err := s.notifier.SendGradeNotification(student.Email, student.Name, report, &evaluation); err != nil {
			slog.Error("Failed to send grade notification",
				"student_id", student.ID,
				"report_id", report.ID,
				"error", err,
			)
			warnings = append(warnings, "failed to send grade notification")
		}
	}

	return &SubmissionResult{
		Report:     report,
		Evaluation: evaluation,
		NewElo:     newElo,
		Warnings:   warnings,
	}, nil
}
