package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ultra-eval/internal/models"
)

var ErrReportNotFound = errors.New("report not found")

// ReportRepository handles report database operations
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, student_id, title, description, category, file_urls, elo_awarded,
	       ai_feedback, analysis_parts, score_impact, score_productivity, score_quality,
	       score_relevance, status, created_at, graded_at`

func scanReport(row interface{ Scan(...any) error }) (*models.Report, error) {
	report := &models.Report{}
	var impact, productivity, quality, relevance sql.NullInt64

	err := row.Scan(
		&report.ID,
		&report.StudentID,
		&report.Title,
		&report.Description,
		&report.Category,
		pq.Array(&report.FileURLs),
		&report.EloAwarded,
		&report.Feedback,
		pq.Array(&report.AnalysisParts),
		&impact,
		&productivity,
		&quality,
		&relevance,
		&report.Status,
		&report.CreatedAt,
		&report.GradedAt,
	)
	if err != nil {
		return nil, err
	}

	if impact.Valid || productivity.Valid || quality.Valid || relevance.Valid {
		report.CategoryScore = &models.CategoryScore{
			Impact:       int(impact.Int64),
			Productivity: int(productivity.Int64),
			Quality:      int(quality.Int64),
			Relevance:    int(relevance.Int64),
		}
	}

	return report, nil
}

// Create persists a new report. The caller is responsible for having set the
// grading fields; status and graded_at are stored as given.
func (r *ReportRepository) Create(report *models.Report) error {
	query := `
		INSERT INTO reports (student_id, title, description, category, file_urls, elo_awarded,
		                     ai_feedback, analysis_parts, score_impact, score_productivity,
		                     score_quality, score_relevance, status, graded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`

	var impact, productivity, quality, relevance *int
	if cs := report.CategoryScore; cs != nil {
		impact, productivity, quality, relevance = &cs.Impact, &cs.Productivity, &cs.Quality, &cs.Relevance
	}

	err := r.db.QueryRow(
		query,
		report.StudentID,
		report.Title,
		report.Description,
		report.Category,
		pq.Array(report.FileURLs),
		report.EloAwarded,
		report.Feedback,
		pq.Array(report.AnalysisParts),
		impact,
		productivity,
		quality,
		relevance,
		report.Status,
		report.GradedAt,
	).Scan(&report.ID, &report.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	report, err := scanReport(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

// ListByStudent retrieves a student's reports, newest first
func (r *ReportRepository) ListByStudent(studentID string) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE student_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}

	return reports, rows.Err()
}

// Update overwrites a report's grading fields (admin override path)
func (r *ReportRepository) Update(report *models.Report) error {
	query := `
		UPDATE reports
		SET elo_awarded = $1, ai_feedback = $2, status = $3, graded_at = $4
		WHERE id = $5
	`

	gradedAt := report.GradedAt
	if report.Status == models.StatusGraded && gradedAt == nil {
		now := time.Now()
		gradedAt = &now
		report.GradedAt = gradedAt
	}

	result, err := r.db.Exec(query, report.EloAwarded, report.Feedback, report.Status, gradedAt, report.ID)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if affected == 0 {
		return ErrReportNotFound
	}

	return nil
}
