package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ultra-eval/internal/models"
	"ultra-eval/internal/repository"
)

// AdminHandler handles the admin surface: roster management and score or
// report overrides. All routes are behind the admin middleware.
type AdminHandler struct {
	studentRepo *repository.StudentRepository
	reportRepo  *repository.ReportRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(studentRepo *repository.StudentRepository, reportRepo *repository.ReportRepository) *AdminHandler {
	return &AdminHandler{
		studentRepo: studentRepo,
		reportRepo:  reportRepo,
	}
}

// ListStudents returns the full roster ordered by descending score
// @Summary List all students
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Student "Students"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/students [get]
func (h *AdminHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentRepo.ListByElo()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list students")
		return
	}

	respondWithJSON(w, http.StatusOK, students)
}

// CreateStudent registers a new student
// @Summary Create a student
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object true "Student (email, name, school, grade)"
// @Success 201 {object} models.Student "Created student"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /admin/students [post]
func (h *AdminHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string  `json:"email"`
		Name   string  `json:"name"`
		School *string `json:"school"`
		Grade  *string `json:"grade"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if req.Email == "" || req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Email and name are required")
		return
	}

	if _, err := h.studentRepo.GetByEmail(req.Email); err == nil {
		respondWithError(w, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, repository.ErrStudentNotFound) {
		respondWithError(w, http.StatusInternalServerError, "Failed to create student")
		return
	}

	student := &models.Student{
		Email:  req.Email,
		Name:   req.Name,
		School: req.School,
		Grade:  req.Grade,
	}
	if err := h.studentRepo.Create(student); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create student")
		return
	}

	respondWithJSON(w, http.StatusCreated, student)
}

// OverrideElo sets a student's cumulative score to an absolute value
// @Summary Override a student's score
// @Description Set an absolute cumulative score. This intentionally detaches the score from the sum of graded reports.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param request body object true "Override (elo)"
// @Success 200 {object} models.Student "Updated student"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /admin/students/{id}/elo [put]
func (h *AdminHandler) OverrideElo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Elo *int `json:"elo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Elo == nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if *req.Elo < 0 {
		respondWithError(w, http.StatusBadRequest, "Score must be non-negative")
		return
	}

	if err := h.studentRepo.SetElo(id, *req.Elo); err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, ErrMsgStudentNotFound)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to override score")
		return
	}

	slog.Info("Admin score override", "student_id", id, "elo", *req.Elo)

	student, err := h.studentRepo.GetByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load student")
		return
	}

	respondWithJSON(w, http.StatusOK, student)
}

// UpdateReport overrides a report's grading fields
// @Summary Override a report
// @Description Update a report's awarded score, feedback, or status. A score change is also applied as a delta to the student's cumulative score.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param request body object true "Override (elo_awarded, ai_feedback, status)"
// @Success 200 {object} map[string]interface{} "Updated report"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Report not found"
// @Router /admin/reports/{id} [put]
func (h *AdminHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		EloAwarded *int    `json:"elo_awarded"`
		Feedback   *string `json:"ai_feedback"`
		Status     *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if req.Status != nil && !models.ValidStatus(*req.Status) {
		respondWithError(w, http.StatusBadRequest, "Invalid report status")
		return
	}
	if req.EloAwarded != nil && (*req.EloAwarded < 0 || *req.EloAwarded > 100) {
		respondWithError(w, http.StatusBadRequest, "Awarded score must be between 0 and 100")
		return
	}

	report, err := h.reportRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			respondWithError(w, http.StatusNotFound, ErrMsgReportNotFound)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}

	previousElo := report.EloAwarded
	if req.EloAwarded != nil {
		report.EloAwarded = *req.EloAwarded
	}
	if req.Feedback != nil {
		report.Feedback = *req.Feedback
	}
	if req.Status != nil {
		report.Status = *req.Status
	}

	if err := h.reportRepo.Update(report); err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			respondWithError(w, http.StatusNotFound, ErrMsgReportNotFound)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update report")
		return
	}

	// Keep the cumulative score in step with the corrected award
	var warnings []string
	if delta := report.EloAwarded - previousElo; delta != 0 {
		if _, err := h.studentRepo.AddElo(report.StudentID, delta); err != nil {
			slog.Error("Failed to apply score correction",
				"student_id", report.StudentID,
				"report_id", report.ID,
				"delta", delta,
				"error", err,
			)
			warnings = append(warnings, "failed to apply score correction to student")
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"report":   report,
		"warnings": warnings,
	})
}
