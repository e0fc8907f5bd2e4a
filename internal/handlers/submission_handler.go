package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ultra-eval/internal/middleware"
	"ultra-eval/internal/repository"
	"ultra-eval/internal/service"
)

// SubmissionHandler handles accomplishment report submissions
type SubmissionHandler struct {
	submissions *service.SubmissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
	}
}

// SubmitReport accepts a report, grades it, and returns the result
// @Summary Submit an accomplishment report
// @Description Submit a report for automatic grading. The report is evaluated, stored, and the student's cumulative score is updated.
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SubmitReportInput true "Report submission"
// @Success 201 {object} map[string]interface{} "Graded report with evaluation and new score"
// @Failure 400 {object} map[string]string "Missing fields or invalid category"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Student not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports [post]
func (h *SubmissionHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetStudentID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var input service.SubmitReportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	// Students submit for themselves; the body field exists for admin tooling
	if input.StudentID == "" {
		input.StudentID = callerID
	}
	if input.StudentID != callerID {
		respondWithError(w, http.StatusForbidden, ErrMsgPermissionDenied)
		return
	}

	result, err := h.submissions.SubmitReport(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields), errors.Is(err, service.ErrInvalidCategory):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrStudentNotFound):
			respondWithError(w, http.StatusNotFound, ErrMsgStudentNotFound)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to process report")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"report":     result.Report,
		"evaluation": result.Evaluation,
		"newElo":     result.NewElo,
		"warnings":   result.Warnings,
	})
}
