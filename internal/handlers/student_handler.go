package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ultra-eval/internal/middleware"
	"ultra-eval/internal/models"
	"ultra-eval/internal/repository"
)

// StudentHandler handles student profile and leaderboard requests
type StudentHandler struct {
	studentRepo *repository.StudentRepository
	reportRepo  *repository.ReportRepository
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentRepo *repository.StudentRepository, reportRepo *repository.ReportRepository) *StudentHandler {
	return &StudentHandler{
		studentRepo: studentRepo,
		reportRepo:  reportRepo,
	}
}

// GetLeaderboard returns all students ranked by cumulative score
// @Summary Get the leaderboard
// @Description Get all students ordered by descending score with shared ranks for ties
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.LeaderboardEntry "Ranked students"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /leaderboard [get]
func (h *StudentHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentRepo.ListByElo()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}

	entries := make([]models.LeaderboardEntry, 0, len(students))
	rank := 0
	lastElo := -1
	for _, student := range students {
		// Equal scores share a rank; the next distinct score resumes the count
		if student.Elo != lastElo {
			rank = len(entries) + 1
			lastElo = student.Elo
		}
		entries = append(entries, models.LeaderboardEntry{
			Student: student,
			Rank:    rank,
		})
	}

	respondWithJSON(w, http.StatusOK, entries)
}

// GetProfile returns a student's profile
// @Summary Get a student profile
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} models.Student "Student profile"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{id} [get]
func (h *StudentHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	student, err := h.studentRepo.GetByID(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, ErrMsgStudentNotFound)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load student")
		return
	}

	respondWithJSON(w, http.StatusOK, student)
}

// UpdateProfile updates the caller's own profile fields
// @Summary Update a student profile
// @Description Update name, school, grade, or avatar. Students may only update their own profile.
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param request body object true "Profile update (name, school, grade, avatar_url)"
// @Success 200 {object} models.Student "Updated profile"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Not the profile owner"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{id} [put]
func (h *StudentHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetStudentID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id := r.PathValue("id")
	if id != callerID {
		respondWithError(w, http.StatusForbidden, ErrMsgPermissionDenied)
		return
	}

	var req struct {
		Name      string  `json:"name"`
		School    *string `json:"school"`
		Grade     *string `json:"grade"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	student, err := h.studentRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, ErrMsgStudentNotFound)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load student")
		return
	}

	if req.Name != "" {
		student.Name = req.Name
	}
	if req.School != nil {
		student.School = req.School
	}
	if req.Grade != nil {
		student.Grade = req.Grade
	}
	if req.AvatarURL != nil {
		student.AvatarURL = req.AvatarURL
	}

	if err := h.studentRepo.UpdateProfile(student); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	respondWithJSON(w, http.StatusOK, student)
}

// ListReports returns a student's submission history, newest first
// @Summary List a student's reports
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {array} models.Report "Reports"
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{id}/reports [get]
func (h *StudentHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := h.studentRepo.GetByID(id); err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, ErrMsgStudentNotFound)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load student")
		return
	}

	reports, err := h.reportRepo.ListByStudent(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load reports")
		return
	}

	respondWithJSON(w, http.StatusOK, reports)
}
