package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ultra-eval/internal/handlers"
	"ultra-eval/internal/models"
	"ultra-eval/internal/repository"
	"ultra-eval/internal/testutil"
)

func seedStudent(t *testing.T, repo *repository.StudentRepository, email, name string, elo int) *models.Student {
	t.Helper()
	student := &models.Student{Email: email, Name: name}
	if err := repo.Create(student); err != nil {
		t.Fatalf("Failed to create student: %v", err)
	}
	if elo > 0 {
		if _, err := repo.AddElo(student.ID, elo); err != nil {
			t.Fatalf("Failed to seed elo: %v", err)
		}
		student.Elo = elo
	}
	return student
}

func newTestMux(studentRepo *repository.StudentRepository, reportRepo *repository.ReportRepository) *http.ServeMux {
	studentHandler := handlers.NewStudentHandler(studentRepo, reportRepo)
	adminHandler := handlers.NewAdminHandler(studentRepo, reportRepo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/leaderboard", studentHandler.GetLeaderboard)
	mux.HandleFunc("GET /api/v1/students/{id}/reports", studentHandler.ListReports)
	mux.HandleFunc("GET /api/v1/admin/students", adminHandler.ListStudents)
	mux.HandleFunc("POST /api/v1/admin/students", adminHandler.CreateStudent)
	mux.HandleFunc("PUT /api/v1/admin/students/{id}/elo", adminHandler.OverrideElo)
	mux.HandleFunc("PUT /api/v1/admin/reports/{id}", adminHandler.UpdateReport)
	return mux
}

func TestLeaderboardRanking(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	studentRepo := repository.NewStudentRepository(containers.DB)
	reportRepo := repository.NewReportRepository(containers.DB)
	mux := newTestMux(studentRepo, reportRepo)

	seedStudent(t, studentRepo, "first@test.com", "First", 90)
	seedStudent(t, studentRepo, "tied-a@test.com", "Tied A", 50)
	seedStudent(t, studentRepo, "tied-b@test.com", "Tied B", 50)
	seedStudent(t, studentRepo, "last@test.com", "Last", 0)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("Failed to decode leaderboard: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(entries))
	}

	// Tied scores share a rank, the next distinct score resumes the count
	wantRanks := []int{1, 2, 2, 4}
	for i, want := range wantRanks {
		if entries[i].Rank != want {
			t.Errorf("Entry %d: expected rank %d, got %d", i, want, entries[i].Rank)
		}
	}
	if entries[0].Elo != 90 {
		t.Errorf("Expected top score 90, got %d", entries[0].Elo)
	}
}

func TestAdminCreateStudent(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	studentRepo := repository.NewStudentRepository(containers.DB)
	reportRepo := repository.NewReportRepository(containers.DB)
	mux := newTestMux(studentRepo, reportRepo)

	body := `{"email":"new@test.com","name":"New Student","school":"Ultra High"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/students", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// A second create with the same email conflicts
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/students", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestAdminOverrideElo(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	studentRepo := repository.NewStudentRepository(containers.DB)
	reportRepo := repository.NewReportRepository(containers.DB)
	mux := newTestMux(studentRepo, reportRepo)

	student := seedStudent(t, studentRepo, "override@test.com", "Override", 40)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut,
		"/api/v1/admin/students/"+student.ID+"/elo", strings.NewReader(`{"elo":120}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got, err := studentRepo.GetByID(student.ID)
	if err != nil {
		t.Fatalf("Failed to reload student: %v", err)
	}
	if got.Elo != 120 {
		t.Errorf("Expected 120, got %d", got.Elo)
	}

	// Unknown student
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut,
		"/api/v1/admin/students/00000000-0000-0000-0000-000000000000/elo", strings.NewReader(`{"elo":1}`)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	// Negative scores are rejected
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut,
		"/api/v1/admin/students/"+student.ID+"/elo", strings.NewReader(`{"elo":-5}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestAdminUpdateReportAppliesScoreDelta(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	studentRepo := repository.NewStudentRepository(containers.DB)
	reportRepo := repository.NewReportRepository(containers.DB)
	mux := newTestMux(studentRepo, reportRepo)

	student := seedStudent(t, studentRepo, "graded@test.com", "Graded", 60)
	report := &models.Report{
		StudentID:   student.ID,
		Title:       "Overgraded report",
		Description: "Details",
		Category:    models.CategoryAccomplishment,
		EloAwarded:  60,
		Feedback:    "Initial grade.",
		Status:      models.StatusGraded,
	}
	if err := reportRepo.Create(report); err != nil {
		t.Fatalf("Failed to create report: %v", err)
	}

	body := `{"elo_awarded":20,"ai_feedback":"Corrected grade."}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut,
		"/api/v1/admin/reports/"+report.ID, strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	updated, err := reportRepo.GetByID(report.ID)
	if err != nil {
		t.Fatalf("Failed to reload report: %v", err)
	}
	if updated.EloAwarded != 20 {
		t.Errorf("Expected 20 ELO awarded, got %d", updated.EloAwarded)
	}
	if updated.Feedback != "Corrected grade." {
		t.Errorf("Unexpected feedback %q", updated.Feedback)
	}

	// The -40 correction is mirrored on the student's cumulative score
	gotStudent, err := studentRepo.GetByID(student.ID)
	if err != nil {
		t.Fatalf("Failed to reload student: %v", err)
	}
	if gotStudent.Elo != 20 {
		t.Errorf("Expected student score 20, got %d", gotStudent.Elo)
	}

	// Invalid status is rejected
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut,
		"/api/v1/admin/reports/"+report.ID, strings.NewReader(`{"status":"weird"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestListReportsForUnknownStudent(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	studentRepo := repository.NewStudentRepository(containers.DB)
	reportRepo := repository.NewReportRepository(containers.DB)
	mux := newTestMux(studentRepo, reportRepo)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/students/00000000-0000-0000-0000-000000000000/reports", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
