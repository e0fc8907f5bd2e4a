package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ultra-eval/internal/middleware"
	"ultra-eval/internal/models"
	"ultra-eval/internal/repository"
	"ultra-eval/internal/service"
)

const testStudentID = "11111111-1111-1111-1111-111111111111"

type stubStudentStore struct {
	student *models.Student
}

func (s *stubStudentStore) GetByID(id string) (*models.Student, error) {
	if s.student == nil || s.student.ID != id {
		return nil, repository.ErrStudentNotFound
	}
	return s.student, nil
}

func (s *stubStudentStore) AddElo(id string, delta int) (int, error) {
	s.student.Elo += delta
	return s.student.Elo, nil
}

type stubReportStore struct{}

func (s *stubReportStore) Create(report *models.Report) error {
	report.ID = "report-1"
	return nil
}

type stubEvaluator struct{}

func (s *stubEvaluator) Evaluate(ctx context.Context, title, description, category string, fileURLs []string) *service.EvaluationOutcome {
	return &service.EvaluationOutcome{
		Evaluation: models.Evaluation{
			EloAwarded:    20,
			Feedback:      "Solid work.",
			AnalysisParts: []string{"Good evidence."},
			CategoryScore: models.CategoryScore{Impact: 5, Productivity: 5, Quality: 5, Relevance: 5},
		},
	}
}

func newSubmissionHandlerForTest() (*SubmissionHandler, *stubStudentStore) {
	students := &stubStudentStore{
		student: &models.Student{
			ID:    testStudentID,
			Email: "ada@example.com",
			Name:  "Ada Lovelace",
			Elo:   30,
		},
	}
	svc := service.NewSubmissionService(students, &stubReportStore{}, &stubEvaluator{}, nil)
	return NewSubmissionHandler(svc), students
}

func authenticatedRequest(method, target, body, studentID string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.StudentIDKey, studentID)
	ctx = context.WithValue(ctx, middleware.UserEmailKey, "ada@example.com")
	return req.WithContext(ctx)
}

func TestSubmitReportHandlerSuccess(t *testing.T) {
	handler, _ := newSubmissionHandlerForTest()

	body := `{"title":"Science fair","description":"Won first place","category":"award"}`
	req := authenticatedRequest(http.MethodPost, "/api/v1/reports", body, testStudentID)
	rec := httptest.NewRecorder()

	handler.SubmitReport(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		NewElo  int  `json:"newElo"`
		Report  struct {
			Status   string   `json:"status"`
			FileURLs []string `json:"file_urls"`
		} `json:"report"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success true")
	}
	if resp.NewElo != 50 {
		t.Errorf("Expected new ELO 50, got %d", resp.NewElo)
	}
	if resp.Report.Status != models.StatusGraded {
		t.Errorf("Expected graded status, got %s", resp.Report.Status)
	}
	if resp.Report.FileURLs == nil {
		t.Error("File URLs must encode as an array, not null")
	}
	if resp.Warnings == nil {
		t.Error("Warnings must encode as an array, not null")
	}
}

func TestSubmitReportHandlerMissingFields(t *testing.T) {
	handler, _ := newSubmissionHandlerForTest()

	req := authenticatedRequest(http.MethodPost, "/api/v1/reports", `{"title":"only"}`, testStudentID)
	rec := httptest.NewRecorder()

	handler.SubmitReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestSubmitReportHandlerInvalidBody(t *testing.T) {
	handler, _ := newSubmissionHandlerForTest()

	req := authenticatedRequest(http.MethodPost, "/api/v1/reports", `{not json`, testStudentID)
	rec := httptest.NewRecorder()

	handler.SubmitReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestSubmitReportHandlerUnknownStudent(t *testing.T) {
	handler, students := newSubmissionHandlerForTest()
	students.student = nil

	body := `{"title":"t","description":"d","category":"todo"}`
	req := authenticatedRequest(http.MethodPost, "/api/v1/reports", body, testStudentID)
	rec := httptest.NewRecorder()

	handler.SubmitReport(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestSubmitReportHandlerForOtherStudent(t *testing.T) {
	handler, _ := newSubmissionHandlerForTest()

	body := `{"title":"t","description":"d","category":"todo","studentId":"22222222-2222-2222-2222-222222222222"}`
	req := authenticatedRequest(http.MethodPost, "/api/v1/reports", body, testStudentID)
	rec := httptest.NewRecorder()

	handler.SubmitReport(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
}

func TestSubmitReportHandlerUnauthenticated(t *testing.T) {
	handler, _ := newSubmissionHandlerForTest()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.SubmitReport(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}
