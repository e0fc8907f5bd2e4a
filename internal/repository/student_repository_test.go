package repository_test

import (
	"errors"
	"testing"

	"ultra-eval/internal/models"
	"ultra-eval/internal/repository"
	"ultra-eval/internal/testutil"
)

func strPtr(s string) *string { return &s }

func createStudent(t *testing.T, repo *repository.StudentRepository, email, name string) *models.Student {
	t.Helper()
	student := &models.Student{
		Email:  email,
		Name:   name,
		School: strPtr("Ultra High"),
		Grade:  strPtr("11"),
	}
	if err := repo.Create(student); err != nil {
		t.Fatalf("Failed to create student: %v", err)
	}
	return student
}

func TestStudentRepositoryCreateAndGet(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	repo := repository.NewStudentRepository(containers.DB)

	student := createStudent(t, repo, "ada@test.com", "Ada Lovelace")
	if student.ID == "" {
		t.Fatal("Expected generated ID")
	}
	if student.Elo != 0 {
		t.Errorf("New students start at 0 ELO, got %d", student.Elo)
	}

	got, err := repo.GetByID(student.ID)
	if err != nil {
		t.Fatalf("Failed to get student: %v", err)
	}
	if got.Email != "ada@test.com" {
		t.Errorf("Expected email ada@test.com, got %s", got.Email)
	}

	byEmail, err := repo.GetByEmail("ada@test.com")
	if err != nil {
		t.Fatalf("Failed to get student by email: %v", err)
	}
	if byEmail.ID != student.ID {
		t.Errorf("Expected ID %s, got %s", student.ID, byEmail.ID)
	}
}

func TestStudentRepositoryGetMissing(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	repo := repository.NewStudentRepository(containers.DB)

	_, err := repo.GetByID("00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, repository.ErrStudentNotFound) {
		t.Errorf("Expected ErrStudentNotFound, got %v", err)
	}
}

func TestStudentRepositoryAddElo(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	repo := repository.NewStudentRepository(containers.DB)
	student := createStudent(t, repo, "elo@test.com", "Elo Tester")

	newElo, err := repo.AddElo(student.ID, 42)
	if err != nil {
		t.Fatalf("Failed to add elo: %v", err)
	}
	if newElo != 42 {
		t.Errorf("Expected 42, got %d", newElo)
	}

	newElo, err = repo.AddElo(student.ID, 8)
	if err != nil {
		t.Fatalf("Failed to add elo: %v", err)
	}
	if newElo != 50 {
		t.Errorf("Expected 50, got %d", newElo)
	}

	// A negative correction never drops the score below zero
	newElo, err = repo.AddElo(student.ID, -100)
	if err != nil {
		t.Fatalf("Failed to add elo: %v", err)
	}
	if newElo != 0 {
		t.Errorf("Expected floor at 0, got %d", newElo)
	}

	if _, err := repo.AddElo("00000000-0000-0000-0000-000000000000", 5); !errors.Is(err, repository.ErrStudentNotFound) {
		t.Errorf("Expected ErrStudentNotFound, got %v", err)
	}
}

func TestStudentRepositorySetElo(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	repo := repository.NewStudentRepository(containers.DB)
	student := createStudent(t, repo, "override@test.com", "Override Tester")

	if err := repo.SetElo(student.ID, 500); err != nil {
		t.Fatalf("Failed to set elo: %v", err)
	}

	got, err := repo.GetByID(student.ID)
	if err != nil {
		t.Fatalf("Failed to get student: %v", err)
	}
	if got.Elo != 500 {
		t.Errorf("Expected 500, got %d", got.Elo)
	}

	if err := repo.SetElo("00000000-0000-0000-0000-000000000000", 10); !errors.Is(err, repository.ErrStudentNotFound) {
		t.Errorf("Expected ErrStudentNotFound, got %v", err)
	}
}

func TestStudentRepositoryListByElo(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	repo := repository.NewStudentRepository(containers.DB)

	low := createStudent(t, repo, "low@test.com", "Low")
	high := createStudent(t, repo, "high@test.com", "High")
	mid := createStudent(t, repo, "mid@test.com", "Mid")

	for _, pair := range []struct {
		id  string
		elo int
	}{{low.ID, 10}, {high.ID, 90}, {mid.ID, 50}} {
		if _, err := repo.AddElo(pair.id, pair.elo); err != nil {
			t.Fatalf("Failed to seed elo: %v", err)
		}
	}

	students, err := repo.ListByElo()
	if err != nil {
		t.Fatalf("Failed to list students: %v", err)
	}
	if len(students) != 3 {
		t.Fatalf("Expected 3 students, got %d", len(students))
	}
	if students[0].ID != high.ID || students[1].ID != mid.ID || students[2].ID != low.ID {
		t.Errorf("Unexpected order: %s, %s, %s", students[0].Name, students[1].Name, students[2].Name)
	}
}

func TestStudentRepositoryUpdateProfile(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	repo := repository.NewStudentRepository(containers.DB)
	student := createStudent(t, repo, "profile@test.com", "Before")

	student.Name = "After"
	student.School = strPtr("New School")
	student.AvatarURL = strPtr("https://cdn.test/avatar.png")
	if err := repo.UpdateProfile(student); err != nil {
		t.Fatalf("Failed to update profile: %v", err)
	}

	got, err := repo.GetByID(student.ID)
	if err != nil {
		t.Fatalf("Failed to get student: %v", err)
	}
	if got.Name != "After" {
		t.Errorf("Expected name After, got %s", got.Name)
	}
	if got.School == nil || *got.School != "New School" {
		t.Errorf("Expected school New School, got %v", got.School)
	}
	if got.AvatarURL == nil || *got.AvatarURL != "https://cdn.test/avatar.png" {
		t.Errorf("Unexpected avatar URL %v", got.AvatarURL)
	}
}
