package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ultra-eval/internal/models"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentExists   = errors.New("student already exists")
)

// StudentRepository handles student database operations
type StudentRepository struct {
	db *sql.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, email, name, elo, school, grade, avatar_url, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }) (*models.Student, error) {
	student := &models.Student{}
	err := row.Scan(
		&student.ID,
		&student.Email,
		&student.Name,
		&student.Elo,
		&student.School,
		&student.Grade,
		&student.AvatarURL,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return student, nil
}

// Create creates a new student
func (r *StudentRepository) Create(student *models.Student) error {
	query := `
		INSERT INTO students (email, name, elo, school, grade, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		student.Email,
		student.Name,
		student.Elo,
		student.School,
		student.Grade,
		student.AvatarURL,
	).Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	student, err := scanStudent(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	return student, nil
}

// GetByEmail retrieves a student by email
func (r *StudentRepository) GetByEmail(email string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`

	student, err := scanStudent(r.db.QueryRow(query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student by email: %w", err)
	}

	return student, nil
}

// ListByElo retrieves all students ordered by descending score
func (r *StudentRepository) ListByElo() ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY elo DESC, created_at ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *student)
	}

	return students, rows.Err()
}

// AddElo atomically adds delta to a student's cumulative score and returns
// the new value. A single UPDATE keeps concurrent submissions from losing
// increments.
func (r *StudentRepository) AddElo(id string, delta int) (int, error) {
	query := `
		UPDATE students
		SET elo = GREATEST(0, elo + $1), updated_at = $2
		WHERE id = $3
		RETURNING elo
	`

	var newElo int
	err := r.db.QueryRow(query, delta, time.Now(), id).Scan(&newElo)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrStudentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update student elo: %w", err)
	}

	return newElo, nil
}

// SetElo performs an absolute score override (admin only). This intentionally
// breaks the sum-of-reports invariant.
func (r *StudentRepository) SetElo(id string, elo int) error {
	query := `
		UPDATE students
		SET elo = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, elo, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set student elo: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set student elo: %w", err)
	}
	if affected == 0 {
		return ErrStudentNotFound
	}

	return nil
}

// UpdateProfile updates a student's profile fields
func (r *StudentRepository) UpdateProfile(student *models.Student) error {
	query := `
		UPDATE students
		SET name = $1, school = $2, grade = $3, avatar_url = $4, updated_at = $5
		WHERE id = $6
	`

	student.UpdatedAt = time.Now()
	result, err := r.db.Exec(
		query,
		student.Name,
		student.School,
		student.Grade,
		student.AvatarURL,
		student.UpdatedAt,
		student.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if affected == 0 {
		return ErrStudentNotFound
	}

	return nil
}
