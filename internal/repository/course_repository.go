package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/examstack/examhall/internal/seating"
)

// Course represents a taught subject. Students relate to courses through
// the 'enrollments' table, which is the read model the seating assigner
// depends on.
type Course struct {
	ID         uint64
	Code       string
	Name       string
	Department string
	Semester   int
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var ErrCourseNotFound = errors.New("course not found")
var ErrAlreadyEnrolled = errors.New("student already enrolled in course")

type CourseRepo struct{ db *sql.DB }

func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{db: db} }

// Create inserts a course. Course codes are unique.
func (r *CourseRepo) Create(ctx context.Context, c *Course) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO courses (code, name, department, semester) VALUES (?,?,?,?)",
		strings.ToUpper(strings.TrimSpace(c.Code)), c.Name, c.Department, c.Semester)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID returns one course or ErrCourseNotFound.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (*Course, error) {
	const q = `SELECT id, code, name, department, semester, is_active, created_at, updated_at
	           FROM courses WHERE id = ?`
	var c Course
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.Department, &c.Semester, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns active courses ordered by code.
func (r *CourseRepo) List(ctx context.Context) ([]*Course, error) {
	const q = `SELECT id, code, name, department, semester, is_active, created_at, updated_at
	           FROM courses WHERE is_active = 1 ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Course
	for rows.Next() {
		c := new(Course)
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Department, &c.Semester, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Enroll links a student to a course. The unique key on
// (student_id, course_id) turns repeat calls into ErrAlreadyEnrolled.
func (r *CourseRepo) Enroll(ctx context.Context, studentID, courseID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO enrollments (student_id, course_id) VALUES (?,?)",
		studentID, courseID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrAlreadyEnrolled
	}
	return err
}

// Unenroll removes the student/course link.
func (r *CourseRepo) Unenroll(ctx context.Context, studentID, courseID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM enrollments WHERE student_id=? AND course_id=?",
		studentID, courseID)
	return err
}

// ListStudentsEnrolledIn returns active students enrolled in a course,
// ordered by ascending student ID. The ordering is the stability contract
// the seating assigner relies on; do not change it without revisiting the
// determinism tests.
func (r *CourseRepo) ListStudentsEnrolledIn(ctx context.Context, courseID uint64) ([]seating.EnrolledStudent, error) {
	const q = `SELECT u.id, u.name, COALESCE(u.roll_number, '')
	           FROM enrollments e
	           JOIN users u ON u.id = e.student_id
	           WHERE e.course_id = ? AND u.is_active = 1
	           ORDER BY u.id ASC`
	rows, err := r.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []seating.EnrolledStudent
	for rows.Next() {
		var s seating.EnrolledStudent
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNumber); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListForStudent returns the active courses a student is enrolled in.
func (r *CourseRepo) ListForStudent(ctx context.Context, studentID uint64) ([]*Course, error) {
	const q = `SELECT c.id, c.code, c.name, c.department, c.semester, c.is_active, c.created_at, c.updated_at
	           FROM enrollments e
	           JOIN courses c ON c.id = e.course_id
	           WHERE e.student_id = ? AND c.is_active = 1
	           ORDER BY c.code`
	rows, err := r.db.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Course
	for rows.Next() {
		c := new(Course)
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Department, &c.Semester, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
