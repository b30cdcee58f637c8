package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/examstack/examhall/internal/seating"
)

// Exam mirrors the 'exams' table. StartTime/EndTime are zero-padded
// "HH:MM" strings so lexicographic comparison matches chronological order
// in the overlap query. Hall is a free-form name; the hall registry is a
// scheduling aid, not a foreign key.
type Exam struct {
	ID           uint64
	Title        string
	CourseID     uint64
	Semester     int
	Date         time.Time
	StartTime    string
	EndTime      string
	DurationMin  int
	TotalMarks   int
	Hall         string
	Instructions sql.NullString
	Status       string // SCHEDULED | COMPLETED | CANCELLED
	IsActive     bool
	CreatedBy    uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var ErrExamNotFound = errors.New("exam not found")

type ExamRepo struct{ db *sql.DB }

func NewExamRepo(db *sql.DB) *ExamRepo { return &ExamRepo{db: db} }

const examCols = `id, title, course_id, semester, exam_date, start_time, end_time,
	duration_min, total_marks, hall, instructions, status, is_active, created_by, created_at, updated_at`

func scanExam(row interface{ Scan(...any) error }, e *Exam) error {
	return row.Scan(&e.ID, &e.Title, &e.CourseID, &e.Semester, &e.Date, &e.StartTime, &e.EndTime,
		&e.DurationMin, &e.TotalMarks, &e.Hall, &e.Instructions, &e.Status, &e.IsActive,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
}

// Create inserts an exam and reads the row back so timestamp and status
// defaults are populated.
func (r *ExamRepo) Create(ctx context.Context, e *Exam) error {
	const q = `INSERT INTO exams (title, course_id, semester, exam_date, start_time, end_time,
	           duration_min, total_marks, hall, instructions, created_by)
	           VALUES (?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, e.Title, e.CourseID, e.Semester, e.Date, e.StartTime,
		e.EndTime, e.DurationMin, e.TotalMarks, e.Hall, e.Instructions, e.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return scanExam(r.db.QueryRowContext(ctx, `SELECT `+examCols+` FROM exams WHERE id = ?`, e.ID), e)
}

// GetByID returns an exam regardless of active flag, or ErrExamNotFound.
func (r *ExamRepo) GetByID(ctx context.Context, id uint64) (*Exam, error) {
	var e Exam
	err := scanExam(r.db.QueryRowContext(ctx, `SELECT `+examCols+` FROM exams WHERE id = ?`, id), &e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns active exams ordered by date, optionally restricted to a
// semester (0 means all).
func (r *ExamRepo) List(ctx context.Context, semester int) ([]*Exam, error) {
	q := `SELECT ` + examCols + ` FROM exams WHERE is_active = 1`
	args := []any{}
	if semester > 0 {
		q += ` AND semester = ?`
		args = append(args, semester)
	}
	q += ` ORDER BY exam_date, start_time`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Exam
	for rows.Next() {
		e := new(Exam)
		if err := scanExam(rows, e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of an exam. Returns ErrExamNotFound
// when no row matches.
func (r *ExamRepo) Update(ctx context.Context, e *Exam) error {
	const q = `UPDATE exams
	           SET title=?, course_id=?, semester=?, exam_date=?, start_time=?, end_time=?,
	               duration_min=?, total_marks=?, hall=?, instructions=?, status=?, updated_at=NOW()
	           WHERE id=?`
	res, err := r.db.ExecContext(ctx, q, e.Title, e.CourseID, e.Semester, e.Date, e.StartTime,
		e.EndTime, e.DurationMin, e.TotalMarks, e.Hall, e.Instructions, e.Status, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate soft-deletes an exam. Seating arrangements referencing it
// are kept; their exam joins simply come back empty.
func (r *ExamRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE exams SET is_active=0, updated_at=NOW() WHERE id=? AND is_active=1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExamNotFound
	}
	return nil
}

// HasHallConflict reports whether another active, non-completed exam
// occupies the same hall on the same date with an overlapping time window.
// excludeID skips the exam being updated.
func (r *ExamRepo) HasHallConflict(ctx context.Context, hall string, date time.Time, start, end string, excludeID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM exams
	           WHERE hall = ? AND exam_date = ? AND is_active = 1 AND status <> 'COMPLETED'
	             AND id <> ? AND start_time < ? AND end_time > ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, hall, date, excludeID, end, start).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountUpcoming counts active exams dated today or later.
func (r *ExamRepo) CountUpcoming(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM exams WHERE is_active=1 AND exam_date >= CURDATE()").Scan(&n)
	return n, err
}

// GetExamInfo adapts GetByID to the seating core's lookup port, mapping
// the repository sentinel onto the core one.
func (r *ExamRepo) GetExamInfo(ctx context.Context, examID uint64) (seating.ExamInfo, error) {
	e, err := r.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, ErrExamNotFound) {
			return seating.ExamInfo{}, seating.ErrExamNotFound
		}
		return seating.ExamInfo{}, err
	}
	if !e.IsActive {
		return seating.ExamInfo{}, seating.ErrExamNotFound
	}
	return seating.ExamInfo{ID: e.ID, CourseID: e.CourseID, Title: e.Title, Hall: e.Hall, Date: e.Date}, nil
}
