package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Syllabus mirrors the 'syllabi' table. Topics live in the
// 'syllabus_topics' child table; their covered flags drive the dashboard
// progress figures.
type Syllabus struct {
	ID          uint64
	CourseID    uint64
	Title       string
	Description sql.NullString
	Content     string
	Department  string
	Semester    int
	IsActive    bool
	CreatedBy   uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Topics      []SyllabusTopic
}

// SyllabusTopic is one unit of a syllabus, ordered by Position.
type SyllabusTopic struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Covered  bool   `json:"covered"`
	Position int    `json:"position"`
}

// CourseProgress is the covered/total topic tally for one course.
type CourseProgress struct {
	CourseID uint64 `json:"course_id"`
	Course   string `json:"course"`
	Covered  int    `json:"covered"`
	Total    int    `json:"total"`
}

var ErrSyllabusNotFound = errors.New("syllabus not found")

type SyllabusRepo struct{ db *sql.DB }

func NewSyllabusRepo(db *sql.DB) *SyllabusRepo { return &SyllabusRepo{db: db} }

// Create inserts a syllabus and its topics in one transaction.
func (r *SyllabusRepo) Create(ctx context.Context, s *Syllabus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO syllabi (course_id, title, description, content, department, semester, created_by) VALUES (?,?,?,?,?,?,?)",
		s.CourseID, s.Title, s.Description, s.Content, s.Department, s.Semester, s.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	if err := replaceTopics(ctx, tx, s.ID, s.Topics); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT is_active, created_at, updated_at FROM syllabi WHERE id=?",
		s.ID).Scan(&s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceTopics(ctx context.Context, tx *sql.Tx, syllabusID uint64, topics []SyllabusTopic) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM syllabus_topics WHERE syllabus_id=?", syllabusID); err != nil {
		return err
	}
	if len(topics) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO syllabus_topics (syllabus_id, title, duration, covered, position) VALUES (?,?,?,?,?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, t := range topics {
		if _, err := stmt.ExecContext(ctx, syllabusID, t.Title, t.Duration, t.Covered, i+1); err != nil {
			return err
		}
	}
	return nil
}

func (r *SyllabusRepo) loadTopics(ctx context.Context, syllabusID uint64) ([]SyllabusTopic, error) {
	const q = `SELECT id, title, duration, covered, position
	           FROM syllabus_topics WHERE syllabus_id = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, q, syllabusID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SyllabusTopic{}
	for rows.Next() {
		var t SyllabusTopic
		if err := rows.Scan(&t.ID, &t.Title, &t.Duration, &t.Covered, &t.Position); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID returns one syllabus with topics or ErrSyllabusNotFound.
func (r *SyllabusRepo) GetByID(ctx context.Context, id uint64) (*Syllabus, error) {
	const q = `SELECT id, course_id, title, description, content, department, semester, is_active, created_by, created_at, updated_at
	           FROM syllabi WHERE id = ?`
	var s Syllabus
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.CourseID, &s.Title, &s.Description, &s.Content, &s.Department, &s.Semester,
			&s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSyllabusNotFound
		}
		return nil, err
	}
	if s.Topics, err = r.loadTopics(ctx, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns active syllabi, optionally scoped to a department and
// semester (empty/zero means unscoped), newest first. Topics are loaded
// per row; listings are small enough that this stays cheap.
func (r *SyllabusRepo) List(ctx context.Context, department string, semester int) ([]*Syllabus, error) {
	q := `SELECT id, course_id, title, description, content, department, semester, is_active, created_by, created_at, updated_at
	      FROM syllabi WHERE is_active = 1`
	args := []any{}
	if department != "" {
		q += ` AND department = ?`
		args = append(args, department)
	}
	if semester > 0 {
		q += ` AND semester = ?`
		args = append(args, semester)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Syllabus
	for rows.Next() {
		s := new(Syllabus)
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Title, &s.Description, &s.Content, &s.Department,
			&s.Semester, &s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, s := range out {
		if s.Topics, err = r.loadTopics(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update rewrites the syllabus row and replaces its topic list.
func (r *SyllabusRepo) Update(ctx context.Context, s *Syllabus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE syllabi SET course_id=?, title=?, description=?, content=?, department=?, semester=?, updated_at=NOW() WHERE id=?",
		s.CourseID, s.Title, s.Description, s.Content, s.Department, s.Semester, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM syllabi WHERE id=?", s.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrSyllabusNotFound
		}
	}
	if err := replaceTopics(ctx, tx, s.ID, s.Topics); err != nil {
		return err
	}
	return tx.Commit()
}

// Deactivate soft-deletes a syllabus.
func (r *SyllabusRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE syllabi SET is_active=0, updated_at=NOW() WHERE id=? AND is_active=1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSyllabusNotFound
	}
	return nil
}

// ProgressForStudent tallies covered vs total topics per enrolled course.
// The numbers come from the covered flags teachers maintain, so the
// dashboard reflects recorded progress rather than a random placeholder.
func (r *SyllabusRepo) ProgressForStudent(ctx context.Context, studentID uint64) ([]CourseProgress, error) {
	const q = `SELECT c.id, c.name,
	             COALESCE(SUM(st.covered), 0), COUNT(st.id)
	           FROM enrollments en
	           JOIN courses c ON c.id = en.course_id AND c.is_active = 1
	           LEFT JOIN syllabi s ON s.course_id = c.id AND s.is_active = 1
	           LEFT JOIN syllabus_topics st ON st.syllabus_id = s.id
	           WHERE en.student_id = ?
	           GROUP BY c.id, c.name
	           ORDER BY c.name`
	rows, err := r.db.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CourseProgress
	for rows.Next() {
		var p CourseProgress
		if err := rows.Scan(&p.CourseID, &p.Course, &p.Covered, &p.Total); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
