package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/examstack/examhall/internal/seating"
)

// SeatingRepo persists seating arrangements across two tables:
// 'seating_arrangements' holds the aggregate row and
// 'seat_assignments' the per-student seats (removed by FK cascade when
// the arrangement goes away). It implements seating.ArrangementStore.
//
// The UNIQUE KEY on (exam_id, hall) makes creation a compare-and-set, so
// two concurrent creates for the same exam and hall cannot both succeed.
type SeatingRepo struct{ db *sql.DB }

func NewSeatingRepo(db *sql.DB) *SeatingRepo { return &SeatingRepo{db: db} }

// Create inserts the arrangement and its assignments in one transaction.
func (r *SeatingRepo) Create(ctx context.Context, arr *seating.Arrangement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO seating_arrangements (exam_id, hall, created_by, status) VALUES (?,?,?,?)",
		arr.ExamID, arr.Hall, arr.CreatedBy, seating.StatusDraft)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return seating.ErrArrangementExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	arr.ID = uint64(id)
	arr.Status = seating.StatusDraft

	if err := insertAssignments(ctx, tx, arr.ID, arr.Assignments); err != nil {
		return err
	}

	if err := tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM seating_arrangements WHERE id=?",
		arr.ID).Scan(&arr.CreatedAt, &arr.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAssignments(ctx context.Context, tx *sql.Tx, arrangementID uint64, assignments []seating.SeatAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	const q = `INSERT INTO seat_assignments
	           (arrangement_id, student_id, student_name, roll_number, seat_number, row_no, col_no)
	           VALUES (?,?,?,?,?,?,?)`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, a := range assignments {
		if _, err := stmt.ExecContext(ctx, arrangementID, a.StudentID, a.StudentName,
			a.RollNumber, a.SeatNumber, a.Row, a.Column); err != nil {
			// The unique key on (arrangement_id, seat_number) backs the
			// service-level duplicate check.
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				return seating.ErrInvalidAssignments
			}
			return err
		}
	}
	return nil
}

func (r *SeatingRepo) loadAssignments(ctx context.Context, arrangementID uint64) ([]seating.SeatAssignment, error) {
	const q = `SELECT student_id, student_name, roll_number, seat_number, row_no, col_no
	           FROM seat_assignments WHERE arrangement_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, arrangementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []seating.SeatAssignment{}
	for rows.Next() {
		var a seating.SeatAssignment
		if err := rows.Scan(&a.StudentID, &a.StudentName, &a.RollNumber, &a.SeatNumber, &a.Row, &a.Column); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByID loads one arrangement with its assignments in seat order.
func (r *SeatingRepo) GetByID(ctx context.Context, id uint64) (*seating.Arrangement, error) {
	const q = `SELECT id, exam_id, hall, created_by, status, created_at, updated_at
	           FROM seating_arrangements WHERE id = ?`
	var arr seating.Arrangement
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&arr.ID, &arr.ExamID, &arr.Hall, &arr.CreatedBy, &arr.Status, &arr.CreatedAt, &arr.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seating.ErrArrangementNotFound
		}
		return nil, err
	}
	if arr.Assignments, err = r.loadAssignments(ctx, id); err != nil {
		return nil, err
	}
	return &arr, nil
}

// List returns arrangements matching the filter, newest first, each with
// its assignments loaded.
func (r *SeatingRepo) List(ctx context.Context, f seating.Filter) ([]*seating.Arrangement, error) {
	q := `SELECT id, exam_id, hall, created_by, status, created_at, updated_at
	      FROM seating_arrangements WHERE 1=1`
	args := []any{}
	if f.ExamID != 0 {
		q += ` AND exam_id = ?`
		args = append(args, f.ExamID)
	}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*seating.Arrangement
	for rows.Next() {
		arr := new(seating.Arrangement)
		if err := rows.Scan(&arr.ID, &arr.ExamID, &arr.Hall, &arr.CreatedBy, &arr.Status, &arr.CreatedAt, &arr.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, arr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, arr := range out {
		if arr.Assignments, err = r.loadAssignments(ctx, arr.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateDraft applies a partial edit while the arrangement is still a
// draft. The status check happens under a row lock so a concurrent
// finalize cannot slip between check and write.
func (r *SeatingRepo) UpdateDraft(ctx context.Context, id uint64, hall *string, assignments []seating.SeatAssignment) (*seating.Arrangement, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status seating.Status
	err = tx.QueryRowContext(ctx,
		"SELECT status FROM seating_arrangements WHERE id=? FOR UPDATE", id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seating.ErrArrangementNotFound
		}
		return nil, err
	}
	if status == seating.StatusFinalized {
		return nil, seating.ErrArrangementFinalized
	}

	if hall != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE seating_arrangements SET hall=?, updated_at=NOW() WHERE id=?", *hall, id); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				return nil, seating.ErrArrangementExists
			}
			return nil, err
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			"UPDATE seating_arrangements SET updated_at=NOW() WHERE id=?", id); err != nil {
			return nil, err
		}
	}

	if assignments != nil {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM seat_assignments WHERE arrangement_id=?", id); err != nil {
			return nil, err
		}
		if err := insertAssignments(ctx, tx, id, assignments); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Finalize flips the status to FINALIZED. Repeating the call on an
// already finalized arrangement is a no-op.
func (r *SeatingRepo) Finalize(ctx context.Context, id uint64) (*seating.Arrangement, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE seating_arrangements SET status=?, updated_at=NOW() WHERE id=?",
		seating.StatusFinalized, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes the arrangement; assignments go with it via FK cascade.
func (r *SeatingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM seating_arrangements WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return seating.ErrArrangementNotFound
	}
	return nil
}

// ListForStudent projects a student's own seats across all arrangements.
// Only rows where the student actually holds a seat come back; the exam
// join is LEFT so arrangements whose exam was deleted still appear, with
// an empty title.
func (r *SeatingRepo) ListForStudent(ctx context.Context, studentID uint64) ([]seating.StudentSeat, error) {
	const q = `SELECT a.id, a.exam_id, COALESCE(e.title, ''), e.exam_date, a.hall,
	             sa.seat_number, sa.row_no, sa.col_no, a.status
	           FROM seat_assignments sa
	           JOIN seating_arrangements a ON a.id = sa.arrangement_id
	           LEFT JOIN exams e ON e.id = a.exam_id
	           WHERE sa.student_id = ?
	           ORDER BY a.created_at DESC, a.id DESC`
	rows, err := r.db.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []seating.StudentSeat
	for rows.Next() {
		var s seating.StudentSeat
		var examDate sql.NullTime
		if err := rows.Scan(&s.ArrangementID, &s.ExamID, &s.ExamTitle, &examDate, &s.Hall,
			&s.SeatNumber, &s.Row, &s.Column, &s.Status); err != nil {
			return nil, err
		}
		if examDate.Valid {
			s.ExamDate = examDate.Time
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of stored arrangements, for the admin
// dashboard.
func (r *SeatingRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM seating_arrangements").Scan(&n)
	return n, err
}
