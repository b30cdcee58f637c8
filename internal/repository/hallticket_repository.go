package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Hall ticket lifecycle and approval states. Status tracks issuance
// (revocation deactivates the ticket); ApprovalStatus tracks the admin
// review a teacher-issued ticket goes through before the student sees it.
const (
	TicketIssued  = "ISSUED"
	TicketRevoked = "REVOKED"

	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// HallTicket mirrors the 'hall_tickets' table. One ticket exists per
// (student, exam) pair; reissuing replaces the previous ticket in place.
type HallTicket struct {
	ID              uint64
	SerialNo        string
	StudentID       uint64
	ExamID          uint64
	Hall            string
	SeatNumber      sql.NullString
	Notes           sql.NullString
	Status          string
	ApprovalStatus  string
	ApprovedBy      sql.NullInt64
	ApprovedAt      sql.NullTime
	RejectionReason sql.NullString
	IsActive        bool
	IssuedAt        time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TicketWithExam joins a ticket with a summary of its exam. The exam
// columns are nullable because exams may be deleted after issuance.
type TicketWithExam struct {
	HallTicket
	ExamTitle sql.NullString
	ExamDate  sql.NullTime
	StartTime sql.NullString
	EndTime   sql.NullString
}

// TicketWithStudent joins a ticket with the student it belongs to, for
// per-exam listings. Student columns are nullable for the same reason.
type TicketWithStudent struct {
	HallTicket
	StudentName sql.NullString
	RollNumber  sql.NullString
}

var ErrTicketNotFound = errors.New("hall ticket not found")

type HallTicketRepo struct{ db *sql.DB }

func NewHallTicketRepo(db *sql.DB) *HallTicketRepo { return &HallTicketRepo{db: db} }

const ticketCols = `id, serial_no, student_id, exam_id, hall, seat_number, notes, status,
	approval_status, approved_by, approved_at, rejection_reason, is_active, issued_at, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }, t *HallTicket) error {
	return row.Scan(&t.ID, &t.SerialNo, &t.StudentID, &t.ExamID, &t.Hall, &t.SeatNumber, &t.Notes,
		&t.Status, &t.ApprovalStatus, &t.ApprovedBy, &t.ApprovedAt, &t.RejectionReason,
		&t.IsActive, &t.IssuedAt, &t.CreatedAt, &t.UpdatedAt)
}

// Issue inserts or replaces the ticket for (student, exam) in one
// statement, leaning on the table's unique key instead of a read-then-write.
// The serial number is kept from the first issuance when the row already
// exists. The stored row is read back into t.
func (r *HallTicketRepo) Issue(ctx context.Context, t *HallTicket) error {
	if t.SerialNo == "" {
		t.SerialNo = uuid.NewString()
	}
	const q = `INSERT INTO hall_tickets
	           (serial_no, student_id, exam_id, hall, seat_number, notes, status, approval_status, approved_by, approved_at, is_active, issued_at)
	           VALUES (?,?,?,?,?,?,'ISSUED',?,?,?,1,NOW())
	           ON DUPLICATE KEY UPDATE
	             hall=VALUES(hall), seat_number=VALUES(seat_number), notes=VALUES(notes),
	             status='ISSUED', approval_status=VALUES(approval_status),
	             approved_by=VALUES(approved_by), approved_at=VALUES(approved_at),
	             rejection_reason=NULL, is_active=1, issued_at=NOW(), updated_at=NOW()`
	_, err := r.db.ExecContext(ctx, q, t.SerialNo, t.StudentID, t.ExamID, t.Hall, t.SeatNumber,
		t.Notes, t.ApprovalStatus, t.ApprovedBy, t.ApprovedAt)
	if err != nil {
		return err
	}
	return scanTicket(r.db.QueryRowContext(ctx,
		`SELECT `+ticketCols+` FROM hall_tickets WHERE student_id=? AND exam_id=?`,
		t.StudentID, t.ExamID), t)
}

// GetByID returns one ticket or ErrTicketNotFound.
func (r *HallTicketRepo) GetByID(ctx context.Context, id uint64) (*HallTicket, error) {
	var t HallTicket
	err := scanTicket(r.db.QueryRowContext(ctx,
		`SELECT `+ticketCols+` FROM hall_tickets WHERE id=?`, id), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// SetApproval records an admin's approve/reject decision.
func (r *HallTicketRepo) SetApproval(ctx context.Context, id uint64, status string, decidedBy uint64, reason string) (*HallTicket, error) {
	var err error
	switch status {
	case ApprovalApproved:
		_, err = r.db.ExecContext(ctx,
			`UPDATE hall_tickets SET approval_status=?, approved_by=?, approved_at=NOW(), rejection_reason=NULL, updated_at=NOW() WHERE id=?`,
			status, decidedBy, id)
	case ApprovalRejected:
		_, err = r.db.ExecContext(ctx,
			`UPDATE hall_tickets SET approval_status=?, approved_by=?, approved_at=NULL, rejection_reason=?, updated_at=NOW() WHERE id=?`,
			status, decidedBy, reason, id)
	default:
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Revoke deactivates a ticket without deleting it, preserving the audit
// trail.
func (r *HallTicketRepo) Revoke(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE hall_tickets SET status='REVOKED', is_active=0, updated_at=NOW() WHERE id=? AND status <> 'REVOKED'`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ListByExam returns all tickets for an exam with student details joined,
// ordered by roll number for printable lists. The student join is LEFT so
// dangling references still surface as ticket rows.
func (r *HallTicketRepo) ListByExam(ctx context.Context, examID uint64) ([]*TicketWithStudent, error) {
	const q = `SELECT t.id, t.serial_no, t.student_id, t.exam_id, t.hall, t.seat_number, t.notes, t.status,
	             t.approval_status, t.approved_by, t.approved_at, t.rejection_reason, t.is_active,
	             t.issued_at, t.created_at, t.updated_at,
	             u.name, u.roll_number
	           FROM hall_tickets t
	           LEFT JOIN users u ON u.id = t.student_id
	           WHERE t.exam_id = ?
	           ORDER BY u.roll_number, t.id`
	rows, err := r.db.QueryContext(ctx, q, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TicketWithStudent
	for rows.Next() {
		t := new(TicketWithStudent)
		if err := rows.Scan(&t.ID, &t.SerialNo, &t.StudentID, &t.ExamID, &t.Hall, &t.SeatNumber, &t.Notes,
			&t.Status, &t.ApprovalStatus, &t.ApprovedBy, &t.ApprovedAt, &t.RejectionReason, &t.IsActive,
			&t.IssuedAt, &t.CreatedAt, &t.UpdatedAt, &t.StudentName, &t.RollNumber); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListForStudent returns a student's own approved, active tickets with
// exam summaries joined, newest first. Pending and rejected tickets are
// deliberately invisible to the student.
func (r *HallTicketRepo) ListForStudent(ctx context.Context, studentID uint64) ([]*TicketWithExam, error) {
	const q = `SELECT t.id, t.serial_no, t.student_id, t.exam_id, t.hall, t.seat_number, t.notes, t.status,
	             t.approval_status, t.approved_by, t.approved_at, t.rejection_reason, t.is_active,
	             t.issued_at, t.created_at, t.updated_at,
	             e.title, e.exam_date, e.start_time, e.end_time
	           FROM hall_tickets t
	           LEFT JOIN exams e ON e.id = t.exam_id
	           WHERE t.student_id = ? AND t.is_active = 1 AND t.approval_status = 'APPROVED'
	           ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TicketWithExam
	for rows.Next() {
		t := new(TicketWithExam)
		if err := rows.Scan(&t.ID, &t.SerialNo, &t.StudentID, &t.ExamID, &t.Hall, &t.SeatNumber, &t.Notes,
			&t.Status, &t.ApprovalStatus, &t.ApprovedBy, &t.ApprovedAt, &t.RejectionReason, &t.IsActive,
			&t.IssuedAt, &t.CreatedAt, &t.UpdatedAt, &t.ExamTitle, &t.ExamDate, &t.StartTime, &t.EndTime); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountPending counts tickets awaiting an approval decision.
func (r *HallTicketRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM hall_tickets WHERE approval_status='PENDING' AND is_active=1").Scan(&n)
	return n, err
}

// CountForStudent counts a student's approved active tickets.
func (r *HallTicketRepo) CountForStudent(ctx context.Context, studentID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM hall_tickets WHERE student_id=? AND is_active=1 AND approval_status='APPROVED'",
		studentID).Scan(&n)
	return n, err
}
