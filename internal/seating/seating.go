// Package seating implements deterministic exam seat allocation and the
// lifecycle of persisted seating arrangements. It is transport-free: the
// HTTP layer calls into Service, which talks to storage and lookups only
// through the small interfaces declared here.
package seating

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an arrangement. An arrangement is
// created as a draft and may be edited or regenerated until it is
// finalized; finalized arrangements are immutable.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusFinalized Status = "FINALIZED"
)

// SeatAssignment is one student's seat within an arrangement. SeatNumber
// is the decimal rendering of the 1-based sequential seat index; Row and
// Column are derived from that index and the seats-per-row width.
type SeatAssignment struct {
	StudentID   uint64 `json:"student_id"`
	StudentName string `json:"student_name"`
	RollNumber  string `json:"roll_number"`
	SeatNumber  string `json:"seat_number"`
	Row         int    `json:"row"`
	Column      int    `json:"column"`
}

// Arrangement is a persisted seating plan for one exam in one hall. It
// owns its assignment list; ExamID and the student IDs inside the
// assignments are weak references and may dangle after deletions.
type Arrangement struct {
	ID          uint64           `json:"id"`
	ExamID      uint64           `json:"exam_id"`
	Hall        string           `json:"hall"`
	CreatedBy   uint64           `json:"created_by"`
	Status      Status           `json:"status"`
	Assignments []SeatAssignment `json:"assignments"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// StudentSeat is the projection returned by student-scoped lookups: the
// student's own seat joined with a summary of the exam it belongs to.
type StudentSeat struct {
	ArrangementID uint64    `json:"arrangement_id"`
	ExamID        uint64    `json:"exam_id"`
	ExamTitle     string    `json:"exam_title"`
	ExamDate      time.Time `json:"exam_date"`
	Hall          string    `json:"hall"`
	SeatNumber    string    `json:"seat_number"`
	Row           int       `json:"row"`
	Column        int       `json:"column"`
	Status        Status    `json:"status"`
}

// ExamInfo is the slice of an exam the assigner needs.
type ExamInfo struct {
	ID       uint64
	CourseID uint64
	Title    string
	Hall     string
	Date     time.Time
}

// EnrolledStudent is one row of the enrollment lookup.
type EnrolledStudent struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
}

// Sentinel errors surfaced by the seating core. Handlers translate them
// into HTTP status codes; anything else is treated as an infrastructure
// failure.
var (
	ErrExamNotFound         = errors.New("exam not found")
	ErrArrangementNotFound  = errors.New("seating arrangement not found")
	ErrArrangementExists    = errors.New("seating arrangement already exists for this exam and hall")
	ErrArrangementFinalized = errors.New("seating arrangement is finalized")
	ErrHallRequired         = errors.New("hall is required")
	ErrInvalidAssignments   = errors.New("seat assignments are invalid")
)
