package seating

import (
	"context"
	"strconv"
	"strings"
)

// DefaultSeatsPerRow is the hall row width used when the caller does not
// override it. Halls are currently assumed to share one width; making it
// per-hall would require a layout column on the hall registry.
const DefaultSeatsPerRow = 10

// ExamLookup resolves exams. Implementations return ErrExamNotFound when
// the exam does not exist or is inactive.
type ExamLookup interface {
	GetExamInfo(ctx context.Context, examID uint64) (ExamInfo, error)
}

// EnrollmentLookup lists students enrolled in a course. The returned
// order must be stable across calls; the repository implementation orders
// by ascending student ID, which is what makes Assign deterministic.
type EnrollmentLookup interface {
	ListStudentsEnrolledIn(ctx context.Context, courseID uint64) ([]EnrolledStudent, error)
}

// Optimizer rewrites a generated assignment list before it is returned.
// It must be a pure function. The default is the identity transform; a
// future pass could shuffle students away from course-mates here without
// touching the assigner contract.
type Optimizer func([]SeatAssignment) []SeatAssignment

// Assigner maps enrolled students to seats in row-major order. It has no
// side effects: it performs the exam and enrollment reads and returns the
// assignment list without persisting anything.
type Assigner struct {
	Exams       ExamLookup
	Enrollment  EnrollmentLookup
	SeatsPerRow int       // row width; DefaultSeatsPerRow when zero
	Optimize    Optimizer // nil means identity
}

// NewAssigner builds an Assigner with the default row width.
func NewAssigner(exams ExamLookup, enrollment EnrollmentLookup) *Assigner {
	return &Assigner{Exams: exams, Enrollment: enrollment, SeatsPerRow: DefaultSeatsPerRow}
}

// Assign produces one SeatAssignment per student enrolled in the course of
// the given exam. Seat numbers are sequential decimal strings starting at
// "1"; row and column are derived from the seat index and the row width.
// An exam with no enrolled students yields an empty list, not an error.
// The hall is accepted as-is; there is no hall registry check here.
func (a *Assigner) Assign(ctx context.Context, examID uint64, hall string) ([]SeatAssignment, error) {
	if strings.TrimSpace(hall) == "" {
		return nil, ErrHallRequired
	}
	exam, err := a.Exams.GetExamInfo(ctx, examID)
	if err != nil {
		return nil, err
	}
	students, err := a.Enrollment.ListStudentsEnrolledIn(ctx, exam.CourseID)
	if err != nil {
		return nil, err
	}

	width := a.SeatsPerRow
	if width <= 0 {
		width = DefaultSeatsPerRow
	}

	out := make([]SeatAssignment, 0, len(students))
	for i, s := range students {
		seat := i + 1
		out = append(out, SeatAssignment{
			StudentID:   s.ID,
			StudentName: s.Name,
			RollNumber:  s.RollNumber,
			SeatNumber:  strconv.Itoa(seat),
			Row:         (seat-1)/width + 1,
			Column:      (seat-1)%width + 1,
		})
	}
	if a.Optimize != nil {
		out = a.Optimize(out)
	}
	return out, nil
}
