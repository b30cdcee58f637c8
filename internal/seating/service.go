package seating

import "context"

// UpdatePatch describes a partial edit of a draft arrangement. Nil fields
// are left untouched. Setting Reassign re-runs the assigner against the
// current enrollment snapshot and replaces the whole assignment list;
// Assignments replaces the list with an explicit manual edit.
type UpdatePatch struct {
	Hall        *string
	Reassign    bool
	Assignments []SeatAssignment
}

// Filter narrows List results. Zero values mean "no filter".
type Filter struct {
	ExamID uint64
	Status Status
}

// ArrangementStore persists arrangements. Implementations must enforce
// the lifecycle at the storage layer: Create fails with
// ErrArrangementExists when an arrangement for the same (exam, hall) pair
// already exists, and UpdateDraft applies only while the row is still in
// DRAFT status, failing with ErrArrangementFinalized otherwise.
type ArrangementStore interface {
	Create(ctx context.Context, arr *Arrangement) error
	GetByID(ctx context.Context, id uint64) (*Arrangement, error)
	List(ctx context.Context, f Filter) ([]*Arrangement, error)
	UpdateDraft(ctx context.Context, id uint64, hall *string, assignments []SeatAssignment) (*Arrangement, error)
	Finalize(ctx context.Context, id uint64) (*Arrangement, error)
	Delete(ctx context.Context, id uint64) error
	ListForStudent(ctx context.Context, studentID uint64) ([]StudentSeat, error)
}

// Service wires the assigner to arrangement storage and enforces the
// draft/finalized lifecycle described on ArrangementStore.
type Service struct {
	assigner *Assigner
	store    ArrangementStore
}

// NewService builds a Service. Both dependencies are required.
func NewService(assigner *Assigner, store ArrangementStore) *Service {
	if assigner == nil || store == nil {
		panic("nil dependency passed to seating.NewService")
	}
	return &Service{assigner: assigner, store: store}
}

// Create generates seat assignments for the exam's enrollment and persists
// them as a new draft arrangement. Duplicate (exam, hall) pairs are
// rejected by the store's unique constraint, which closes the window
// between two concurrent creates for the same exam.
func (s *Service) Create(ctx context.Context, examID uint64, hall string, createdBy uint64) (*Arrangement, error) {
	assignments, err := s.assigner.Assign(ctx, examID, hall)
	if err != nil {
		return nil, err
	}
	arr := &Arrangement{
		ExamID:      examID,
		Hall:        hall,
		CreatedBy:   createdBy,
		Status:      StatusDraft,
		Assignments: assignments,
	}
	if err := s.store.Create(ctx, arr); err != nil {
		return nil, err
	}
	return arr, nil
}

// Get returns one arrangement by id.
func (s *Service) Get(ctx context.Context, id uint64) (*Arrangement, error) {
	return s.store.GetByID(ctx, id)
}

// List returns arrangements matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]*Arrangement, error) {
	return s.store.List(ctx, f)
}

// validateAssignments checks a manually edited assignment list: every
// entry must carry a seat number and a positive row/column, and seat
// numbers, (row, column) cells and students must each be unique within
// the arrangement.
func validateAssignments(assignments []SeatAssignment) error {
	seats := make(map[string]struct{}, len(assignments))
	cells := make(map[[2]int]struct{}, len(assignments))
	students := make(map[uint64]struct{}, len(assignments))
	for _, a := range assignments {
		if a.SeatNumber == "" || a.Row < 1 || a.Column < 1 {
			return ErrInvalidAssignments
		}
		if _, dup := seats[a.SeatNumber]; dup {
			return ErrInvalidAssignments
		}
		seats[a.SeatNumber] = struct{}{}

		cell := [2]int{a.Row, a.Column}
		if _, dup := cells[cell]; dup {
			return ErrInvalidAssignments
		}
		cells[cell] = struct{}{}

		if _, dup := students[a.StudentID]; dup {
			return ErrInvalidAssignments
		}
		students[a.StudentID] = struct{}{}
	}
	return nil
}

// Update applies a partial edit to a draft arrangement. Finalized
// arrangements reject every edit with ErrArrangementFinalized. When the
// patch asks for a reassignment the assigner runs against the arrangement
// as it would move: the patched hall when given, the stored one otherwise.
// Manual assignment lists are validated before anything is written; a
// list with duplicate seats, cells or students fails with
// ErrInvalidAssignments.
func (s *Service) Update(ctx context.Context, id uint64, patch UpdatePatch) (*Arrangement, error) {
	assignments := patch.Assignments
	if assignments != nil && !patch.Reassign {
		if err := validateAssignments(assignments); err != nil {
			return nil, err
		}
	}
	if patch.Reassign {
		cur, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == StatusFinalized {
			return nil, ErrArrangementFinalized
		}
		hall := cur.Hall
		if patch.Hall != nil {
			hall = *patch.Hall
		}
		assignments, err = s.assigner.Assign(ctx, cur.ExamID, hall)
		if err != nil {
			return nil, err
		}
	}
	return s.store.UpdateDraft(ctx, id, patch.Hall, assignments)
}

// Finalize transitions an arrangement to FINALIZED. The transition is
// one-way; calling it on an already finalized arrangement is a no-op.
func (s *Service) Finalize(ctx context.Context, id uint64) (*Arrangement, error) {
	return s.store.Finalize(ctx, id)
}

// Delete removes an arrangement in any lifecycle state.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	return s.store.Delete(ctx, id)
}

// StudentSeats returns the seats assigned to one student across all
// arrangements. Arrangements in which the student has no seat do not
// appear; there are no "not yet seated" placeholders.
func (s *Service) StudentSeats(ctx context.Context, studentID uint64) ([]StudentSeat, error) {
	return s.store.ListForStudent(ctx, studentID)
}
