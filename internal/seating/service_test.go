package seating_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/examstack/examhall/internal/seating"
)

type storeMock struct{ mock.Mock }

func (m *storeMock) Create(ctx context.Context, arr *seating.Arrangement) error {
	return m.Called(ctx, arr).Error(0)
}

func (m *storeMock) GetByID(ctx context.Context, id uint64) (*seating.Arrangement, error) {
	args := m.Called(ctx, id)
	if arr, ok := args.Get(0).(*seating.Arrangement); ok {
		return arr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *storeMock) List(ctx context.Context, f seating.Filter) ([]*seating.Arrangement, error) {
	args := m.Called(ctx, f)
	if arrs, ok := args.Get(0).([]*seating.Arrangement); ok {
		return arrs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *storeMock) UpdateDraft(ctx context.Context, id uint64, hall *string, assignments []seating.SeatAssignment) (*seating.Arrangement, error) {
	args := m.Called(ctx, id, hall, assignments)
	if arr, ok := args.Get(0).(*seating.Arrangement); ok {
		return arr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *storeMock) Finalize(ctx context.Context, id uint64) (*seating.Arrangement, error) {
	args := m.Called(ctx, id)
	if arr, ok := args.Get(0).(*seating.Arrangement); ok {
		return arr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *storeMock) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *storeMock) ListForStudent(ctx context.Context, studentID uint64) ([]seating.StudentSeat, error) {
	args := m.Called(ctx, studentID)
	if seats, ok := args.Get(0).([]seating.StudentSeat); ok {
		return seats, args.Error(1)
	}
	return nil, args.Error(1)
}

func newService(t *testing.T, n int, store *storeMock) *seating.Service {
	t.Helper()
	return seating.NewService(newAssigner(t, n), store)
}

func TestCreate_PersistsDraft(t *testing.T) {
	store := new(storeMock)
	store.On("Create", mock.Anything, mock.MatchedBy(func(arr *seating.Arrangement) bool {
		return arr.ExamID == 1 &&
			arr.Hall == "Hall-A" &&
			arr.CreatedBy == 42 &&
			arr.Status == seating.StatusDraft &&
			len(arr.Assignments) == 23
	})).Return(nil)

	svc := newService(t, 23, store)
	arr, err := svc.Create(context.Background(), 1, "Hall-A", 42)
	require.NoError(t, err)
	assert.Equal(t, seating.StatusDraft, arr.Status)
	assert.Len(t, arr.Assignments, 23)
	store.AssertExpectations(t)
}

func TestCreate_EmptyEnrollmentStillPersists(t *testing.T) {
	store := new(storeMock)
	store.On("Create", mock.Anything, mock.MatchedBy(func(arr *seating.Arrangement) bool {
		return len(arr.Assignments) == 0 && arr.Status == seating.StatusDraft
	})).Return(nil)

	svc := newService(t, 0, store)
	arr, err := svc.Create(context.Background(), 1, "Hall-B", 42)
	require.NoError(t, err)
	assert.Empty(t, arr.Assignments)
}

func TestCreate_DuplicateExamHall(t *testing.T) {
	store := new(storeMock)
	store.On("Create", mock.Anything, mock.Anything).Return(seating.ErrArrangementExists)

	svc := newService(t, 5, store)
	_, err := svc.Create(context.Background(), 1, "Hall-A", 42)
	assert.ErrorIs(t, err, seating.ErrArrangementExists)
}

func TestCreate_ExamMissing(t *testing.T) {
	exams := new(examLookupMock)
	exams.On("GetExamInfo", mock.Anything, uint64(99)).
		Return(seating.ExamInfo{}, seating.ErrExamNotFound)
	store := new(storeMock)

	svc := seating.NewService(seating.NewAssigner(exams, new(enrollmentLookupMock)), store)
	_, err := svc.Create(context.Background(), 99, "Hall-A", 42)
	assert.ErrorIs(t, err, seating.ErrExamNotFound)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdate_FinalizedRejected(t *testing.T) {
	store := new(storeMock)
	hall := "Hall-C"
	store.On("UpdateDraft", mock.Anything, uint64(10), &hall, mock.Anything).
		Return(nil, seating.ErrArrangementFinalized)

	svc := newService(t, 5, store)
	_, err := svc.Update(context.Background(), 10, seating.UpdatePatch{Hall: &hall})
	assert.ErrorIs(t, err, seating.ErrArrangementFinalized)
}

func TestUpdate_ReassignOnFinalizedShortCircuits(t *testing.T) {
	store := new(storeMock)
	store.On("GetByID", mock.Anything, uint64(10)).
		Return(&seating.Arrangement{ID: 10, ExamID: 1, Hall: "Hall-A", Status: seating.StatusFinalized}, nil)

	svc := newService(t, 5, store)
	_, err := svc.Update(context.Background(), 10, seating.UpdatePatch{Reassign: true})
	assert.ErrorIs(t, err, seating.ErrArrangementFinalized)
	store.AssertNotCalled(t, "UpdateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_ReassignUsesPatchedHall(t *testing.T) {
	store := new(storeMock)
	hall := "Hall-C"
	store.On("GetByID", mock.Anything, uint64(10)).
		Return(&seating.Arrangement{ID: 10, ExamID: 1, Hall: "Hall-A", Status: seating.StatusDraft}, nil)
	store.On("UpdateDraft", mock.Anything, uint64(10), &hall, mock.MatchedBy(func(as []seating.SeatAssignment) bool {
		return len(as) == 5
	})).Return(&seating.Arrangement{ID: 10, ExamID: 1, Hall: hall, Status: seating.StatusDraft}, nil)

	svc := newService(t, 5, store)
	got, err := svc.Update(context.Background(), 10, seating.UpdatePatch{Hall: &hall, Reassign: true})
	require.NoError(t, err)
	assert.Equal(t, hall, got.Hall)
	store.AssertExpectations(t)
}

func TestUpdate_ManualDuplicateSeatRejected(t *testing.T) {
	store := new(storeMock)

	svc := newService(t, 5, store)
	_, err := svc.Update(context.Background(), 10, seating.UpdatePatch{
		Assignments: []seating.SeatAssignment{
			{StudentID: 1, SeatNumber: "1", Row: 1, Column: 1},
			{StudentID: 2, SeatNumber: "1", Row: 1, Column: 1},
		},
	})
	assert.ErrorIs(t, err, seating.ErrInvalidAssignments)
	store.AssertNotCalled(t, "UpdateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_ManualDuplicateCellRejected(t *testing.T) {
	store := new(storeMock)

	svc := newService(t, 5, store)
	_, err := svc.Update(context.Background(), 10, seating.UpdatePatch{
		Assignments: []seating.SeatAssignment{
			{StudentID: 1, SeatNumber: "1", Row: 2, Column: 3},
			{StudentID: 2, SeatNumber: "2", Row: 2, Column: 3},
		},
	})
	assert.ErrorIs(t, err, seating.ErrInvalidAssignments)
	store.AssertNotCalled(t, "UpdateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_ManualMalformedSeatRejected(t *testing.T) {
	store := new(storeMock)

	svc := newService(t, 5, store)
	for _, bad := range []seating.SeatAssignment{
		{StudentID: 1, SeatNumber: "", Row: 1, Column: 1},
		{StudentID: 1, SeatNumber: "1", Row: 0, Column: 1},
		{StudentID: 1, SeatNumber: "1", Row: 1, Column: 0},
	} {
		_, err := svc.Update(context.Background(), 10, seating.UpdatePatch{
			Assignments: []seating.SeatAssignment{bad},
		})
		assert.ErrorIs(t, err, seating.ErrInvalidAssignments)
	}
	store.AssertNotCalled(t, "UpdateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_ManualDuplicateStudentRejected(t *testing.T) {
	store := new(storeMock)

	svc := newService(t, 5, store)
	_, err := svc.Update(context.Background(), 10, seating.UpdatePatch{
		Assignments: []seating.SeatAssignment{
			{StudentID: 7, SeatNumber: "1", Row: 1, Column: 1},
			{StudentID: 7, SeatNumber: "2", Row: 1, Column: 2},
		},
	})
	assert.ErrorIs(t, err, seating.ErrInvalidAssignments)
}

func TestUpdate_ManualValidListPersists(t *testing.T) {
	store := new(storeMock)
	edited := []seating.SeatAssignment{
		{StudentID: 2, SeatNumber: "1", Row: 1, Column: 1},
		{StudentID: 1, SeatNumber: "2", Row: 1, Column: 2},
	}
	store.On("UpdateDraft", mock.Anything, uint64(10), (*string)(nil), edited).
		Return(&seating.Arrangement{ID: 10, Status: seating.StatusDraft, Assignments: edited}, nil)

	svc := newService(t, 5, store)
	got, err := svc.Update(context.Background(), 10, seating.UpdatePatch{Assignments: edited})
	require.NoError(t, err)
	assert.Equal(t, edited, got.Assignments)
	store.AssertExpectations(t)
}

func TestFinalize_TransitionsDraft(t *testing.T) {
	store := new(storeMock)
	store.On("Finalize", mock.Anything, uint64(10)).
		Return(&seating.Arrangement{ID: 10, Status: seating.StatusFinalized}, nil).Twice()

	svc := newService(t, 5, store)
	got, err := svc.Finalize(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, seating.StatusFinalized, got.Status)

	// Finalize is one-way and safe to repeat.
	again, err := svc.Finalize(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, seating.StatusFinalized, again.Status)
}

func TestDelete_NotFound(t *testing.T) {
	store := new(storeMock)
	store.On("Delete", mock.Anything, uint64(404)).Return(seating.ErrArrangementNotFound)

	svc := newService(t, 5, store)
	err := svc.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, seating.ErrArrangementNotFound)
}

func TestStudentSeats_OnlySeatedRows(t *testing.T) {
	store := new(storeMock)
	store.On("ListForStudent", mock.Anything, uint64(3)).Return([]seating.StudentSeat{
		{ArrangementID: 10, ExamTitle: "Algorithms Final", Hall: "Hall-A", SeatNumber: "3", Row: 1, Column: 3},
	}, nil)

	svc := newService(t, 5, store)
	seats, err := svc.StudentSeats(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, "3", seats[0].SeatNumber)
	assert.Equal(t, "Hall-A", seats[0].Hall)
}
