package seating_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/examstack/examhall/internal/seating"
)

type examLookupMock struct{ mock.Mock }

func (m *examLookupMock) GetExamInfo(ctx context.Context, examID uint64) (seating.ExamInfo, error) {
	args := m.Called(ctx, examID)
	return args.Get(0).(seating.ExamInfo), args.Error(1)
}

type enrollmentLookupMock struct{ mock.Mock }

func (m *enrollmentLookupMock) ListStudentsEnrolledIn(ctx context.Context, courseID uint64) ([]seating.EnrolledStudent, error) {
	args := m.Called(ctx, courseID)
	if s, ok := args.Get(0).([]seating.EnrolledStudent); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func studentsN(n int) []seating.EnrolledStudent {
	out := make([]seating.EnrolledStudent, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, seating.EnrolledStudent{
			ID:         uint64(i),
			Name:       fmt.Sprintf("Student %d", i),
			RollNumber: fmt.Sprintf("R%03d", i),
		})
	}
	return out
}

func newAssigner(t *testing.T, n int) *seating.Assigner {
	t.Helper()
	exams := new(examLookupMock)
	exams.On("GetExamInfo", mock.Anything, uint64(1)).
		Return(seating.ExamInfo{ID: 1, CourseID: 7, Title: "Algorithms Final"}, nil)
	enrollment := new(enrollmentLookupMock)
	enrollment.On("ListStudentsEnrolledIn", mock.Anything, uint64(7)).
		Return(studentsN(n), nil)
	return seating.NewAssigner(exams, enrollment)
}

func TestAssign_RowMajorLayout(t *testing.T) {
	a := newAssigner(t, 23)

	got, err := a.Assign(context.Background(), 1, "Hall-A")
	require.NoError(t, err)
	require.Len(t, got, 23)

	seenSeat := map[string]bool{}
	seenPos := map[[2]int]bool{}
	for i, sa := range got {
		seat := i + 1
		assert.Equal(t, fmt.Sprintf("%d", seat), sa.SeatNumber)
		assert.Equal(t, (seat-1)/10+1, sa.Row)
		assert.Equal(t, (seat-1)%10+1, sa.Column)
		assert.False(t, seenSeat[sa.SeatNumber], "duplicate seat number %s", sa.SeatNumber)
		seenSeat[sa.SeatNumber] = true
		pos := [2]int{sa.Row, sa.Column}
		assert.False(t, seenPos[pos], "duplicate position %v", pos)
		seenPos[pos] = true
	}

	// Spot checks: seat 11 opens row 2, seat 23 sits at row 3 column 3.
	assert.Equal(t, 2, got[10].Row)
	assert.Equal(t, 1, got[10].Column)
	assert.Equal(t, 3, got[22].Row)
	assert.Equal(t, 3, got[22].Column)
}

func TestAssign_EmptyEnrollment(t *testing.T) {
	a := newAssigner(t, 0)

	got, err := a.Assign(context.Background(), 1, "Hall-B")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAssign_Deterministic(t *testing.T) {
	a := newAssigner(t, 23)

	first, err := a.Assign(context.Background(), 1, "Hall-A")
	require.NoError(t, err)
	second, err := a.Assign(context.Background(), 1, "Hall-A")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssign_CustomRowWidth(t *testing.T) {
	a := newAssigner(t, 6)
	a.SeatsPerRow = 5

	got, err := a.Assign(context.Background(), 1, "Hall-A")
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, 1, got[4].Row)
	assert.Equal(t, 5, got[4].Column)
	assert.Equal(t, 2, got[5].Row)
	assert.Equal(t, 1, got[5].Column)
}

func TestAssign_OptimizerRewritesOutput(t *testing.T) {
	a := newAssigner(t, 3)
	a.Optimize = func(in []seating.SeatAssignment) []seating.SeatAssignment {
		out := make([]seating.SeatAssignment, len(in))
		for i := range in {
			out[i] = in[len(in)-1-i]
		}
		return out
	}

	got, err := a.Assign(context.Background(), 1, "Hall-A")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(3), got[0].StudentID)
	assert.Equal(t, uint64(1), got[2].StudentID)
}

func TestAssign_MissingHall(t *testing.T) {
	a := newAssigner(t, 3)

	_, err := a.Assign(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, seating.ErrHallRequired)
}

func TestAssign_ExamNotFound(t *testing.T) {
	exams := new(examLookupMock)
	exams.On("GetExamInfo", mock.Anything, uint64(99)).
		Return(seating.ExamInfo{}, seating.ErrExamNotFound)
	a := seating.NewAssigner(exams, new(enrollmentLookupMock))

	_, err := a.Assign(context.Background(), 99, "Hall-A")
	assert.ErrorIs(t, err, seating.ErrExamNotFound)
}

func TestAssign_EnrollmentLookupFailure(t *testing.T) {
	exams := new(examLookupMock)
	exams.On("GetExamInfo", mock.Anything, uint64(1)).
		Return(seating.ExamInfo{ID: 1, CourseID: 7}, nil)
	enrollment := new(enrollmentLookupMock)
	boom := errors.New("connection reset")
	enrollment.On("ListStudentsEnrolledIn", mock.Anything, uint64(7)).
		Return(nil, boom)
	a := seating.NewAssigner(exams, enrollment)

	_, err := a.Assign(context.Background(), 1, "Hall-A")
	assert.ErrorIs(t, err, boom)
}
