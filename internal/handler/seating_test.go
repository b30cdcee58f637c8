package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/examstack/examhall/internal/handler"
	"github.com/examstack/examhall/internal/repository"
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

// newSeatingHandler builds a handler whose assigner sees one exam (id 1,
// course 7) with n enrolled students. The exam repository is a dead
// dependency here; the tested endpoints never touch it.
func newSeatingHandler(t *testing.T, n int, store *storeMock) *handler.SeatingHandler {
	t.Helper()
	exams := new(examLookupMock)
	exams.On("GetExamInfo", mock.Anything, uint64(1)).
		Return(seating.ExamInfo{ID: 1, CourseID: 7, Title: "Algorithms Final", Hall: "Hall-A"}, nil)
	exams.On("GetExamInfo", mock.Anything, mock.Anything).
		Return(seating.ExamInfo{}, seating.ErrExamNotFound).Maybe()

	students := make([]seating.EnrolledStudent, 0, n)
	for i := 1; i <= n; i++ {
		students = append(students, seating.EnrolledStudent{ID: uint64(i), Name: "Student", RollNumber: "R"})
	}
	enrollment := new(enrollmentLookupMock)
	enrollment.On("ListStudentsEnrolledIn", mock.Anything, uint64(7)).Return(students, nil)

	svc := seating.NewService(seating.NewAssigner(exams, enrollment), store)
	return handler.NewSeatingHandler(svc, repository.NewExamRepo(nil))
}

func doJSON(e *echo.Echo, method, target, body string, uid uint64) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uid)
	return c, rec
}

func TestSeatingCreate_ReturnsDraft(t *testing.T) {
	store := new(storeMock)
	store.On("Create", mock.Anything, mock.MatchedBy(func(arr *seating.Arrangement) bool {
		return arr.ExamID == 1 && arr.Hall == "Hall-A" && len(arr.Assignments) == 12
	})).Return(nil)

	h := newSeatingHandler(t, 12, store)
	e := echo.New()
	c, rec := doJSON(e, http.MethodPost, "/v1/seating", `{"exam_id":1,"hall":"Hall-A"}`, 42)

	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var arr seating.Arrangement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &arr))
	assert.Equal(t, seating.StatusDraft, arr.Status)
	assert.Len(t, arr.Assignments, 12)
	assert.Equal(t, "1", arr.Assignments[0].SeatNumber)
	assert.Equal(t, "11", arr.Assignments[10].SeatNumber)
	assert.Equal(t, 2, arr.Assignments[10].Row)
	assert.Equal(t, 1, arr.Assignments[10].Column)
	store.AssertExpectations(t)
}

func TestSeatingCreate_DuplicateConflicts(t *testing.T) {
	store := new(storeMock)
	store.On("Create", mock.Anything, mock.Anything).Return(seating.ErrArrangementExists)

	h := newSeatingHandler(t, 3, store)
	e := echo.New()
	c, rec := doJSON(e, http.MethodPost, "/v1/seating", `{"exam_id":1,"hall":"Hall-A"}`, 42)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSeatingCreate_UnknownExamIs404(t *testing.T) {
	store := new(storeMock)
	h := newSeatingHandler(t, 3, store)
	e := echo.New()
	c, rec := doJSON(e, http.MethodPost, "/v1/seating", `{"exam_id":99,"hall":"Hall-A"}`, 42)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSeatingCreate_MissingHallIs400(t *testing.T) {
	store := new(storeMock)
	h := newSeatingHandler(t, 3, store)
	e := echo.New()
	c, rec := doJSON(e, http.MethodPost, "/v1/seating", `{"exam_id":1}`, 42)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeatingUpdate_FinalizedConflicts(t *testing.T) {
	store := new(storeMock)
	store.On("UpdateDraft", mock.Anything, uint64(5), mock.Anything, mock.Anything).
		Return(nil, seating.ErrArrangementFinalized)

	h := newSeatingHandler(t, 3, store)
	e := echo.New()
	c, rec := doJSON(e, http.MethodPut, "/v1/seating/5", `{"hall":"Hall-B"}`, 42)
	c.SetPath("/v1/seating/:id")
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSeatingUpdate_DuplicateSeatsIs400(t *testing.T) {
	store := new(storeMock)
	h := newSeatingHandler(t, 3, store)
	e := echo.New()
	body := `{"assignments":[
		{"student_id":1,"seat_number":"1","row":1,"column":1},
		{"student_id":2,"seat_number":"1","row":1,"column":1}
	]}`
	c, rec := doJSON(e, http.MethodPut, "/v1/seating/5", body, 42)
	c.SetPath("/v1/seating/:id")
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	store.AssertNotCalled(t, "UpdateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSeatingUpdate_EmptyPatchIs400(t *testing.T) {
	store := new(storeMock)
	h := newSeatingHandler(t, 3, store)
	e := echo.New()
	c, rec := doJSON(e, http.MethodPut, "/v1/seating/5", `{}`, 42)
	c.SetPath("/v1/seating/:id")
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	store.AssertNotCalled(t, "UpdateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSeatingGet_NotFound(t *testing.T) {
	store := new(storeMock)
	store.On("GetByID", mock.Anything, uint64(404)).Return(nil, seating.ErrArrangementNotFound)

	h := newSeatingHandler(t, 3, store)
	e := echo.New()
	c, rec := doJSON(e, http.MethodGet, "/v1/seating/404", "", 42)
	c.SetPath("/v1/seating/:id")
	c.SetParamNames("id")
	c.SetParamValues("404")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeatingDelete_NoContent(t *testing.T) {
	store := new(storeMock)
	store.On("Delete", mock.Anything, uint64(9)).Return(nil)

	h := newSeatingHandler(t, 3, store)
	e := echo.New()
	c, rec := doJSON(e, http.MethodDelete, "/v1/seating/9", "", 42)
	c.SetPath("/v1/seating/:id")
	c.SetParamNames("id")
	c.SetParamValues("9")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMySeating_ReturnsOnlySeatedRows(t *testing.T) {
	store := new(storeMock)
	store.On("ListForStudent", mock.Anything, uint64(7)).Return([]seating.StudentSeat{
		{ArrangementID: 1, ExamID: 1, Hall: "Hall-A", SeatNumber: "4", Row: 1, Column: 4, Status: seating.StatusFinalized},
	}, nil)

	h := newSeatingHandler(t, 3, store)
	e := echo.New()
	c, rec := doJSON(e, http.MethodGet, "/v1/student/seating", "", 7)

	require.NoError(t, h.MySeating(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Seats []seating.StudentSeat `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Seats, 1)
	assert.Equal(t, "4", resp.Seats[0].SeatNumber)
	assert.Equal(t, seating.StatusFinalized, resp.Seats[0].Status)
}
