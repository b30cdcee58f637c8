package handler

import (
	"context"
	"database/sql"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/repository"
)

// ExamHandler exposes exam scheduling to admins and read access to
// authenticated users.
type ExamHandler struct {
	Exams *repository.ExamRepo
}

func NewExamHandler(exams *repository.ExamRepo) *ExamHandler {
	if exams == nil {
		panic("nil repository passed to NewExamHandler")
	}
	return &ExamHandler{Exams: exams}
}

type examReq struct {
	Title        string `json:"title"`
	CourseID     uint64 `json:"course_id"`
	Semester     int    `json:"semester"`
	Date         string `json:"date"` // YYYY-MM-DD
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	DurationMin  int    `json:"duration_min"`
	TotalMarks   int    `json:"total_marks"`
	Hall         string `json:"hall"`
	Instructions string `json:"instructions"`
	Status       string `json:"status"`
}

type examResp struct {
	ID           uint64 `json:"id"`
	Title        string `json:"title"`
	CourseID     uint64 `json:"course_id"`
	Semester     int    `json:"semester"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	DurationMin  int    `json:"duration_min"`
	TotalMarks   int    `json:"total_marks"`
	Hall         string `json:"hall"`
	Instructions string `json:"instructions,omitempty"`
	Status       string `json:"status"`
}

func toExamResp(e *repository.Exam) examResp {
	return examResp{
		ID:           e.ID,
		Title:        e.Title,
		CourseID:     e.CourseID,
		Semester:     e.Semester,
		Date:         e.Date.Format("2006-01-02"),
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		DurationMin:  e.DurationMin,
		TotalMarks:   e.TotalMarks,
		Hall:         e.Hall,
		Instructions: e.Instructions.String,
		Status:       e.Status,
	}
}

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func (req *examReq) validate() (time.Time, string) {
	if strings.TrimSpace(req.Title) == "" || req.CourseID == 0 || strings.TrimSpace(req.Hall) == "" {
		return time.Time{}, "title/course_id/hall required"
	}
	if req.Semester <= 0 {
		return time.Time{}, "semester must be positive"
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return time.Time{}, "date must be YYYY-MM-DD"
	}
	if !hhmmRe.MatchString(req.StartTime) || !hhmmRe.MatchString(req.EndTime) {
		return time.Time{}, "start_time/end_time must be HH:MM"
	}
	if req.EndTime <= req.StartTime {
		return time.Time{}, "end_time must be after start_time"
	}
	return date, ""
}

// Create schedules a new exam. A hall/date/time overlap with another
// active exam is rejected with 409.
func (h *ExamHandler) Create(c echo.Context) error {
	var req examReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	conflict, err := h.Exams.HasHallConflict(ctx, strings.TrimSpace(req.Hall), date, req.StartTime, req.EndTime, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "conflict check failed"})
	}
	if conflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "hall is occupied in that time window"})
	}

	e := &repository.Exam{
		Title:       strings.TrimSpace(req.Title),
		CourseID:    req.CourseID,
		Semester:    req.Semester,
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		DurationMin: req.DurationMin,
		TotalMarks:  req.TotalMarks,
		Hall:        strings.TrimSpace(req.Hall),
		CreatedBy:   uid,
	}
	if s := strings.TrimSpace(req.Instructions); s != "" {
		e.Instructions = sql.NullString{String: s, Valid: true}
	}
	if err := h.Exams.Create(ctx, e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create exam failed"})
	}
	return c.JSON(http.StatusCreated, toExamResp(e))
}

// List returns active exams, optionally filtered by ?semester=.
func (h *ExamHandler) List(c echo.Context) error {
	semester := 0
	if s := c.QueryParam("semester"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid semester"})
		}
		semester = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exams, err := h.Exams.List(ctx, semester)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list exams failed"})
	}
	out := make([]examResp, 0, len(exams))
	for _, e := range exams {
		out = append(out, toExamResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"exams": out})
}

// Get returns one exam by id.
func (h *ExamHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Exams.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrExamNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exam not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load exam failed"})
	}
	return c.JSON(http.StatusOK, toExamResp(e))
}

// Update rewrites an exam, rechecking hall conflicts against the new
// schedule (the exam itself is excluded from the check).
func (h *ExamHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req examReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	switch status {
	case "", "SCHEDULED", "COMPLETED", "CANCELLED":
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Exams.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrExamNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exam not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load exam failed"})
	}

	conflict, err := h.Exams.HasHallConflict(ctx, strings.TrimSpace(req.Hall), date, req.StartTime, req.EndTime, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "conflict check failed"})
	}
	if conflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "hall is occupied in that time window"})
	}

	e.Title = strings.TrimSpace(req.Title)
	e.CourseID = req.CourseID
	e.Semester = req.Semester
	e.Date = date
	e.StartTime = req.StartTime
	e.EndTime = req.EndTime
	e.DurationMin = req.DurationMin
	e.TotalMarks = req.TotalMarks
	e.Hall = strings.TrimSpace(req.Hall)
	e.Instructions = sql.NullString{}
	if s := strings.TrimSpace(req.Instructions); s != "" {
		e.Instructions = sql.NullString{String: s, Valid: true}
	}
	if status != "" {
		e.Status = status
	}
	if err := h.Exams.Update(ctx, e); err != nil {
		if err == repository.ErrExamNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exam not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update exam failed"})
	}
	return c.JSON(http.StatusOK, toExamResp(e))
}

// Delete soft-deletes an exam.
func (h *ExamHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Exams.Deactivate(ctx, id); err != nil {
		if err == repository.ErrExamNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exam not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete exam failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
