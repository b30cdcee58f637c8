package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/repository"
)

// SyllabusHandler lets teachers maintain syllabi and topic coverage;
// students and admins read them.
type SyllabusHandler struct {
	Syllabi *repository.SyllabusRepo
	Courses *repository.CourseRepo
}

func NewSyllabusHandler(syllabi *repository.SyllabusRepo, courses *repository.CourseRepo) *SyllabusHandler {
	if syllabi == nil || courses == nil {
		panic("nil repository passed to NewSyllabusHandler")
	}
	return &SyllabusHandler{Syllabi: syllabi, Courses: courses}
}

type topicReq struct {
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Covered  bool   `json:"covered"`
}

type syllabusReq struct {
	CourseID    uint64     `json:"course_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Department  string     `json:"department"`
	Semester    int        `json:"semester"`
	Topics      []topicReq `json:"topics"`
}

type syllabusResp struct {
	ID          uint64                     `json:"id"`
	CourseID    uint64                     `json:"course_id"`
	Title       string                     `json:"title"`
	Description string                     `json:"description,omitempty"`
	Content     string                     `json:"content"`
	Department  string                     `json:"department"`
	Semester    int                        `json:"semester"`
	Topics      []repository.SyllabusTopic `json:"topics"`
}

func toSyllabusResp(s *repository.Syllabus) syllabusResp {
	topics := s.Topics
	if topics == nil {
		topics = []repository.SyllabusTopic{}
	}
	return syllabusResp{
		ID:          s.ID,
		CourseID:    s.CourseID,
		Title:       s.Title,
		Description: s.Description.String,
		Content:     s.Content,
		Department:  s.Department,
		Semester:    s.Semester,
		Topics:      topics,
	}
}

func (req *syllabusReq) toModel(createdBy uint64) (*repository.Syllabus, string) {
	if req.CourseID == 0 || strings.TrimSpace(req.Title) == "" {
		return nil, "course_id/title required"
	}
	if req.Semester <= 0 {
		return nil, "semester must be positive"
	}
	s := &repository.Syllabus{
		CourseID:   req.CourseID,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Department: strings.TrimSpace(req.Department),
		Semester:   req.Semester,
		CreatedBy:  createdBy,
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		s.Description = sql.NullString{String: d, Valid: true}
	}
	for _, t := range req.Topics {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			return nil, "topic title required"
		}
		s.Topics = append(s.Topics, repository.SyllabusTopic{
			Title:    title,
			Duration: strings.TrimSpace(t.Duration),
			Covered:  t.Covered,
		})
	}
	return s, ""
}

// Create adds a syllabus with its topic list. The referenced course must
// exist.
func (h *SyllabusHandler) Create(c echo.Context) error {
	var req syllabusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	s, msg := req.toModel(uid)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, s.CourseID); err != nil {
		if err == repository.ErrCourseNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}
	if err := h.Syllabi.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create syllabus failed"})
	}
	// Re-read so topic IDs and positions come back populated.
	created, err := h.Syllabi.GetByID(ctx, s.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load syllabus failed"})
	}
	return c.JSON(http.StatusCreated, toSyllabusResp(created))
}

// List returns active syllabi, optionally scoped by ?department= and
// ?semester=.
func (h *SyllabusHandler) List(c echo.Context) error {
	department := strings.TrimSpace(c.QueryParam("department"))
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

	syllabi, err := h.Syllabi.List(ctx, department, semester)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list syllabi failed"})
	}
	out := make([]syllabusResp, 0, len(syllabi))
	for _, s := range syllabi {
		out = append(out, toSyllabusResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"syllabi": out})
}

// Get returns one syllabus with topics.
func (h *SyllabusHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Syllabi.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrSyllabusNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "syllabus not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load syllabus failed"})
	}
	return c.JSON(http.StatusOK, toSyllabusResp(s))
}

// Update rewrites a syllabus and replaces its topics. Teachers mark
// coverage by resubmitting topics with updated covered flags.
func (h *SyllabusHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req syllabusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	s, msg := req.toModel(uid)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	s.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Syllabi.Update(ctx, s); err != nil {
		if err == repository.ErrSyllabusNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "syllabus not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update syllabus failed"})
	}
	updated, err := h.Syllabi.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load syllabus failed"})
	}
	return c.JSON(http.StatusOK, toSyllabusResp(updated))
}

// Delete soft-deletes a syllabus.
func (h *SyllabusHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Syllabi.Deactivate(ctx, id); err != nil {
		if err == repository.ErrSyllabusNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "syllabus not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete syllabus failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
