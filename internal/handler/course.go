package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/repository"
)

// CourseHandler manages courses and student enrollment. Enrollment is
// the roster the seating assigner reads, so admins manage it here.
type CourseHandler struct {
	Courses *repository.CourseRepo
	Users   *repository.UserRepo
}

func NewCourseHandler(courses *repository.CourseRepo, users *repository.UserRepo) *CourseHandler {
	if courses == nil || users == nil {
		panic("nil repository passed to NewCourseHandler")
	}
	return &CourseHandler{Courses: courses, Users: users}
}

type courseReq struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Semester   int    `json:"semester"`
}

type courseResp struct {
	ID         uint64 `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Semester   int    `json:"semester"`
}

func toCourseResp(c *repository.Course) courseResp {
	return courseResp{ID: c.ID, Code: c.Code, Name: c.Name, Department: c.Department, Semester: c.Semester}
}

// Create adds a course. Codes are unique.
func (h *CourseHandler) Create(c echo.Context) error {
	var req courseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code/name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course := &repository.Course{Code: req.Code, Name: req.Name, Department: req.Department, Semester: req.Semester}
	if err := h.Courses.Create(ctx, course); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "course code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create course failed"})
	}
	return c.JSON(http.StatusCreated, toCourseResp(course))
}

// List returns active courses.
func (h *CourseHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	courses, err := h.Courses.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list courses failed"})
	}
	out := make([]courseResp, 0, len(courses))
	for _, cr := range courses {
		out = append(out, toCourseResp(cr))
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": out})
}

type enrollReq struct {
	StudentID uint64 `json:"student_id"`
}

// Enroll links a student to the course in the path. Only STUDENT
// accounts can be enrolled.
func (h *CourseHandler) Enroll(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req enrollReq
	if err := c.Bind(&req); err != nil || req.StudentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, courseID); err != nil {
		if err == repository.ErrCourseNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}
	u, err := h.Users.GetByID(ctx, req.StudentID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load student failed"})
	}
	if u.Role != repository.RoleStudent {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "user is not a student"})
	}

	if err := h.Courses.Enroll(ctx, req.StudentID, courseID); err != nil {
		if err == repository.ErrAlreadyEnrolled {
			return c.JSON(http.StatusConflict, echo.Map{"error": "student already enrolled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enroll failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"student_id": req.StudentID, "course_id": courseID})
}

// Unenroll removes the student/course link.
func (h *CourseHandler) Unenroll(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	studentID, err := pathID(c, "student_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student_id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Courses.Unenroll(ctx, studentID, courseID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unenroll failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Roster lists the students enrolled in a course, in the order seating
// assignment will use them.
func (h *CourseHandler) Roster(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	students, err := h.Courses.ListStudentsEnrolledIn(ctx, courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list roster failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": students})
}

// MyCourses returns the caller's enrolled courses (student endpoint).
func (h *CourseHandler) MyCourses(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	courses, err := h.Courses.ListForStudent(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list courses failed"})
	}
	out := make([]courseResp, 0, len(courses))
	for _, cr := range courses {
		out = append(out, toCourseResp(cr))
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": out})
}
