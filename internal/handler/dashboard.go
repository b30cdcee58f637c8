package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/repository"
)

// DashboardHandler aggregates the counters and progress figures the role
// dashboards display. Progress comes from recorded topic coverage, so
// the numbers are stable between reloads.
type DashboardHandler struct {
	Users   *repository.UserRepo
	Exams   *repository.ExamRepo
	Halls   *repository.HallRepo
	Courses *repository.CourseRepo
	Tickets *repository.HallTicketRepo
	Syllabi *repository.SyllabusRepo
}

func NewDashboardHandler(users *repository.UserRepo, exams *repository.ExamRepo, halls *repository.HallRepo,
	courses *repository.CourseRepo, tickets *repository.HallTicketRepo, syllabi *repository.SyllabusRepo) *DashboardHandler {
	if users == nil || exams == nil || halls == nil || courses == nil || tickets == nil || syllabi == nil {
		panic("nil repository passed to NewDashboardHandler")
	}
	return &DashboardHandler{Users: users, Exams: exams, Halls: halls, Courses: courses, Tickets: tickets, Syllabi: syllabi}
}

// Admin returns entity counts for the admin overview.
func (h *DashboardHandler) Admin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	students, err := h.Users.CountByRole(ctx, repository.RoleStudent)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard query failed"})
	}
	teachers, err := h.Users.CountByRole(ctx, repository.RoleTeacher)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard query failed"})
	}
	upcomingExams, err := h.Exams.CountUpcoming(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard query failed"})
	}
	halls, err := h.Halls.CountActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard query failed"})
	}
	pendingTickets, err := h.Tickets.CountPending(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"students":        students,
		"teachers":        teachers,
		"upcoming_exams":  upcomingExams,
		"halls":           halls,
		"pending_tickets": pendingTickets,
	})
}

// Student returns the caller's personal dashboard: enrolled courses,
// approved tickets, upcoming exams and per-course syllabus progress.
func (h *DashboardHandler) Student(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	courses, err := h.Courses.ListForStudent(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard query failed"})
	}
	ticketCount, err := h.Tickets.CountForStudent(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard query failed"})
	}
	tickets, err := h.Tickets.ListForStudent(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard query failed"})
	}
	progress, err := h.Syllabi.ProgressForStudent(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard query failed"})
	}
	if progress == nil {
		progress = []repository.CourseProgress{}
	}

	// Upcoming exams are derived from the student's approved tickets.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	upcoming := make([]echo.Map, 0)
	for _, t := range tickets {
		if !t.ExamDate.Valid || t.ExamDate.Time.Before(today) {
			continue
		}
		upcoming = append(upcoming, echo.Map{
			"exam_id":    t.ExamID,
			"title":      t.ExamTitle.String,
			"date":       t.ExamDate.Time.Format("2006-01-02"),
			"start_time": t.StartTime.String,
			"hall":       t.Hall,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"courses":        len(courses),
		"hall_tickets":   ticketCount,
		"upcoming_exams": upcoming,
		"progress":       progress,
	})
}
