package router

import (
	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/handler"
	"github.com/examstack/examhall/internal/middleware"
	"github.com/examstack/examhall/internal/repository"
)

// RegisterStaff registers endpoints shared by ADMIN and TEACHER: seating
// arrangements, hall ticket issuance, course rosters and syllabus
// maintenance.
func RegisterStaff(e *echo.Echo, se *handler.SeatingHandler, tk *handler.HallTicketHandler,
	co *handler.CourseHandler, sy *handler.SyllabusHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin, repository.RoleTeacher),
	)

	// ---- Seating arrangements ----
	g.POST("/seating", se.Create)
	g.GET("/seating", se.List)
	g.GET("/seating/:id", se.Get)
	g.PUT("/seating/:id", se.Update)
	g.PATCH("/seating/:id", se.Update)
	g.POST("/seating/:id/finalize", se.Finalize)
	g.DELETE("/seating/:id", se.Delete)

	// ---- Hall tickets ----
	g.POST("/hall-tickets", tk.Issue)
	g.GET("/exams/:id/hall-tickets", tk.ListByExam)

	// ---- Rosters ----
	g.GET("/courses/:id/roster", co.Roster)

	// ---- Syllabi ----
	g.POST("/syllabi", sy.Create)
	g.PUT("/syllabi/:id", sy.Update)
	g.PATCH("/syllabi/:id", sy.Update)
	g.DELETE("/syllabi/:id", sy.Delete)
}
