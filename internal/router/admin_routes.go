package router

import (
	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/handler"
	"github.com/examstack/examhall/internal/middleware"
	"github.com/examstack/examhall/internal/repository"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1: scheduling,
// the hall and course registries, ticket approval and the admin
// dashboard.
func RegisterAdmin(e *echo.Echo, ex *handler.ExamHandler, hl *handler.HallHandler,
	co *handler.CourseHandler, tk *handler.HallTicketHandler, db *handler.DashboardHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin),
	)

	// ---- Exams ----
	g.POST("/exams", ex.Create)
	g.PUT("/exams/:id", ex.Update)
	g.PATCH("/exams/:id", ex.Update)
	g.DELETE("/exams/:id", ex.Delete)

	// ---- Halls ----
	g.POST("/halls", hl.Create)
	g.PUT("/halls/:id", hl.Update)
	g.PATCH("/halls/:id", hl.Update)
	g.DELETE("/halls/:id", hl.Delete)

	// ---- Courses & enrollment ----
	g.POST("/courses", co.Create)
	g.POST("/courses/:id/enrollments", co.Enroll)
	g.DELETE("/courses/:id/enrollments/:student_id", co.Unenroll)

	// ---- Hall ticket review ----
	g.PATCH("/hall-tickets/:id/approval", tk.SetApproval)
	g.DELETE("/hall-tickets/:id", tk.Revoke)

	g.GET("/admin/dashboard", db.Admin)
}
