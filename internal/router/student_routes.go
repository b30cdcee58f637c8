package router

import (
	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/handler"
	"github.com/examstack/examhall/internal/middleware"
	"github.com/examstack/examhall/internal/repository"
)

// RegisterStudent registers STUDENT-scoped self-service endpoints: own
// courses, tickets, seats and dashboard.
func RegisterStudent(e *echo.Echo, se *handler.SeatingHandler, tk *handler.HallTicketHandler,
	co *handler.CourseHandler, db *handler.DashboardHandler, jwtSecret string) {
	g := e.Group(
		"/v1/student",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleStudent),
	)

	g.GET("/courses", co.MyCourses)
	g.GET("/hall-tickets", tk.MyTickets)
	g.GET("/seating", se.MySeating)
	g.GET("/dashboard", db.Student)
}
