// Package router wires handlers to URL paths and attaches the JWT and
// role middlewares per group.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/examstack/examhall/internal/handler"
	"github.com/examstack/examhall/internal/middleware"
	"github.com/examstack/examhall/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout works with a refresh token alone, so no JWT middleware here.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin, repository.RoleTeacher, repository.RoleStudent),
	)
	auth.GET("/me", a.Me)
}

// RegisterReads registers read endpoints shared by every authenticated
// role: exam, hall, course and syllabus listings.
func RegisterReads(e *echo.Echo, ex *handler.ExamHandler, hl *handler.HallHandler,
	co *handler.CourseHandler, sy *handler.SyllabusHandler, jwtSecret string) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin, repository.RoleTeacher, repository.RoleStudent),
	)

	g.GET("/exams", ex.List)
	g.GET("/exams/:id", ex.Get)
	g.GET("/halls", hl.List)
	g.GET("/halls/:id", hl.Get)
	g.GET("/courses", co.List)
	g.GET("/syllabi", sy.List)
	g.GET("/syllabi/:id", sy.Get)
}
