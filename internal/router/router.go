// Package router wires HTTP routes onto the Echo instance, grouped by the
// role allowed to call them.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/medetov/tutorhub/internal/handler"
	"github.com/medetov/tutorhub/internal/middleware"
	"github.com/medetov/tutorhub/internal/repository"
)

// RegisterRoutes registers routes that need no authentication beyond the
// health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints. Signup/signin take the role
// from the path; refresh and logout operate on refresh tokens; /v1/me is the
// only JWT-protected route here.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/signup/:role", a.Signup)
	g.POST("/signin/:role", a.Signin)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated catalog endpoints. cacheMW is
// the Redis response cache (pass-through when disabled).
func RegisterPublic(e *echo.Echo, cat *handler.CatalogHandler, cacheMW echo.MiddlewareFunc) {
	g := e.Group("/v1", cacheMW)
	g.GET("/courses", cat.ListCourses)
	g.GET("/courses/:id", cat.GetCourse)
	g.GET("/courses/:id/comments", cat.ListCourseComments)
}

// RegisterStudent registers enrollment and review endpoints; all require a
// student access token.
func RegisterStudent(e *echo.Echo, enr *handler.EnrollmentHandler, rev *handler.ReviewHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(repository.RoleStudent))

	g.POST("/enrollments", enr.Enroll)
	g.GET("/enrollments", enr.List)
	g.PATCH("/enrollments/:id", enr.UpdateProgress)
	g.DELETE("/enrollments/:id", enr.Unenroll)

	g.POST("/comments", rev.Create)
	g.DELETE("/comments/:id", rev.Delete)
}

// RegisterTutor registers course publishing and the dashboard; all require a
// tutor access token.
func RegisterTutor(e *echo.Echo, crs *handler.CourseHandler, dash *handler.DashboardHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(repository.RoleTutor))

	g.POST("/courses", crs.Create)
	g.DELETE("/courses/:id", crs.Delete)
	g.GET("/tutor/dashboard", dash.Dashboard)
}
