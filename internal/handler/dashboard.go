package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medetov/tutorhub/internal/repository"
)

// DashboardHandler serves the tutor dashboard: how many courses the tutor
// owns and how many enrollments they have gathered in total, with per-course
// rows.
type DashboardHandler struct {
	Catalog *repository.CatalogRepo
}

func NewDashboardHandler(catalog *repository.CatalogRepo) *DashboardHandler {
	if catalog == nil {
		panic("nil repository passed to NewDashboardHandler")
	}
	return &DashboardHandler{Catalog: catalog}
}

// Dashboard handles GET /v1/tutor/dashboard.
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	tutorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	stats, courses, err := h.Catalog.TutorDashboard(ctx, tutorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load dashboard failed"})
	}
	if courses == nil {
		courses = []repository.CourseSummary{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"stats":   stats,
		"courses": courses,
	})
}
