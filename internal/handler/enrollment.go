package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medetov/tutorhub/internal/repository"
)

// EnrollmentHandler implements the student-side enrollment endpoints. The
// acting student is always the authenticated caller; duplicate enrollment is
// rejected by the storage-level unique pair key, not by a pre-check.
type EnrollmentHandler struct {
	Enrollments *repository.EnrollmentRepo
	Courses     *repository.CourseRepo
}

func NewEnrollmentHandler(enrollments *repository.EnrollmentRepo, courses *repository.CourseRepo) *EnrollmentHandler {
	if enrollments == nil || courses == nil {
		panic("nil repository passed to NewEnrollmentHandler")
	}
	return &EnrollmentHandler{Enrollments: enrollments, Courses: courses}
}

// Enroll handles POST /v1/enrollments with body {"course_id": n}.
func (h *EnrollmentHandler) Enroll(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		CourseID uint64 `json:"course_id"`
	}
	if err := c.Bind(&req); err != nil || req.CourseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "course_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}

	e, err := h.Enrollments.Create(ctx, studentID, req.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyEnrolled) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already enrolled in this course"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enroll failed"})
	}
	return c.JSON(http.StatusCreated, e)
}

// List handles GET /v1/enrollments: the caller's enrollments with course
// summaries, most recent first.
func (h *EnrollmentHandler) List(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	list, err := h.Enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list enrollments failed"})
	}
	if list == nil {
		list = []repository.StudentEnrollment{}
	}
	return c.JSON(http.StatusOK, list)
}

// UpdateProgress handles PATCH /v1/enrollments/:id with body {"progress": n}.
// Numeric values are clamped into [0,100]; non-numeric bodies are rejected
// rather than silently coerced.
func (h *EnrollmentHandler) UpdateProgress(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment id"})
	}
	var req struct {
		Progress *float64 `json:"progress"`
	}
	if err := c.Bind(&req); err != nil || req.Progress == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "progress must be a number"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	e, err := h.Enrollments.UpdateProgress(ctx, id, studentID, *req.Progress)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "enrollment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update progress failed"})
	}
	return c.JSON(http.StatusOK, e)
}

// Unenroll handles DELETE /v1/enrollments/:id.
func (h *EnrollmentHandler) Unenroll(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Enrollments.Delete(ctx, id, studentID); err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "enrollment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unenroll failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}
