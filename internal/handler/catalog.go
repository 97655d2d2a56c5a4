package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medetov/tutorhub/internal/repository"
)

// CatalogHandler serves the public read side: course listings with optional
// per-student enrollment tagging, single course detail with its live
// enrollment count, and a course's reviews.
type CatalogHandler struct {
	Courses *repository.CourseRepo
	Catalog *repository.CatalogRepo
	Reviews *repository.ReviewRepo
}

func NewCatalogHandler(courses *repository.CourseRepo, catalog *repository.CatalogRepo, reviews *repository.ReviewRepo) *CatalogHandler {
	if courses == nil || catalog == nil || reviews == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Courses: courses, Catalog: catalog, Reviews: reviews}
}

// ListCourses handles GET /v1/courses?tutor_id=&student_id=&filter=.
// filter=enrolled|not-enrolled applies relative to student_id; with a
// student_id each summary carries is_enrolled and, when enrolled, the
// enrollment id and progress.
func (h *CatalogHandler) ListCourses(c echo.Context) error {
	var f repository.CourseFilter
	if v := c.QueryParam("tutor_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tutor_id"})
		}
		f.TutorID = id
	}
	if v := c.QueryParam("student_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student_id"})
		}
		f.StudentID = id
	}
	f.Enrollment = strings.ToLower(c.QueryParam("filter"))
	if f.Enrollment != "" && f.Enrollment != "enrolled" && f.Enrollment != "not-enrolled" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "filter must be enrolled or not-enrolled"})
	}
	if f.Enrollment != "" && f.StudentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "filter requires student_id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	courses, err := h.Catalog.ListCourses(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list courses failed"})
	}
	if courses == nil {
		courses = []repository.CourseSummary{}
	}
	return c.JSON(http.StatusOK, courses)
}

type courseDetailResp struct {
	repository.Course
	TutorName       string `json:"tutor_name"`
	EnrollmentCount uint64 `json:"enrollment_count"`
}

// GetCourse handles GET /v1/courses/:id. The enrollment count is computed at
// read time; the rating aggregate comes from the course row's cache.
func (h *CatalogHandler) GetCourse(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}
	tutorName, enrollCount, err := h.Catalog.CourseMeta(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrCourseNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}
	return c.JSON(http.StatusOK, courseDetailResp{
		Course:          *course,
		TutorName:       tutorName,
		EnrollmentCount: enrollCount,
	})
}

// ListCourseComments handles GET /v1/courses/:id/comments.
func (h *CatalogHandler) ListCourseComments(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}
	comments, err := h.Reviews.ListByCourse(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list comments failed"})
	}
	if comments == nil {
		comments = []repository.Comment{}
	}
	return c.JSON(http.StatusOK, comments)
}
