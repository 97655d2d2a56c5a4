package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medetov/tutorhub/internal/config"
	"github.com/medetov/tutorhub/internal/queue"
	"github.com/medetov/tutorhub/internal/repository"
	queue_publisher "github.com/medetov/tutorhub/internal/service"
)

// ReviewHandler implements the student-side review endpoints. Each mutation
// recomputes the course aggregate transactionally and then publishes a
// review.activity event; a failed publish is logged and ignored because the
// consumer-side recompute only repairs what the request already wrote.
type ReviewHandler struct {
	Cfg     config.Config
	Reviews *repository.ReviewRepo
	Courses *repository.CourseRepo
	Log     *zap.Logger
}

func NewReviewHandler(cfg config.Config, reviews *repository.ReviewRepo, courses *repository.CourseRepo, log *zap.Logger) *ReviewHandler {
	if reviews == nil || courses == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{Cfg: cfg, Reviews: reviews, Courses: courses, Log: log}
}

type postReviewReq struct {
	CourseID uint64 `json:"course_id"`
	Text     string `json:"text"`
	Rating   *int   `json:"rating"`
}

// validReviewInput rejects missing fields and out-of-range ratings.
func validReviewInput(req postReviewReq) (string, bool) {
	if req.CourseID == 0 {
		return "course_id required", false
	}
	if strings.TrimSpace(req.Text) == "" {
		return "text required", false
	}
	if req.Rating == nil {
		return "rating required", false
	}
	if *req.Rating < 0 || *req.Rating > 5 {
		return "rating must be between 0 and 5", false
	}
	return "", true
}

// Create handles POST /v1/comments.
func (h *ReviewHandler) Create(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req postReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := validReviewInput(req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}

	cm := &repository.Comment{
		CourseID:  req.CourseID,
		StudentID: studentID,
		Body:      strings.TrimSpace(req.Text),
		Rating:    *req.Rating,
	}
	if err := h.Reviews.Create(ctx, cm); err != nil {
		if errors.Is(err, repository.ErrAlreadyReviewed) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "course already reviewed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "post review failed"})
	}

	h.publish(queue.ReviewActivityEvent{
		Action:     queue.ActionReviewPosted,
		CommentID:  cm.ID,
		CourseID:   cm.CourseID,
		StudentID:  cm.StudentID,
		Rating:     cm.Rating,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, cm)
}

// Delete handles DELETE /v1/comments/:id. Only the author may remove a
// review.
func (h *ReviewHandler) Delete(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	courseID, err := h.Reviews.Delete(ctx, id, studentID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCommentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete review failed"})
		}
	}

	h.publish(queue.ReviewActivityEvent{
		Action:     queue.ActionReviewDeleted,
		CommentID:  id,
		CourseID:   courseID,
		StudentID:  studentID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}

// publish sends the event in the background; the request does not wait on
// the broker.
func (h *ReviewHandler) publish(ev queue.ReviewActivityEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()
		_ = queue_publisher.PublishReviewActivity(ctx, h.Cfg.AMQPURL, ev, h.Log)
	}()
}
