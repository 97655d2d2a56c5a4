package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medetov/tutorhub/internal/repository"
	"github.com/medetov/tutorhub/internal/storage"
)

// CourseHandler implements the tutor-side course endpoints: publishing a
// course (JSON for youtube assets, multipart for local video uploads) and
// deleting one with its full cascade.
type CourseHandler struct {
	Courses *repository.CourseRepo
	Assets  *storage.Store
	Log     *zap.Logger
}

func NewCourseHandler(courses *repository.CourseRepo, assets *storage.Store, log *zap.Logger) *CourseHandler {
	if courses == nil || assets == nil {
		panic("nil dependency passed to NewCourseHandler")
	}
	return &CourseHandler{Courses: courses, Assets: assets, Log: log}
}

type chapterReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createCourseReq struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Asset       repository.Asset `json:"asset"`
	Chapters    []chapterReq     `json:"chapters"`
}

// validateCourseInput checks the fields shared by both create paths.
func validateCourseInput(title, description string, chapters []chapterReq) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(description) == "" {
		return errors.New("description is required")
	}
	for i := range chapters {
		if strings.TrimSpace(chapters[i].Title) == "" {
			return errors.New("chapter titles are required")
		}
	}
	return nil
}

func toChapters(reqs []chapterReq) []repository.Chapter {
	out := make([]repository.Chapter, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, repository.Chapter{Title: strings.TrimSpace(r.Title), Description: r.Description})
	}
	return out
}

// Create handles POST /v1/courses. Multipart requests carry a local video
// file plus form fields; JSON requests may only reference an external
// (youtube) asset. A staged upload is removed again when anything after the
// staging step fails, so no orphaned bytes survive a rejected request.
func (h *CourseHandler) Create(c echo.Context) error {
	tutorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		return h.createFromMultipart(c, tutorID)
	}
	return h.createFromJSON(c, tutorID)
}

func (h *CourseHandler) createFromJSON(c echo.Context, tutorID uint64) error {
	var req createCourseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validateCourseInput(req.Title, req.Description, req.Chapters); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	req.Asset.Kind = strings.ToUpper(strings.TrimSpace(req.Asset.Kind))
	if req.Asset.Kind == repository.AssetLocal {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "local assets must be uploaded as multipart"})
	}
	if err := req.Asset.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "asset must be youtube with a url"})
	}

	course := &repository.Course{
		TutorID:     tutorID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Asset:       req.Asset,
		Chapters:    toChapters(req.Chapters),
	}
	return h.insert(c, course, "")
}

func (h *CourseHandler) createFromMultipart(c echo.Context, tutorID uint64) error {
	title := c.FormValue("title")
	description := c.FormValue("description")
	kind := strings.ToUpper(strings.TrimSpace(c.FormValue("asset_kind")))
	if kind == "" {
		kind = repository.AssetLocal
	}

	var chapters []chapterReq
	if raw := c.FormValue("chapters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &chapters); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "chapters must be a JSON array"})
		}
	}
	if err := validateCourseInput(title, description, chapters); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var asset repository.Asset
	stagedKey := ""
	switch kind {
	case repository.AssetLocal:
		fh, err := c.FormFile("video")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "video file is required for local assets"})
		}
		key, err := h.Assets.Save(fh)
		if err != nil {
			h.Log.Error("staging uploaded video failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store video failed"})
		}
		stagedKey = key
		asset = repository.Asset{Kind: repository.AssetLocal, StorageKey: key}
	case repository.AssetYoutube:
		asset = repository.Asset{Kind: repository.AssetYoutube, ExternalURL: strings.TrimSpace(c.FormValue("external_url"))}
		if err := asset.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "external_url is required for youtube assets"})
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "asset_kind must be local or youtube"})
	}

	course := &repository.Course{
		TutorID:     tutorID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Asset:       asset,
		Chapters:    toChapters(chapters),
	}
	return h.insert(c, course, stagedKey)
}

// insert persists the course; when that fails after a local file was staged,
// the file is removed again.
func (h *CourseHandler) insert(c echo.Context, course *repository.Course, stagedKey string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Courses.Create(ctx, course); err != nil {
		if stagedKey != "" {
			h.Assets.Remove(stagedKey)
		}
		if errors.Is(err, repository.ErrInvalidAsset) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid asset descriptor"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create course failed"})
	}
	return c.JSON(http.StatusCreated, course)
}

// Delete handles DELETE /v1/courses/:id. The repository removes enrollments,
// comments and chapters before the course row inside one transaction; the
// local video file, when there is one, is removed afterwards best-effort.
func (h *CourseHandler) Delete(c echo.Context) error {
	tutorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	storageKey, err := h.Courses.DeleteCascade(ctx, id, tutorID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCourseNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete course failed"})
		}
	}
	h.Assets.Remove(storageKey)
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}
