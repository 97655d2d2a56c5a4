package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medetov/tutorhub/internal/repository"
	"github.com/medetov/tutorhub/internal/storage"
)

func testCourseHandler(t *testing.T) *CourseHandler {
	t.Helper()
	assets, err := storage.NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return NewCourseHandler(repository.NewCourseRepo(nil), assets, zap.NewNop())
}

func TestValidateCourseInput(t *testing.T) {
	ok := []chapterReq{{Title: "Intro"}, {Title: "Basics", Description: "00:10"}}
	assert.NoError(t, validateCourseInput("Go 101", "learn go", ok))
	assert.Error(t, validateCourseInput("", "learn go", ok))
	assert.Error(t, validateCourseInput("Go 101", "  ", ok))
	assert.Error(t, validateCourseInput("Go 101", "learn go", []chapterReq{{Title: " "}}))
}

func TestCreateJSONRejectsLocalAsset(t *testing.T) {
	h := testCourseHandler(t)
	c, rec := jsonCtx(http.MethodPost, "/v1/courses",
		`{"title":"Go","description":"d","asset":{"kind":"LOCAL","storage_key":"k"}}`)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJSONRejectsYoutubeWithoutURL(t *testing.T) {
	h := testCourseHandler(t)
	c, rec := jsonCtx(http.MethodPost, "/v1/courses",
		`{"title":"Go","description":"d","asset":{"kind":"YOUTUBE"}}`)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMultipartRequiresVideoFile(t *testing.T) {
	h := testCourseHandler(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("title", "Go 101"))
	require.NoError(t, w.WriteField("description", "learn go"))
	require.NoError(t, w.WriteField("asset_kind", "local"))
	require.NoError(t, w.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/courses", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "video file is required")
}

// Asset kinds are case-normalized on the JSON path just like on multipart.
func TestCreateJSONAcceptsLowercaseKind(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO courses").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at FROM courses").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	assets, err := storage.NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	h := NewCourseHandler(repository.NewCourseRepo(db), assets, zap.NewNop())

	c, rec := jsonCtx(http.MethodPost, "/v1/courses",
		`{"title":"Go","description":"d","asset":{"kind":"youtube","external_url":"https://youtu.be/abc"}}`)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsMissingIdentity(t *testing.T) {
	h := testCourseHandler(t)
	c, rec := jsonCtx(http.MethodPost, "/v1/courses", `{}`)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
