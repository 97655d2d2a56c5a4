package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medetov/tutorhub/internal/repository"
)

func testEnrollmentHandler() *EnrollmentHandler {
	return NewEnrollmentHandler(repository.NewEnrollmentRepo(nil), repository.NewCourseRepo(nil))
}

func TestEnrollRequiresCourseID(t *testing.T) {
	h := testEnrollmentHandler()
	c, rec := jsonCtx(http.MethodPost, "/v1/enrollments", `{}`)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.Enroll(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProgressRejectsNonNumeric(t *testing.T) {
	h := testEnrollmentHandler()
	c, rec := jsonCtx(http.MethodPatch, "/v1/enrollments/3", `{"progress":"fast"}`)
	c.Set("user_id", uint64(1))
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.UpdateProgress(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProgressRequiresProgressField(t *testing.T) {
	h := testEnrollmentHandler()
	c, rec := jsonCtx(http.MethodPatch, "/v1/enrollments/3", `{}`)
	c.Set("user_id", uint64(1))
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.UpdateProgress(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnenrollRejectsBadID(t *testing.T) {
	h := testEnrollmentHandler()
	c, rec := jsonCtx(http.MethodDelete, "/v1/enrollments/zero", ``)
	c.Set("user_id", uint64(1))
	c.SetParamNames("id")
	c.SetParamValues("zero")

	require.NoError(t, h.Unenroll(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
