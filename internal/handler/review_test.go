package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medetov/tutorhub/internal/config"
	"github.com/medetov/tutorhub/internal/repository"
)

func intp(v int) *int { return &v }

func TestValidReviewInput(t *testing.T) {
	base := postReviewReq{CourseID: 1, Text: "good course", Rating: intp(4)}
	_, ok := validReviewInput(base)
	assert.True(t, ok)

	for _, tc := range []struct {
		name string
		mod  func(r *postReviewReq)
	}{
		{"missing course", func(r *postReviewReq) { r.CourseID = 0 }},
		{"blank text", func(r *postReviewReq) { r.Text = "  " }},
		{"missing rating", func(r *postReviewReq) { r.Rating = nil }},
		{"rating too low", func(r *postReviewReq) { r.Rating = intp(-1) }},
		{"rating too high", func(r *postReviewReq) { r.Rating = intp(6) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mod(&req)
			msg, ok := validReviewInput(req)
			assert.False(t, ok)
			assert.NotEmpty(t, msg)
		})
	}

	// boundary ratings are accepted
	for _, r := range []int{0, 5} {
		req := base
		req.Rating = intp(r)
		_, ok := validReviewInput(req)
		assert.True(t, ok)
	}
}

func TestPostReviewRejectsInvalidBody(t *testing.T) {
	h := NewReviewHandler(config.Config{}, repository.NewReviewRepo(nil), repository.NewCourseRepo(nil), zap.NewNop())

	c, rec := jsonCtx(http.MethodPost, "/v1/comments", `{"course_id":1,"text":"hi","rating":9}`)
	c.Set("user_id", uint64(1))
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = jsonCtx(http.MethodPost, "/v1/comments", `{"course_id":1,"rating":3}`)
	c.Set("user_id", uint64(1))
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
