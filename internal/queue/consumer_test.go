package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageRejectsGarbage(t *testing.T) {
	err := handleMessage([]byte("not json"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestEventWireFields(t *testing.T) {
	raw, err := json.Marshal(ReviewActivityEvent{
		Action:     ActionReviewPosted,
		CommentID:  7,
		CourseID:   3,
		StudentID:  11,
		Rating:     5,
		OccurredAt: "2026-08-29T10:00:00Z",
	})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, k := range []string{"action", "comment_id", "course_id", "student_id", "rating", "occurred_at"} {
		assert.Contains(t, m, k)
	}
	assert.Equal(t, "posted", m["action"])
}

func TestAppendAuditLine(t *testing.T) {
	t.Chdir(t.TempDir())

	ev := ReviewActivityEvent{
		Action:     ActionReviewDeleted,
		CommentID:  9,
		CourseID:   4,
		StudentID:  2,
		Rating:     1,
		OccurredAt: "2026-08-29T10:00:00Z",
	}
	require.NoError(t, appendAuditLine(ev))
	require.NoError(t, appendAuditLine(ev)) // append, not truncate

	data, err := os.ReadFile(filepath.Join("logs", "review.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Review deleted")
	assert.Contains(t, lines[0], "course_id=4")
}
