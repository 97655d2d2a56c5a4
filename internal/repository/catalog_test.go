package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourseListQueryUnfiltered(t *testing.T) {
	q, args := courseListQuery(CourseFilter{})
	assert.Empty(t, args)
	assert.NotContains(t, q, "LEFT JOIN")
	// no top-level filter; the only WHERE is inside the count subquery
	assert.NotContains(t, q, "WHERE c.tutor_id")
	assert.NotContains(t, q, "e.id IS")
	assert.Contains(t, q, "ORDER BY c.created_at DESC")
	// live enrollment count is always computed at read time
	assert.Contains(t, q, "SELECT COUNT(*) FROM enrollments ec")
}

func TestCourseListQueryByTutor(t *testing.T) {
	q, args := courseListQuery(CourseFilter{TutorID: 7})
	assert.Equal(t, []any{uint64(7)}, args)
	assert.Contains(t, q, "c.tutor_id = ?")
	assert.NotContains(t, q, "LEFT JOIN")
}

func TestCourseListQueryWithStudent(t *testing.T) {
	q, args := courseListQuery(CourseFilter{StudentID: 3})
	// the join arg comes before any WHERE args
	assert.Equal(t, []any{uint64(3)}, args)
	assert.Contains(t, q, "LEFT JOIN enrollments e")
	assert.Contains(t, q, "e.id, e.progress")
	assert.NotContains(t, q, "e.id IS")
}

func TestCourseListQueryEnrollmentFilters(t *testing.T) {
	q, args := courseListQuery(CourseFilter{StudentID: 3, Enrollment: "enrolled"})
	assert.Equal(t, []any{uint64(3)}, args)
	assert.Contains(t, q, "e.id IS NOT NULL")

	q, _ = courseListQuery(CourseFilter{StudentID: 3, Enrollment: "not-enrolled"})
	assert.Contains(t, q, "e.id IS NULL")

	// enrollment filter without a student id is ignored
	q, args = courseListQuery(CourseFilter{Enrollment: "enrolled"})
	assert.Empty(t, args)
	assert.False(t, strings.Contains(q, "e.id"))
}

func TestCourseListQueryCombined(t *testing.T) {
	q, args := courseListQuery(CourseFilter{TutorID: 7, StudentID: 3, Enrollment: "enrolled"})
	assert.Equal(t, []any{uint64(3), uint64(7)}, args)
	assert.Contains(t, q, "WHERE c.tutor_id = ? AND e.id IS NOT NULL")
}
