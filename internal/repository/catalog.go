// Read-side catalog queries. Everything here is pure composition over the
// other tables: course summaries joined with tutor names, live enrollment
// counts (counted at read time, never stored), viewer enrollment tagging and
// the tutor dashboard totals.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// CourseFilter narrows the catalog listing. StudentID additionally tags each
// summary with that student's enrollment state; Enrollment restricts the
// listing relative to it ("enrolled" or "not-enrolled").
type CourseFilter struct {
	TutorID    uint64
	StudentID  uint64
	Enrollment string
}

// CourseSummary is one catalog listing row. The enrollment fields are only
// populated when the filter carried a student id.
type CourseSummary struct {
	ID           uint64    `json:"id"`
	TutorID      uint64    `json:"tutor_id"`
	TutorName    string    `json:"tutor_name"`
	Title        string    `json:"title"`
	AssetKind    string    `json:"asset_kind"`
	AvgRating    float64   `json:"average_rating"`
	TotalReviews uint32    `json:"total_reviews"`
	EnrollCount  uint64    `json:"enrollment_count"`
	CreatedAt    time.Time `json:"created_at"`
	IsEnrolled   *bool     `json:"is_enrolled,omitempty"`
	EnrollmentID *uint64   `json:"enrollment_id,omitempty"`
	Progress     *int      `json:"progress,omitempty"`
}

// DashboardStats aggregates a tutor's catalog footprint.
type DashboardStats struct {
	CourseCount      uint64 `json:"course_count"`
	TotalEnrollments uint64 `json:"total_enrollments"`
}

type CatalogRepo struct{ db *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// courseListQuery assembles the listing SQL for a filter. Kept as a pure
// function so the WHERE/JOIN assembly is testable without a database.
func courseListQuery(f CourseFilter) (string, []any) {
	var b strings.Builder
	args := []any{}

	b.WriteString(`SELECT c.id, c.tutor_id, u.name, c.title, c.asset_kind,
	c.avg_rating, c.total_reviews, c.created_at,
	(SELECT COUNT(*) FROM enrollments ec WHERE ec.course_id = c.id) AS enroll_count`)
	if f.StudentID != 0 {
		b.WriteString(", e.id, e.progress")
	}
	b.WriteString(" FROM courses c JOIN users u ON u.id = c.tutor_id")
	if f.StudentID != 0 {
		b.WriteString(" LEFT JOIN enrollments e ON e.course_id = c.id AND e.student_id = ?")
		args = append(args, f.StudentID)
	}

	where := []string{}
	if f.TutorID != 0 {
		where = append(where, "c.tutor_id = ?")
		args = append(args, f.TutorID)
	}
	if f.StudentID != 0 {
		switch strings.ToLower(f.Enrollment) {
		case "enrolled":
			where = append(where, "e.id IS NOT NULL")
		case "not-enrolled":
			where = append(where, "e.id IS NULL")
		}
	}
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY c.created_at DESC, c.id DESC")
	return b.String(), args
}

// ListCourses returns catalog summaries matching the filter.
func (r *CatalogRepo) ListCourses(ctx context.Context, f CourseFilter) ([]CourseSummary, error) {
	q, args := courseListQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CourseSummary
	for rows.Next() {
		var (
			s        CourseSummary
			enrollID sql.NullInt64
			progress sql.NullInt64
		)
		dest := []any{&s.ID, &s.TutorID, &s.TutorName, &s.Title, &s.AssetKind,
			&s.AvgRating, &s.TotalReviews, &s.CreatedAt, &s.EnrollCount}
		if f.StudentID != 0 {
			dest = append(dest, &enrollID, &progress)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if f.StudentID != 0 {
			enrolled := enrollID.Valid
			s.IsEnrolled = &enrolled
			if enrollID.Valid {
				id := uint64(enrollID.Int64)
				p := int(progress.Int64)
				s.EnrollmentID = &id
				s.Progress = &p
			}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CourseMeta returns the owning tutor's display name and the live enrollment
// count for one course. ErrCourseNotFound when the course is gone, which is
// also how orphaned dependents resolve safely after a partial cascade.
func (r *CatalogRepo) CourseMeta(ctx context.Context, courseID uint64) (tutorName string, enrollCount uint64, err error) {
	const q = `SELECT u.name,
	           (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id)
	           FROM courses c JOIN users u ON u.id = c.tutor_id WHERE c.id = ?`
	err = r.db.QueryRowContext(ctx, q, courseID).Scan(&tutorName, &enrollCount)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, ErrCourseNotFound
	}
	return tutorName, enrollCount, err
}

// TutorDashboard returns aggregate stats plus per-course summaries for a
// tutor's own catalog.
func (r *CatalogRepo) TutorDashboard(ctx context.Context, tutorID uint64) (DashboardStats, []CourseSummary, error) {
	var stats DashboardStats
	const q = `SELECT COUNT(c.id),
	           COALESCE(SUM((SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id)), 0)
	           FROM courses c WHERE c.tutor_id = ?`
	if err := r.db.QueryRowContext(ctx, q, tutorID).Scan(&stats.CourseCount, &stats.TotalEnrollments); err != nil {
		return DashboardStats{}, nil, err
	}
	courses, err := r.ListCourses(ctx, CourseFilter{TutorID: tutorID})
	if err != nil {
		return DashboardStats{}, nil, err
	}
	return stats, courses, nil
}
