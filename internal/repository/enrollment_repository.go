// Enrollment persistence. The uq_enrollment(student_id, course_id) key makes
// "enroll if not already enrolled" a single atomic insert-or-reject instead
// of a racy check-then-act sequence; concurrent duplicate requests lose with
// a duplicate-key error that surfaces as ErrAlreadyEnrolled.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Enrollment mirrors the 'enrollments' table.
type Enrollment struct {
	ID         uint64    `json:"id"`
	StudentID  uint64    `json:"student_id"`
	CourseID   uint64    `json:"course_id"`
	Progress   int       `json:"progress"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// StudentEnrollment pairs an enrollment with a summary of its course for the
// student's "my courses" listing.
type StudentEnrollment struct {
	Enrollment
	CourseTitle  string  `json:"course_title"`
	TutorName    string  `json:"tutor_name"`
	AssetKind    string  `json:"asset_kind"`
	AvgRating    float64 `json:"average_rating"`
	TotalReviews uint32  `json:"total_reviews"`
}

var (
	ErrAlreadyEnrolled    = errors.New("already enrolled")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

type EnrollmentRepo struct{ db *sql.DB }

func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

// ClampProgress bounds a progress value to [0,100]. Values outside the range
// are clamped rather than rejected; non-numeric input never reaches here
// because the handler refuses it.
func ClampProgress(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v)
	}
}

// Create inserts an enrollment at progress 0. The unique pair key rejects
// duplicates atomically.
func (r *EnrollmentRepo) Create(ctx context.Context, studentID, courseID uint64) (*Enrollment, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO enrollments (student_id, course_id) VALUES (?,?)",
		studentID, courseID)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	e := &Enrollment{ID: uint64(id), StudentID: studentID, CourseID: courseID}
	if err := r.db.QueryRowContext(ctx,
		"SELECT enrolled_at FROM enrollments WHERE id=?", e.ID).Scan(&e.EnrolledAt); err != nil {
		return nil, err
	}
	return e, nil
}

// ListByStudent returns the student's enrollments joined with course
// summaries, most recent first.
func (r *EnrollmentRepo) ListByStudent(ctx context.Context, studentID uint64) ([]StudentEnrollment, error) {
	const q = `SELECT e.id, e.student_id, e.course_id, e.progress, e.enrolled_at,
	                  c.title, u.name, c.asset_kind, c.avg_rating, c.total_reviews
	           FROM enrollments e
	           JOIN courses c ON c.id = e.course_id
	           JOIN users u   ON u.id = c.tutor_id
	           WHERE e.student_id = ?
	           ORDER BY e.enrolled_at DESC, e.id DESC`
	rows, err := r.db.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StudentEnrollment
	for rows.Next() {
		var se StudentEnrollment
		if err := rows.Scan(&se.ID, &se.StudentID, &se.CourseID, &se.Progress, &se.EnrolledAt,
			&se.CourseTitle, &se.TutorName, &se.AssetKind, &se.AvgRating, &se.TotalReviews); err != nil {
			return nil, err
		}
		out = append(out, se)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a single enrollment row.
func (r *EnrollmentRepo) GetByID(ctx context.Context, id uint64) (*Enrollment, error) {
	var e Enrollment
	err := r.db.QueryRowContext(ctx,
		"SELECT id, student_id, course_id, progress, enrolled_at FROM enrollments WHERE id=? LIMIT 1",
		id).Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Progress, &e.EnrolledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &e, nil
}

// UpdateProgress writes a clamped progress value onto the student's own
// enrollment and returns the updated record. ErrEnrollmentNotFound covers
// both a missing row and a row owned by another student, so the endpoint
// does not leak which enrollments exist.
func (r *EnrollmentRepo) UpdateProgress(ctx context.Context, id, studentID uint64, raw float64) (*Enrollment, error) {
	progress := ClampProgress(raw)
	if _, err := r.db.ExecContext(ctx,
		"UPDATE enrollments SET progress=? WHERE id=? AND student_id=?",
		progress, id, studentID); err != nil {
		return nil, err
	}
	var e Enrollment
	err := r.db.QueryRowContext(ctx,
		"SELECT id, student_id, course_id, progress, enrolled_at FROM enrollments WHERE id=? AND student_id=? LIMIT 1",
		id, studentID).Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Progress, &e.EnrolledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Delete removes the student's own enrollment. Deleting a row that is already
// gone reports ErrEnrollmentNotFound; the operation is otherwise idempotent.
func (r *EnrollmentRepo) Delete(ctx context.Context, id, studentID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM enrollments WHERE id=? AND student_id=?", id, studentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}
