// Review persistence and the course rating aggregate. A course row carries
// avg_rating/total_reviews as a materialized cache; every review insert or
// delete recomputes both inside the same transaction, and the standalone
// recompute routines can rebuild the cache from the comments table at any
// time. uq_review(student_id, course_id) turns duplicate reviews into an
// atomic insert-or-reject, same as enrollments.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Comment mirrors the 'comments' table. StudentName is filled only by
// listing queries that join users.
type Comment struct {
	ID          uint64    `json:"id"`
	CourseID    uint64    `json:"course_id"`
	StudentID   uint64    `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	Body        string    `json:"text"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrAlreadyReviewed = errors.New("course already reviewed by this student")
	ErrCommentNotFound = errors.New("comment not found")
)

type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// recomputeSQL rewrites the aggregate columns purely from the comments table,
// so running it repeatedly (or after a lost update) converges on the same
// values. avg_rating falls back to 0 when the last review is gone.
const recomputeSQL = `UPDATE courses SET
	avg_rating    = COALESCE((SELECT ROUND(AVG(rating),1) FROM comments WHERE course_id=?), 0),
	total_reviews = (SELECT COUNT(*) FROM comments WHERE course_id=?)
	WHERE id=?`

// Create inserts a review and recomputes the course aggregate in one
// transaction. The unique pair key rejects a second review atomically.
func (r *ReviewRepo) Create(ctx context.Context, cm *Comment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO comments (course_id, student_id, body, rating) VALUES (?,?,?,?)",
		cm.CourseID, cm.StudentID, cm.Body, cm.Rating)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyReviewed
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cm.ID = uint64(id)

	if _, err = tx.ExecContext(ctx, recomputeSQL, cm.CourseID, cm.CourseID, cm.CourseID); err != nil {
		return err
	}
	if err = tx.QueryRowContext(ctx,
		"SELECT created_at FROM comments WHERE id=?", cm.ID).Scan(&cm.CreatedAt); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes the student's own review and recomputes the aggregate in
// one transaction. It returns the course id for event publication,
// ErrCommentNotFound when no row exists and ErrForbidden when the review
// belongs to another student.
func (r *ReviewRepo) Delete(ctx context.Context, id, studentID uint64) (courseID uint64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var owner uint64
	err = tx.QueryRowContext(ctx,
		"SELECT course_id, student_id FROM comments WHERE id=?", id).Scan(&courseID, &owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCommentNotFound
		}
		return 0, err
	}
	if owner != studentID {
		return 0, ErrForbidden
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM comments WHERE id=?", id); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, recomputeSQL, courseID, courseID, courseID); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return courseID, nil
}

// ListByCourse returns a course's reviews with author names, newest first.
func (r *ReviewRepo) ListByCourse(ctx context.Context, courseID uint64) ([]Comment, error) {
	const q = `SELECT cm.id, cm.course_id, cm.student_id, u.name, cm.body, cm.rating, cm.created_at
	           FROM comments cm
	           JOIN users u ON u.id = cm.student_id
	           WHERE cm.course_id = ?
	           ORDER BY cm.created_at DESC, cm.id DESC`
	rows, err := r.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.CourseID, &cm.StudentID, &cm.StudentName,
			&cm.Body, &cm.Rating, &cm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecomputeAggregate rebuilds one course's rating cache from its comments.
// It is idempotent and safe to run at any time, which is what the queue
// consumer relies on to repair aggregates after a lost synchronous update.
func (r *ReviewRepo) RecomputeAggregate(ctx context.Context, courseID uint64) error {
	_, err := r.db.ExecContext(ctx, recomputeSQL, courseID, courseID, courseID)
	return err
}

// RecomputeAll rebuilds the rating cache for every course. Used as a repair
// pass after data migration or corruption.
func (r *ReviewRepo) RecomputeAll(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM courses")
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.RecomputeAggregate(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
