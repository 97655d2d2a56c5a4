package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recomputePattern = regexp.QuoteMeta("ROUND(AVG(rating),1)")

func TestReviewCreateRecomputesAggregateInTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO comments").
		WillReturnResult(sqlmock.NewResult(7, 1))
	// aggregate rewrite runs inside the same transaction
	mock.ExpectExec(recomputePattern).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT created_at FROM comments").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	cm := &Comment{CourseID: 3, StudentID: 11, Body: "solid course", Rating: 5}
	require.NoError(t, NewReviewRepo(db).Create(context.Background(), cm))
	assert.Equal(t, uint64(7), cm.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCreateDuplicateIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO comments").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '11-3' for key 'uq_review'"))
	mock.ExpectRollback()

	err = NewReviewRepo(db).Create(context.Background(), &Comment{CourseID: 3, StudentID: 11, Body: "again", Rating: 4})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewDeleteByNonAuthorIsForbidden(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT course_id, student_id FROM comments").
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "student_id"}).AddRow(3, 99))
	mock.ExpectRollback()

	_, err = NewReviewRepo(db).Delete(context.Background(), 7, 11)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewDeleteRecomputesAggregate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT course_id, student_id FROM comments").
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "student_id"}).AddRow(3, 11))
	mock.ExpectExec("DELETE FROM comments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(recomputePattern).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	courseID, err := NewReviewRepo(db).Delete(context.Background(), 7, 11)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), courseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The rebuild statement derives both columns purely from the comments table,
// so running it again converges on the same values.
func TestRecomputeAggregateIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(recomputePattern).WithArgs(3, 3, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(recomputePattern).WithArgs(3, 3, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := NewReviewRepo(db)
	require.NoError(t, r.RecomputeAggregate(context.Background(), 3))
	require.NoError(t, r.RecomputeAggregate(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())

	// empty comment sets fall back to a zero aggregate
	assert.Contains(t, recomputeSQL, "COALESCE")
}
