// Course persistence. A course owns exactly one video asset descriptor and an
// ordered list of chapters; both live and die with the course row. Enrollments
// and comments reference courses by id only, so deleting a course removes its
// dependents explicitly inside one transaction (dependents before parent).
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Asset kinds. A course video either lives in local storage under a generated
// key, or on an external video platform addressed by URL. Exactly one.
const (
	AssetLocal   = "LOCAL"
	AssetYoutube = "YOUTUBE"
)

// Asset identifies where a course's video comes from.
type Asset struct {
	Kind        string `json:"kind"`
	StorageKey  string `json:"storage_key,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
}

// ErrInvalidAsset is returned when an asset descriptor is malformed: unknown
// kind, a local asset without a storage key, or a youtube asset without a URL.
var ErrInvalidAsset = errors.New("invalid asset descriptor")

// Validate enforces the tagged-union shape of the descriptor.
func (a Asset) Validate() error {
	switch a.Kind {
	case AssetLocal:
		if strings.TrimSpace(a.StorageKey) == "" || a.ExternalURL != "" {
			return ErrInvalidAsset
		}
	case AssetYoutube:
		if strings.TrimSpace(a.ExternalURL) == "" || a.StorageKey != "" {
			return ErrInvalidAsset
		}
	default:
		return ErrInvalidAsset
	}
	return nil
}

// Chapter is one entry of a course's ordered chapter list.
type Chapter struct {
	ID          uint64 `json:"id"`
	Position    uint32 `json:"position"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Course mirrors the 'courses' table plus its embedded chapter list.
// AvgRating and TotalReviews are a materialized cache maintained by the
// review repository; the comments table stays the source of truth.
type Course struct {
	ID           uint64    `json:"id"`
	TutorID      uint64    `json:"tutor_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Asset        Asset     `json:"asset"`
	Chapters     []Chapter `json:"chapters"`
	AvgRating    float64   `json:"average_rating"`
	TotalReviews uint32    `json:"total_reviews"`
	CreatedAt    time.Time `json:"created_at"`
}

var ErrCourseNotFound = errors.New("course not found")

type CourseRepo struct{ db *sql.DB }

func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{db: db} }

// Create inserts a course and its chapters in one transaction. On success the
// ID and CreatedAt fields are populated and chapter IDs/positions are filled.
func (r *CourseRepo) Create(ctx context.Context, c *Course) error {
	if err := c.Asset.Validate(); err != nil {
		return err
	}
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
		`INSERT INTO courses (tutor_id, title, description, asset_kind, storage_key, external_url)
		 VALUES (?,?,?,?,?,?)`,
		c.TutorID, c.Title, c.Description, c.Asset.Kind,
		nullable(c.Asset.StorageKey), nullable(c.Asset.ExternalURL))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	for i := range c.Chapters {
		c.Chapters[i].Position = uint32(i + 1)
		res, err := tx.ExecContext(ctx,
			"INSERT INTO chapters (course_id, position, title, description) VALUES (?,?,?,?)",
			c.ID, c.Chapters[i].Position, c.Chapters[i].Title, c.Chapters[i].Description)
		if err != nil {
			return err
		}
		chID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.Chapters[i].ID = uint64(chID)
	}

	if err = tx.QueryRowContext(ctx,
		"SELECT created_at FROM courses WHERE id=?", c.ID).Scan(&c.CreatedAt); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a course with its ordered chapters. It returns
// ErrCourseNotFound when no row exists.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (*Course, error) {
	var (
		c           Course
		storageKey  sql.NullString
		externalURL sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tutor_id, title, description, asset_kind, storage_key, external_url,
		        avg_rating, total_reviews, created_at
		 FROM courses WHERE id=?`, id).
		Scan(&c.ID, &c.TutorID, &c.Title, &c.Description, &c.Asset.Kind,
			&storageKey, &externalURL, &c.AvgRating, &c.TotalReviews, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	c.Asset.StorageKey = storageKey.String
	c.Asset.ExternalURL = externalURL.String

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, position, title, description FROM chapters WHERE course_id=? ORDER BY position",
		id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ch Chapter
		if err := rows.Scan(&ch.ID, &ch.Position, &ch.Title, &ch.Description); err != nil {
			return nil, err
		}
		c.Chapters = append(c.Chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCascade removes a course and all records referencing it, provided it
// belongs to tutorID. Dependents are deleted before the parent so a crash
// mid-way leaves orphaned dependents (which resolve safely on later reads)
// rather than a course pointing at missing data. The local asset's storage
// key, when present, is returned so the caller can remove the file bytes
// after the transaction commits; file cleanup is best-effort and never blocks
// the record-level delete.
//
// Returns ErrCourseNotFound when no such course exists and ErrForbidden when
// it is owned by a different tutor.
func (r *CourseRepo) DeleteCascade(ctx context.Context, id, tutorID uint64) (storageKey string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		dbTutorID uint64
		key       sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		"SELECT tutor_id, storage_key FROM courses WHERE id=?", id).Scan(&dbTutorID, &key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCourseNotFound
		}
		return "", err
	}
	if dbTutorID != tutorID {
		return "", ErrForbidden
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM enrollments WHERE course_id=?", id); err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM comments WHERE course_id=?", id); err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM chapters WHERE course_id=?", id); err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM courses WHERE id=?", id); err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	committed = true
	return key.String, nil
}

// nullable maps "" to SQL NULL so the unused half of the asset union stays
// NULL in the row.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
