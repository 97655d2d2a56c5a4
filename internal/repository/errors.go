// Package repository contains the data access layer. This file holds error
// values and helpers shared across repositories so handlers can map failures
// onto HTTP statuses without inspecting driver errors themselves.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error (1062).
// Unique keys on (student_id, course_id) pairs and on user emails turn
// concurrent duplicate inserts into this error, which repositories map onto
// their conflict sentinels.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
