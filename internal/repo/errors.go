package repo

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when the referenced row does not exist.
// Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// uniqueViolation is the Postgres error code for unique-constraint violations.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
