// Package postgres contains the PostgreSQL implementations of the
// repository interfaces. They back the degraded search path and the
// saved-search feature.
package postgres

import "strings"

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
