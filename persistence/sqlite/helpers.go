package sqlite

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// identPattern constrains collection and field names interpolated into SQL
// and JSON paths.
var identPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func validateIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// timeToString converts time.Time to an RFC3339 string with nanosecond
// precision, so strictly-increasing UpdatedAt values survive storage.
func timeToString(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// bindValue converts a criteria value into its driver representation.
// Times are stored inside the JSON document as RFC3339 strings, so they
// compare as such.
func bindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return timeToString(t)
	}
	return v
}
