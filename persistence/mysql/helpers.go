package mysql

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
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

// isDuplicateKeyError checks for a MySQL duplicate-key violation (error 1062).
func isDuplicateKeyError(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}

// jsonScalar renders a criteria value the way JSON_UNQUOTE(JSON_EXTRACT(...))
// renders the stored field, so exact-match comparisons line up.
func jsonScalar(v any) (string, error) {
	if t, ok := v.(time.Time); ok {
		v = t.UTC()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted, nil
	}
	return s, nil
}
