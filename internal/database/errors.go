package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/driver/pgdriver"
)

// MySQL server error numbers that signal a rejected row.
const (
	mysqlErrBadNull       = 1048
	mysqlErrDupEntry      = 1062
	mysqlErrDataTooLong   = 1406
	mysqlErrCheckViolated = 3819
)

// IsConstraintViolation reports whether err is the store rejecting a row
// (NOT NULL, CHECK, UNIQUE or length limits) rather than an outage.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint || liteErr.Code == sqlite3.ErrTooBig
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		// Class 23 is integrity_constraint_violation, 22001 string_data_right_truncation.
		code := pgErr.Field('C')
		return strings.HasPrefix(code, "23") || code == "22001"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrBadNull, mysqlErrDupEntry, mysqlErrDataTooLong, mysqlErrCheckViolated:
			return true
		}
	}

	return false
}
