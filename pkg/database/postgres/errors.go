package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// CheckNoRows translates a missing row into outErr
func CheckNoRows(inErr, outErr error) error {
	return translate(inErr, outErr, IsNoRows)
}

// CheckUniqueViolation translates a unique constraint violation into outErr
func CheckUniqueViolation(inErr, outErr error) error {
	return translate(inErr, outErr, IsUniqueViolation)
}

func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func IsUniqueViolation(err error) bool {
	return hasCode(err, pgerrcode.UniqueViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func translate(inErr, outErr error, matches func(error) bool) error {
	if matches(inErr) {
		return outErr
	}
	return inErr
}
