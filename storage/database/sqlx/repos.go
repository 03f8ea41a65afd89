// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
//
// Every method takes an optional trailing core.DBExecutor: when a service
// passes its transaction, the statement joins it; otherwise the pooled
// connection is used.
package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
)

func getExec(db *sqlx.DB, exec []core.DBExecutor) sqlx.ExtContext {
	if len(exec) > 0 && exec[0] != nil {
		if ext, ok := exec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return db
}

// trapNoRowsErr converts sql.ErrNoRows to the package's not-found error.
func trapNoRowsErr(err, notFoundErr error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFoundErr
	}
	return errors.Wrap(err, msg)
}

// stringArray adapts a []string for use as a text[] bind parameter.
func stringArray(vals []string) interface{} {
	return pq.Array(vals)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
