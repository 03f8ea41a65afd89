// Package inmemdb provides map-backed repositories for tests and local
// hacking. Semantics mirror the SQL implementations, including the
// (user, course) uniqueness of assignments.
package inmemdb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/assignment"
	"github.com/upskillhq/upskill/core/auth"
	"github.com/upskillhq/upskill/core/course"
	"github.com/upskillhq/upskill/core/team"
	"github.com/upskillhq/upskill/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users          map[string]*user.User
	tokens         map[string]*auth.Token // keyed by kind + ":" + value
	courses        map[string]*course.Course
	approvals      map[string]*course.Approval
	assignments    map[string]*assignment.Assignment
	progressEvents map[string][]assignment.ProgressEvent // keyed by assignment ID
	teams          map[string]*team.Team
}

var _ core.DB = (*DB)(nil)

func NewDB() *DB {
	return &DB{
		users:          make(map[string]*user.User),
		tokens:         make(map[string]*auth.Token),
		courses:        make(map[string]*course.Course),
		approvals:      make(map[string]*course.Approval),
		assignments:    make(map[string]*assignment.Assignment),
		progressEvents: make(map[string][]assignment.ProgressEvent),
		teams:          make(map[string]*team.Team),
	}
}

// core.DBExecutor; repositories here never touch SQL so these are inert.

func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row { return nil }
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return &noopTx{DB: db}, nil
}

// noopTx satisfies core.DBTransactor; every write applies immediately.
type noopTx struct {
	*DB
}

func (tx *noopTx) Commit() error   { return nil }
func (tx *noopTx) Rollback() error { return nil }
