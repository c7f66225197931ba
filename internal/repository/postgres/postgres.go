package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	"github.com/lib/pq"
)

// Postgres error codes handled by the repositories.
const (
	codeUniqueViolation           = "23505"
	codeInvalidTextRepresentation = "22P02"
)

//go:embed schema.sql
var schemaSQL string

// Connector hands out the shared database handle. *database.Manager implements it.
type Connector interface {
	Acquire(ctx context.Context) (*sql.DB, error)
}

// ApplySchema creates the tables and indexes if they do not exist yet.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func pqCode(err error) string {
	var perr *pq.Error
	if errors.As(err, &perr) {
		return string(perr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == codeUniqueViolation
}

// isInvalidID reports a malformed uuid literal; no row can match such an id.
func isInvalidID(err error) bool {
	return pqCode(err) == codeInvalidTextRepresentation
}
