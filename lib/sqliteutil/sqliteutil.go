package sqliteutil

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// OpenDB opens an sqlite database at the given path (or a remote libsql
// database when given a libsql:// url) and applies the schema. Applying
// the schema is idempotent, tables that already exist are left alone.
func OpenDB(schema, pathOrUrl string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	if strings.HasPrefix(pathOrUrl, "libsql://") {
		db, err = sql.Open("libsql", pathOrUrl)
	} else {
		db, err = sql.Open("sqlite", pathOrUrl)
	}
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", pathOrUrl, err)
	}

	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}
