package database

import (
	"database/sql"
	"fmt"

	"github.com/go-gorp/gorp/v3"
	_ "github.com/mattn/go-sqlite3"
)

// NewSqlite opens a local store, creating the tables on first run.
func NewSqlite(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	// a single connection keeps in-memory databases consistent
	db.SetMaxOpenConns(1)
	return newStore(db, gorp.SqliteDialect{})
}
