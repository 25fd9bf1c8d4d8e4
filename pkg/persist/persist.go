package persist

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type Persistable interface {
	Persist(tx Transaction) error
}

type Transaction interface {
	Insert(list ...interface{}) error
}

type InsertFunc func(...interface{}) error

func (f InsertFunc) Insert(list ...interface{}) error {
	return f(list...)
}

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func InsertIgnoringDupes(t Transaction) Transaction {
	return InsertFunc(func(list ...interface{}) error {
		err := t.Insert(list...)
		if IsDuplicate(err) {
			return nil // silently ignore
		}
		return err
	})
}

// IsDuplicate reports whether err is a unique constraint failure from either
// SQLite or Postgres.
func IsDuplicate(err error) bool {
	var sqliteError sqlite3.Error
	if errors.As(err, &sqliteError) {
		return sqliteError.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqError *pq.Error
	if errors.As(err, &pqError) {
		return pqError.Code == uniqueViolation
	}
	return false
}
