package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ctfops-io/scoring-api/pkg/db"
	"github.com/mattn/go-sqlite3"
)

// SQLiteDB is a db.DB making use of sqlite3 database.
type SQLiteDB struct {
	db  *sql.DB
	obv *db.Observer
}

// NewSQLiteDB opens a new SQLite database. This method should only
// be called once. It returns an DB instance with which the database
// can be queried, or an error, if opening the database has failed.
//
// Transactions are opened in immediate mode, so every submission
// transaction takes the write lock up front and concurrent mutations of
// the same rate limit row serialize instead of deadlocking. Readers that
// go through the plain query path are not affected by that lock.
func NewSQLiteDB(path string) (db.DB, error) {
	dbFilePath := filepath.Join(path, "sql.db")
	needsToBeInitialized, err := prepareFile(dbFilePath)
	if err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", dbFilePath)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if needsToBeInitialized {
		err = createTables(sqlDB)
		if err != nil {
			return nil, err
		}
	}
	return &SQLiteDB{
		db:  sqlDB,
		obv: &db.Observer{},
	}, nil
}

// prepareFile prepares the database file for sqlite such
// that it can be properly used and accessed. This method
// returns a boolean indicating whether the database file
// was newly created and hence, needs to be initialized or
// not. "True" will be returned, if it needs to be
// initialized. An error will be instead returned, if the
// path cannot be prepared for SQLite for some reason.
func prepareFile(dbFilePath string) (bool, error) {
	err := os.MkdirAll(filepath.Dir(dbFilePath), 0755)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(dbFilePath)
	needsToBeInitialized := errors.Is(err, os.ErrNotExist)
	if needsToBeInitialized {
		_, err := os.Create(dbFilePath)
		return true, err
	} else {
		return false, nil
	}
}

// isDuplicate reports whether the given driver error was caused by a
// violated uniqueness or primary key constraint.
func isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// parseTimestamp parses a timestamp that comes back as plain text, which
// happens for aggregate expressions where the driver cannot consult the
// declared column type.
func parseTimestamp(value string) (time.Time, error) {
	for _, format := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("couldn't parse '%s' as a timestamp", value)
}

func (l *SQLiteDB) Observer() *db.Observer {
	return l.obv
}

func (l *SQLiteDB) Close() error {
	l.obv.Close()
	return l.db.Close()
}
