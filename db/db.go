package db

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/deemkeen/mammut/util"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB is the database struct.
type DB struct {
	db *sql.DB
}

var (
	dbInstance *DB
	dbOnce     sync.Once
)

func GetDB() *DB {
	dbOnce.Do(func() {
		db, err := sql.Open("sqlite", util.ResolveFilePath("database.db"))
		if err != nil {
			panic(err)
		}

		// Configure connection pool for concurrent access
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)

		var journalMode string
		if err := db.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode); err != nil {
			log.Printf("Warning: Failed to enable WAL mode: %v", err)
		} else {
			log.Printf("Database journal mode: %s", journalMode)
		}

		db.Exec("PRAGMA synchronous = NORMAL")
		db.Exec("PRAGMA busy_timeout = 5000")
		db.Exec("PRAGMA foreign_keys = ON")

		dbInstance = &DB{db: db}

		if err := dbInstance.RunMigrations(); err != nil {
			panic(err)
		}
	})

	return dbInstance
}

// NewTestDB opens an in-memory database with the full schema applied.
func NewTestDB() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// A second pooled connection would open its own empty :memory:
	// database, so pin the pool to one connection.
	sqlDB.SetMaxOpenConns(1)
	db := &DB{db: sqlDB}
	if err := db.RunMigrations(); err != nil {
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.db.Close()
}

// wrapTransaction runs the given function within a transaction, retrying
// while sqlite reports a busy database.
func (db *DB) wrapTransaction(f func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("error starting transaction: %s", err)
		return err
	}
	for {
		err = f(tx)
		if err != nil {
			serr, ok := err.(*sqlite.Error)
			if ok && serr.Code() == sqlitelib.SQLITE_BUSY {
				continue
			}
			tx.Rollback()
			return err
		}
		err = tx.Commit()
		if err != nil {
			log.Printf("error committing transaction: %s", err)
			return err
		}
		break
	}
	return nil
}

// isUniqueViolation reports whether an error is a sqlite uniqueness failure.
func isUniqueViolation(err error) bool {
	serr, ok := err.(*sqlite.Error)
	if !ok {
		return false
	}
	code := serr.Code()
	return code == sqlitelib.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY ||
		code == sqlitelib.SQLITE_CONSTRAINT
}

func parseUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}
