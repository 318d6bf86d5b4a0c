// Package sqlitelog stores an emola session's definition log in SQLite.
package sqlitelog

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS definitions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	source     TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// Log implements emola.Log on top of a SQLite database file.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Log{db: db}, nil
}

func (l *Log) Append(entry string) error {
	_, err := l.db.Exec(
		"INSERT INTO definitions (source, created_at) VALUES (?, ?)",
		entry, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	return nil
}

// Entries returns every logged definition in insertion order.
func (l *Log) Entries() ([]string, error) {
	rows, err := l.db.Query("SELECT source FROM definitions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var entries []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, src)
	}
	return entries, rows.Err()
}

func (l *Log) Truncate() error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM definitions"); err != nil {
		tx.Rollback()
		return fmt.Errorf("truncate: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM sqlite_sequence WHERE name = 'definitions'"); err != nil {
		tx.Rollback()
		return fmt.Errorf("truncate: %w", err)
	}
	return tx.Commit()
}

func (l *Log) Close() error {
	return l.db.Close()
}
