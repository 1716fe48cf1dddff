package storage

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// created_at only has millisecond precision and ids are random, so rowid breaks ties in
// insertion order.
var sqliteDialect = dialect{
	name: "sqlite3",
	insertQuery: `
		INSERT INTO messages (user_id, content)
		VALUES (?, ?)
		RETURNING id, user_id, content, created_at
	`,
	listQuery: `
		SELECT id, user_id, content, created_at
		FROM messages
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`,
}

// NewSQLiteStore wraps an open go-sqlite3 handle.
func NewSQLiteStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, dialect: sqliteDialect}
}

// openSQLite accepts sqlite:///abs/path.db and sqlite://relative.db.
func openSQLite(endpoint *url.URL) (*SQLStore, error) {
	path := endpoint.Host + endpoint.Path
	if path == "" {
		path = endpoint.Opaque
	}
	if path == "" {
		return nil, fmt.Errorf("sqlite endpoint has no path")
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	return NewSQLiteStore(db), nil
}
