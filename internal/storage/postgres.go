// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	name: "postgres",
	insertQuery: `
		INSERT INTO messages (user_id, content)
		VALUES ($1, $2)
		RETURNING id::text, user_id, content, created_at
	`,
	listQuery: `
		SELECT id::text, user_id, content, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`,
}

const startupPingTimeout = 5 * time.Second

// NewPostgresStore wraps an open lib/pq handle.
func NewPostgresStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, dialect: postgresDialect}
}

// openPostgres injects the credential as the connection password. The user defaults to
// "postgres" when the endpoint carries none.
func openPostgres(ctx context.Context, endpoint *url.URL, credential string, log *slog.Logger) (*SQLStore, error) {
	dsn := *endpoint
	user := "postgres"
	if endpoint.User != nil && endpoint.User.Username() != "" {
		user = endpoint.User.Username()
	}
	dsn.User = url.UserPassword(user, credential)

	db, err := sql.Open("postgres", dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// An unreachable database at boot is not fatal; the pool reconnects on demand.
	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Warn("PostgreSQL not reachable at startup", "host", endpoint.Host, "error", err)
	} else {
		log.Info("PostgreSQL connected", "host", endpoint.Host)
	}

	return NewPostgresStore(db), nil
}
