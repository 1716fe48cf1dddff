//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
// internal/storage/store.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"chat-relay/internal/model"
)

var (
	// ErrNotConfigured is returned by Open when the endpoint or credential is empty.
	ErrNotConfigured = errors.New("database endpoint or credential not set")
	// ErrNoRecord means the store accepted a write but did not hand back a complete row.
	ErrNoRecord = errors.New("store returned no record")
	// ErrUnexpectedShape means the store replied with data we cannot interpret.
	ErrUnexpectedShape = errors.New("store returned unexpected shape")
	// ErrUnsupportedScheme is returned for endpoints no backend understands.
	ErrUnsupportedScheme = errors.New("unsupported database endpoint scheme")
)

// MessageStore is the persistence client for the messages table.
type MessageStore interface {
	// InsertMessage writes m and returns the row with its store-assigned id and created_at.
	InsertMessage(ctx context.Context, m model.NewMessage) (model.Message, error)
	// ListRecentMessages returns at most limit rows, newest first.
	ListRecentMessages(ctx context.Context, limit int) ([]model.Message, error)
	Close() error
}

// Open builds the store matching the endpoint scheme. It never returns a nil error with
// a nil store.
func Open(ctx context.Context, endpoint, credential string, log *slog.Logger) (MessageStore, error) {
	if endpoint == "" || credential == "" {
		return nil, ErrNotConfigured
	}

	// The parse error echoes the endpoint, which may embed a password.
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.New("failed to parse database endpoint")
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		s, err := openPostgres(ctx, u, credential, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "http", "https":
		s, err := NewPostgRESTStore(u, credential, nil)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite", "sqlite3":
		s, err := openSQLite(u)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
