// internal/storage/sql.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chat-relay/internal/model"
)

type dialect struct {
	// name is the goose dialect and the migrations subdirectory.
	name        string
	insertQuery string
	listQuery   string
}

// SQLStore talks to the messages table through database/sql.
type SQLStore struct {
	DB      *sql.DB
	dialect dialect
}

// InsertMessage inserts a message and lets the database assign id and created_at.
func (s *SQLStore) InsertMessage(ctx context.Context, m model.NewMessage) (model.Message, error) {
	row := s.DB.QueryRowContext(ctx, s.dialect.insertQuery, m.UserID, m.Content)

	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Message{}, ErrNoRecord
	}
	if err != nil {
		return model.Message{}, fmt.Errorf("insert failed: %w", err)
	}
	return msg, nil
}

// ListRecentMessages returns up to limit messages ordered by created_at, newest first.
// Equal timestamps fall back to id, newest-looking first.
func (s *SQLStore) ListRecentMessages(ctx context.Context, limit int) ([]model.Message, error) {
	rows, err := s.DB.QueryContext(ctx, s.dialect.listQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed: %w", err)
	}
	return messages, nil
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(sc scanner) (model.Message, error) {
	var (
		id        sql.NullString
		userID    sql.NullString
		content   sql.NullString
		createdAt nullTime
	)
	if err := sc.Scan(&id, &userID, &content, &createdAt); err != nil {
		return model.Message{}, err
	}
	if !id.Valid || id.String == "" || !createdAt.Valid {
		return model.Message{}, ErrNoRecord
	}
	return model.Message{
		ID:        id.String,
		UserID:    userID.String,
		Content:   content.String,
		CreatedAt: createdAt.Time,
	}, nil
}
