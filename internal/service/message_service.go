package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"chat-relay/internal/metrics"
	"chat-relay/internal/model"
	"chat-relay/internal/storage"
)

// RecentWindow is the fixed number of messages ListRecent returns at most.
const RecentWindow = 50

// ErrStoreUnavailable is returned when no store was built at startup.
var ErrStoreUnavailable = errors.New("message store unavailable")

type MessageService struct {
	store storage.MessageStore
	log   *slog.Logger
}

// NewMessageService accepts a nil store; every call then fails with ErrStoreUnavailable.
func NewMessageService(store storage.MessageStore, log *slog.Logger) *MessageService {
	return &MessageService{store: store, log: log}
}

// Available reports whether a store is wired in.
func (s *MessageService) Available() bool {
	return s.store != nil
}

// Append stores a message. A store that accepts the write but returns no complete row
// is reported as a failure; the write is neither re-read nor retried.
func (s *MessageService) Append(ctx context.Context, m model.NewMessage) (model.Message, error) {
	if s.store == nil {
		return model.Message{}, ErrStoreUnavailable
	}

	msg, err := s.store.InsertMessage(ctx, m)
	if err != nil {
		metrics.StoreErrors.WithLabelValues(metrics.StoreOpInsert).Inc()
		if errors.Is(err, storage.ErrNoRecord) {
			s.log.Warn("store accepted insert without returning a record", "user_id", m.UserID)
		}
		return model.Message{}, fmt.Errorf("append message: %w", err)
	}
	if msg.ID == "" || msg.CreatedAt.IsZero() {
		metrics.StoreErrors.WithLabelValues(metrics.StoreOpInsert).Inc()
		return model.Message{}, fmt.Errorf("append message: %w", storage.ErrNoRecord)
	}

	metrics.MessagesAppended.Inc()
	s.log.Debug("message appended", "id", msg.ID, "user_id", msg.UserID)
	return msg, nil
}

// ListRecent returns up to RecentWindow messages, oldest first.
func (s *MessageService) ListRecent(ctx context.Context) ([]model.Message, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}

	messages, err := s.store.ListRecentMessages(ctx, RecentWindow)
	if err != nil {
		metrics.StoreErrors.WithLabelValues(metrics.StoreOpList).Inc()
		return nil, fmt.Errorf("list recent messages: %w", err)
	}

	if len(messages) > RecentWindow {
		messages = messages[:RecentWindow]
	}
	slices.Reverse(messages)
	return messages, nil
}
