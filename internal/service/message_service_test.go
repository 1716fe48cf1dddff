package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/internal/metrics"
	"chat-relay/internal/mocks"
	"chat-relay/internal/model"
	"chat-relay/internal/storage"
)

var base = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// newestFirst builds n messages the way a store returns them.
func newestFirst(n int) []model.Message {
	out := make([]model.Message, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, model.Message{
			ID:        fmt.Sprintf("id-%03d", i),
			UserID:    "u",
			Content:   fmt.Sprintf("m%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	return out
}

func TestMessageService_Append(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx := context.Background()

	t.Run("passes fields through and returns stored row", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockMessageStore(ctrl)
		want := model.Message{ID: "abc", UserID: "u1", Content: "hello", CreatedAt: base}
		store.EXPECT().
			InsertMessage(gomock.Any(), model.NewMessage{UserID: "u1", Content: "hello"}).
			Return(want, nil).
			Times(1)

		got, err := NewMessageService(store, log).Append(ctx, model.NewMessage{UserID: "u1", Content: "hello"})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("store error is wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockMessageStore(ctrl)
		boom := errors.New("connection refused")
		store.EXPECT().InsertMessage(gomock.Any(), gomock.Any()).Return(model.Message{}, boom).Times(1)

		_, err := NewMessageService(store, log).Append(ctx, model.NewMessage{UserID: "u1", Content: "x"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no record from store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockMessageStore(ctrl)
		store.EXPECT().InsertMessage(gomock.Any(), gomock.Any()).Return(model.Message{}, storage.ErrNoRecord).Times(1)

		_, err := NewMessageService(store, log).Append(ctx, model.NewMessage{UserID: "u1", Content: "x"})
		assert.ErrorIs(t, err, storage.ErrNoRecord)
	})

	t.Run("row without server fields is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockMessageStore(ctrl)
		store.EXPECT().InsertMessage(gomock.Any(), gomock.Any()).
			Return(model.Message{UserID: "u1", Content: "x"}, nil).Times(1)

		_, err := NewMessageService(store, log).Append(ctx, model.NewMessage{UserID: "u1", Content: "x"})
		assert.ErrorIs(t, err, storage.ErrNoRecord)
	})

	t.Run("no store", func(t *testing.T) {
		svc := NewMessageService(nil, log)
		assert.False(t, svc.Available())

		_, err := svc.Append(ctx, model.NewMessage{UserID: "u1", Content: "x"})
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestMessageService_ListRecent(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx := context.Background()

	t.Run("reverses into ascending order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockMessageStore(ctrl)
		store.EXPECT().ListRecentMessages(gomock.Any(), RecentWindow).Return(newestFirst(3), nil).Times(1)

		got, err := NewMessageService(store, log).ListRecent(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"id-000", "id-001", "id-002"}, []string{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("never more than the window", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockMessageStore(ctrl)
		store.EXPECT().ListRecentMessages(gomock.Any(), RecentWindow).Return(newestFirst(60), nil).Times(1)

		got, err := NewMessageService(store, log).ListRecent(ctx)
		require.NoError(t, err)
		require.Len(t, got, RecentWindow)

		for i := 1; i < len(got); i++ {
			assert.False(t, got[i].CreatedAt.Before(got[i-1].CreatedAt))
		}
		// The newest message is last and the oldest ten are dropped.
		assert.Equal(t, "id-059", got[len(got)-1].ID)
		assert.Equal(t, "id-010", got[0].ID)
	})

	t.Run("empty", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockMessageStore(ctrl)
		store.EXPECT().ListRecentMessages(gomock.Any(), RecentWindow).Return(nil, nil).Times(1)

		got, err := NewMessageService(store, log).ListRecent(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("store error returns nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockMessageStore(ctrl)
		store.EXPECT().ListRecentMessages(gomock.Any(), RecentWindow).Return(newestFirst(2), errors.New("timeout")).Times(1)

		got, err := NewMessageService(store, log).ListRecent(ctx)
		require.Error(t, err)
		assert.Nil(t, got)
	})

	t.Run("no store", func(t *testing.T) {
		_, err := NewMessageService(nil, log).ListRecent(ctx)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestMessageService_StoreErrorsCountedByOp(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	svc := NewMessageService(store, log)

	inserts := testutil.ToFloat64(metrics.StoreErrors.WithLabelValues(metrics.StoreOpInsert))
	lists := testutil.ToFloat64(metrics.StoreErrors.WithLabelValues(metrics.StoreOpList))

	store.EXPECT().InsertMessage(gomock.Any(), gomock.Any()).Return(model.Message{}, storage.ErrNoRecord).Times(1)
	store.EXPECT().InsertMessage(gomock.Any(), gomock.Any()).Return(model.Message{UserID: "u"}, nil).Times(1)
	store.EXPECT().ListRecentMessages(gomock.Any(), RecentWindow).Return(nil, errors.New("timeout")).Times(1)

	_, err := svc.Append(ctx, model.NewMessage{UserID: "u", Content: "a"})
	require.Error(t, err)
	_, err = svc.Append(ctx, model.NewMessage{UserID: "u", Content: "b"})
	require.Error(t, err)
	_, err = svc.ListRecent(ctx)
	require.Error(t, err)

	assert.Equal(t, inserts+2, testutil.ToFloat64(metrics.StoreErrors.WithLabelValues(metrics.StoreOpInsert)))
	assert.Equal(t, lists+1, testutil.ToFloat64(metrics.StoreErrors.WithLabelValues(metrics.StoreOpList)))
}
