package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/api"
	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/service"
	"chat-relay/internal/storage"
)

const accessKey = "correct-key"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.Server{
			Addr:        ":0",
			ServiceName: "chat-relay-test",
		},
		LogLevel: "DEBUG",
		Secrets: config.Secrets{
			DatabaseURL: "sqlite://test",
			DatabaseKey: "unused",
			AccessKey:   accessKey,
		},
	}
}

// newTestAPI wires the router the way cmd does. A nil store leaves secrets unloaded.
func newTestAPI(t *testing.T, store storage.MessageStore, cfg *config.Config) http.Handler {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	loaded := store != nil && cfg.Secrets.DatabaseConfigured()
	svc := service.NewMessageService(store, log)
	gate := auth.NewGate(cfg.Secrets.AccessKey, loaded)

	return api.NewAPI(svc, gate, cfg, log).Router()
}

func newSQLiteStore(t *testing.T) storage.MessageStore {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)

	store := storage.NewSQLiteStore(db)
	require.NoError(t, storage.Migrate(context.Background(), store))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func executeRequest(h http.Handler, method, path string, body io.Reader, key *string) *http.Response {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != nil {
		req.Header.Set(auth.HeaderName, *key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Result()
}

func encodeJsonBody(t *testing.T, body any) io.Reader {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	require.NoError(t, json.NewEncoder(buf).Encode(body))
	return buf
}

func decodeJsonBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}
