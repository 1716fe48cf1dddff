package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"chat-relay/internal/model"
)

const restBasePath = "/rest/v1"

// rowsSchema is what every PostgREST reply for the messages table must look like.
const rowsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "user_id", "content", "created_at"],
		"properties": {
			"id":         {"type": ["string", "integer"], "minLength": 1},
			"user_id":    {"type": "string"},
			"content":    {"type": "string"},
			"created_at": {"type": "string", "minLength": 1}
		}
	}
}`

// PostgRESTStore talks to a Supabase-style PostgREST endpoint.
type PostgRESTStore struct {
	base   *url.URL
	key    string
	client *http.Client
	schema *gojsonschema.Schema
}

// NewPostgRESTStore builds a store for endpoint. A nil client means http.DefaultClient.
func NewPostgRESTStore(endpoint *url.URL, key string, client *http.Client) (*PostgRESTStore, error) {
	if endpoint.Host == "" {
		return nil, fmt.Errorf("postgrest endpoint has no host")
	}
	if client == nil {
		client = http.DefaultClient
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(rowsSchema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	base := *endpoint
	base.Path = strings.TrimRight(base.Path, "/")
	if !strings.HasSuffix(base.Path, restBasePath) {
		base.Path += restBasePath
	}
	base.RawQuery = ""

	return &PostgRESTStore{base: &base, key: key, client: client, schema: schema}, nil
}

func (s *PostgRESTStore) tableURL(query url.Values) string {
	u := *s.base
	u.Path += "/messages"
	u.RawQuery = query.Encode()
	return u.String()
}

func (s *PostgRESTStore) InsertMessage(ctx context.Context, m model.NewMessage) (model.Message, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return model.Message{}, fmt.Errorf("encode insert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tableURL(nil), bytes.NewReader(body))
	if err != nil {
		return model.Message{}, fmt.Errorf("build insert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	rows, err := s.do(req)
	if err != nil {
		return model.Message{}, fmt.Errorf("insert failed: %w", err)
	}
	if len(rows) == 0 {
		return model.Message{}, ErrNoRecord
	}
	return rows[0], nil
}

func (s *PostgRESTStore) ListRecentMessages(ctx context.Context, limit int) ([]model.Message, error) {
	query := url.Values{}
	query.Set("select", "id,user_id,content,created_at")
	query.Set("order", "created_at.desc,id.desc")
	query.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.tableURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}

	rows, err := s.do(req)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

func (s *PostgRESTStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

type restRow struct {
	ID        json.RawMessage `json:"id"`
	UserID    string          `json:"user_id"`
	Content   string          `json:"content"`
	CreatedAt string          `json:"created_at"`
}

func (s *PostgRESTStore) do(req *http.Request) ([]model.Message, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("postgrest status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, result.Errors())
	}

	var raw []restRow
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}

	messages := make([]model.Message, 0, len(raw))
	for _, r := range raw {
		createdAt, err := parseTimestamp(r.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, model.Message{
			ID:        rowID(r.ID),
			UserID:    r.UserID,
			Content:   r.Content,
			CreatedAt: createdAt,
		})
	}
	return messages, nil
}

// rowID keeps ids opaque: strings are unquoted, integers kept as written.
func rowID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
