package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/assert"
)

func TestHandle(t *testing.T) {
	a := &API{Log: logs.GetLoggerFromLevel(slog.LevelDebug)}

	tests := []struct {
		name       string
		handler    apiHandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name: "api error is written as is",
			handler: func(w http.ResponseWriter, r *http.Request) error {
				return NewApiError("bad", http.StatusUnprocessableEntity)
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"code":422,"message":"bad"}` + "\n",
		},
		{
			name: "other errors become a generic 500",
			handler: func(w http.ResponseWriter, r *http.Request) error {
				return errors.New("pq: password authentication failed")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"code":500,"message":"internal server error"}` + "\n",
		},
		{
			name: "encode failure after headers is only logged",
			handler: func(w http.ResponseWriter, r *http.Request) error {
				return WriteJsonResponse(w, map[string]any{"c": make(chan int)})
			},
			wantStatus: http.StatusOK,
			wantBody:   "",
		},
		{
			name: "error after a partial body is only logged",
			handler: func(w http.ResponseWriter, r *http.Request) error {
				_, _ = w.Write([]byte("[{"))
				return errors.New("connection reset")
			},
			wantStatus: http.StatusOK,
			wantBody:   "[{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			a.handle(tt.handler)(rr, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestDecodeJson(t *testing.T) {
	var v map[string]string

	assert.NoError(t, DecodeJson(strings.NewReader(`{"a":"b"}`+"\n\t "), &v))
	assert.ErrorIs(t, DecodeJson(strings.NewReader(""), &v), errEmptyBody)
	assert.ErrorIs(t, DecodeJson(strings.NewReader(`{"a":"b"} xyz`), &v), errTrailingData)
	assert.ErrorIs(t, DecodeJson(strings.NewReader(`{"a":"b"}{"c":"d"}`), &v), errTrailingData)
}
