package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"chat-relay/internal/metrics"
)

type apiHandlerFunc func(http.ResponseWriter, *http.Request) error

// handle writes *ApiError values as they are. Anything else is logged with its cause and
// answered with a bare 500. Errors raised after the response has started are only logged.
func (a *API) handle(h apiHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		err := h(ww, r)
		if err == nil {
			return
		}
		if ww.Status() != 0 {
			a.Log.Error("write response",
				"error", err,
				"status", ww.Status(),
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
			)
			return
		}

		var apiErr *ApiError
		if errors.As(err, &apiErr) {
			if err := WriteJsonResponseWithStatusCode(w, apiErr, apiErr.Code); err != nil {
				a.Log.Error("write error response", "error", err)
			}
			return
		}

		a.Log.Error("Internal Server Error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		apiErr = NewApiError("internal server error", http.StatusInternalServerError)
		if err := WriteJsonResponseWithStatusCode(w, apiErr, apiErr.Code); err != nil {
			a.Log.Error("write error response", "error", err)
		}
	}
}

// requestID reuses the caller's X-Request-Id or mints one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		a.Log.Debug("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
