package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type ApiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewApiError(message string, code int) *ApiError {
	return &ApiError{
		Code:    code,
		Message: message,
	}
}

func (e *ApiError) Error() string {
	return e.Message
}

var (
	errEmptyBody    = errors.New("empty body")
	errTrailingData = errors.New("unexpected data after JSON value")
)

// DecodeJson reads exactly one JSON value from r. Anything but whitespace after it is an error.
func DecodeJson(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func WriteJsonResponseWithStatusCode(w http.ResponseWriter, v any, code int) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func WriteJsonResponse(w http.ResponseWriter, v any) error {
	return WriteJsonResponseWithStatusCode(w, v, http.StatusOK)
}
