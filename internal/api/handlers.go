package api

import (
	"net/http"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "chat-relay/docs"
	"chat-relay/internal/auth"
	"chat-relay/internal/metrics"
	"chat-relay/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// AppendMessageRequest uses pointers so a missing or null field fails "required" while
// an empty string is still accepted.
type AppendMessageRequest struct {
	UserID  *string `json:"user_id" validate:"required"`
	Content *string `json:"content" validate:"required"`
}

type MessageResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	SecretsLoaded bool   `json:"secrets_loaded"`
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(a.accessLog)

	if origins := a.Cfg.Server.AllowedOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", auth.HeaderName, middleware.RequestIDHeader},
		}))
	}

	// Public
	r.Get("/", a.handle(a.Health))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Secured
	r.Group(func(r chi.Router) {
		r.Use(auth.APIKeyMiddleware(a.Gate, a.Log))

		r.Post("/messages", a.handle(a.AppendMessage))
		r.Get("/messages", a.handle(a.ListMessages))
	})

	return r
}

// @Summary Report service health and whether secrets were loaded
// @Tags Healthcheck
// @Produce json
// @Success 200 {object} HealthResponse
// @Router / [get]
func (a *API) Health(w http.ResponseWriter, r *http.Request) error {
	status := "ok"
	if !a.Gate.SecretsLoaded() {
		status = "degraded"
	}
	return WriteJsonResponse(w, HealthResponse{
		Status:        status,
		Service:       a.Cfg.Server.ServiceName,
		SecretsLoaded: a.Gate.SecretsLoaded(),
	})
}

// @Summary Append a message
// @Tags Messages
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body AppendMessageRequest true "Message"
// @Success 201 {object} MessageResponse
// @Failure 401 {object} ApiError
// @Failure 422 {object} ApiError
// @Failure 500 {object} ApiError
// @Router /messages [post]
func (a *API) AppendMessage(w http.ResponseWriter, r *http.Request) error {
	defer r.Body.Close()

	var body AppendMessageRequest
	if err := DecodeJson(r.Body, &body); err != nil {
		return NewApiError("invalid message payload: malformed JSON", http.StatusUnprocessableEntity)
	}
	if err := validate.Struct(body); err != nil {
		return NewApiError(validationMessage(err), http.StatusUnprocessableEntity)
	}

	msg, err := a.Messages.Append(r.Context(), model.NewMessage{
		UserID:  *body.UserID,
		Content: *body.Content,
	})
	if err != nil {
		return err
	}

	return WriteJsonResponseWithStatusCode(w, NewMessageResponse(msg), http.StatusCreated)
}

// @Summary List the 50 most recent messages, oldest first
// @Tags Messages
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} MessageResponse
// @Failure 401 {object} ApiError
// @Failure 500 {object} ApiError
// @Router /messages [get]
func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) error {
	messages, err := a.Messages.ListRecent(r.Context())
	if err != nil {
		return err
	}

	return WriteJsonResponse(w, lo.Map(messages, func(m model.Message, _ int) MessageResponse {
		return NewMessageResponse(m)
	}))
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "invalid message payload"
	}
	fields := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		return fe.Field() + " is " + fe.Tag()
	})
	sort.Strings(fields)
	return "invalid message payload: " + strings.Join(fields, ", ")
}
