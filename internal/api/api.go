package api

import (
	"log/slog"

	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/service"
)

type API struct {
	Messages *service.MessageService
	Gate     *auth.Gate
	Cfg      *config.Config
	Log      *slog.Logger
}

func NewAPI(messages *service.MessageService, gate *auth.Gate, cfg *config.Config, log *slog.Logger) *API {
	return &API{
		Messages: messages,
		Gate:     gate,
		Cfg:      cfg,
		Log:      log,
	}
}
