package handlers

import (
	"net/http"

	"github.com/onteraction0919-cmyk/asksystem/internal/config"
	"github.com/onteraction0919-cmyk/asksystem/internal/models"
)

type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// PublicConfig returns non-sensitive configuration for the browser pages
func (h *ConfigHandler) PublicConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.PublicConfigResponse{
		MaxQuestionLength: h.cfg.MaxQuestionLength,
		SentryDSN:         h.cfg.SentryDSNFrontend,
		SentryEnvironment: h.cfg.SentryEnvironment,
	})
}
