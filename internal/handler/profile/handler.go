package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/bothive/internal/model/profile"
	"github.com/zhouzirui/bothive/pkg/utils"
)

// Handler serves the bot profile the widget renders in its header.
type Handler struct {
	profile profile.Profile
}

// New creates the profile handler.
func New(p profile.Profile) *Handler {
	return &Handler{profile: p}
}

// RegisterRoutes registers the profile route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.handleProfile)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profile)
}
