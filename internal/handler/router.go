package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/bothive/internal/handler/chat"
	profileHandler "github.com/zhouzirui/bothive/internal/handler/profile"
	"github.com/zhouzirui/bothive/internal/handler/webhook"
	middlewarePkg "github.com/zhouzirui/bothive/internal/middleware"
	"github.com/zhouzirui/bothive/internal/model/profile"
	chatService "github.com/zhouzirui/bothive/internal/service/chat"
	"github.com/zhouzirui/bothive/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(p profile.Profile, chatSvc *chatService.Service, responder webhook.Responder, opts webhook.Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	webhook.New(chatSvc, responder, opts).RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		profileHandler.New(p).RegisterRoutes(api)
		chat.New(chatSvc).RegisterRoutes(api)
	})

	return r
}
