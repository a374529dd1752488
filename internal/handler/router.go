package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	catalogHandler "github.com/kickfinder/backend/internal/handler/catalog"
	"github.com/kickfinder/backend/internal/handler/conversation"
	"github.com/kickfinder/backend/internal/handler/recommend"
	conversationService "github.com/kickfinder/backend/internal/service/conversation"
	"github.com/kickfinder/backend/pkg/utils"
)

// StatusReporter exposes transport status on the health endpoint.
type StatusReporter interface {
	Status() map[string]interface{}
}

// Dependencies groups what the HTTP surface needs.
type Dependencies struct {
	Conversation   *conversationService.Service
	Searcher       recommend.Searcher
	Catalog        catalogHandler.Lister
	CatalogBackend string
	Discord        StatusReporter
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			health := map[string]interface{}{
				"status":          "healthy",
				"catalog":         deps.CatalogBackend,
				"active_sessions": deps.Conversation.ActiveSessions(),
			}
			if deps.Discord != nil {
				health["discord"] = deps.Discord.Status()
			}
			utils.RespondJSON(w, http.StatusOK, health)
		})

		if deps.Catalog != nil {
			catalogHandler.New(deps.Catalog).RegisterRoutes(api)
		}
		recommend.New(deps.Searcher).RegisterRoutes(api)
		conversation.NewWebSocketHandler(deps.Conversation).RegisterRoutes(api)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}
