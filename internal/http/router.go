package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"faqbot-ai/internal/handlers"
	"faqbot-ai/internal/pipeline"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine        pipeline.Engine
	DB            *sql.DB
	OpenAIBaseURL string
	KeyValidator  handlers.KeyValidator // nil uses the real provider check
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.Engine)
	validateHandler := handlers.NewValidateKeyHandler(deps.OpenAIBaseURL, deps.KeyValidator)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodPost, "/validate-key", validateHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
