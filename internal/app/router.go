package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/praise"
	"github.com/kudoshq/kudos/internal/quantify"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	PeriodsHandler  *periods.Handler
	PraiseHandler   *praise.Handler
	QuantifyHandler *quantify.Handler
	AdminGuard      func(http.Handler) http.Handler
}

// NewRouter constructs the chi.Router with Kudos defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		if params.PeriodsHandler != nil {
			params.PeriodsHandler.Routes(api, params.AdminGuard)
		}
		if params.PraiseHandler != nil {
			params.PraiseHandler.Routes(api, params.AdminGuard)
		}
		if params.QuantifyHandler != nil {
			params.QuantifyHandler.Routes(api, params.AdminGuard)
		}
	})

	return r
}
