package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/draftdesk/draftdesk-backend/api/controllers"
	"github.com/draftdesk/draftdesk-backend/api/middleware"
	"github.com/draftdesk/draftdesk-backend/internal/drafts"
	"github.com/draftdesk/draftdesk-backend/internal/failures"
	"github.com/draftdesk/draftdesk-backend/internal/schedule"
	"github.com/draftdesk/draftdesk-backend/pkg/config"
	"github.com/draftdesk/draftdesk-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams collects everything the operator surface serves.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       pinger
	Redis    pinger
	Engine   drafts.Engine
	Jobs     schedule.Service
	Failures failures.Ledger
}

// NewRouter wires the operator HTTP surface.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/drafts", func(r chi.Router) {
			r.Get("/", controllers.ListDrafts(p.Engine, p.Logger))
			r.Route("/{draftId}", func(r chi.Router) {
				r.Get("/", controllers.GetDraft(p.Engine, p.Logger))
				r.Post("/transitions", controllers.TransitionDraft(p.Engine, p.Logger))
				r.Get("/failures", controllers.ListDraftFailures(p.Failures, p.Logger))
				r.Get("/job", controllers.GetDraftJob(p.Jobs, p.Logger))
			})
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/dead-lettered", controllers.ListDeadLetteredJobs(p.Jobs, p.Logger))
			r.Post("/{jobId}/retry", controllers.RetryJob(p.Jobs, p.Logger))
		})
	})

	return r
}
