package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/agent-cost-control/app"
	"github.com/upb/agent-cost-control/middleware"
	"github.com/upb/agent-cost-control/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Instrument(deps.Metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.APIKeyHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/health", deps.HealthHandler.HandleHealth)
	r.Get("/health/ready", deps.HealthHandler.HandleReadiness)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Post("/simulate/workflow-cost", deps.SimulationHandler.HandleSimulate)

		r.Route("/telemetry", func(r chi.Router) {
			r.Post("/execution-event", deps.TelemetryHandler.HandleIngestEvent)
			r.Get("/cost-summary", deps.TelemetryHandler.HandleCostSummary)
		})

		r.Route("/workflows", func(r chi.Router) {
			r.Post("/", deps.WorkflowHandler.HandleCreateWorkflow)
			r.Get("/{workflowID}", deps.WorkflowHandler.HandleGetWorkflow)
		})

		r.Route("/policies", func(r chi.Router) {
			r.Post("/create", deps.PolicyHandler.HandleCreatePolicy)
			r.Get("/{customerID}", deps.PolicyHandler.HandleListPolicies)
			r.Get("/{customerID}/active", deps.PolicyHandler.HandleActivePolicy)
		})

		r.Post("/guardrail/evaluate", deps.GuardrailHandler.HandleEvaluate)
		r.Post("/seed-demo-data", deps.DemoHandler.HandleSeed)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
