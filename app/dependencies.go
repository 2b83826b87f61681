package app

import (
	"context"
	"fmt"

	"github.com/upb/agent-cost-control/auth"
	"github.com/upb/agent-cost-control/config"
	"github.com/upb/agent-cost-control/handlers"
	"github.com/upb/agent-cost-control/internal/observability"
	"github.com/upb/agent-cost-control/middleware"
	"github.com/upb/agent-cost-control/repositories"
	"github.com/upb/agent-cost-control/repositories/postgres"
	"github.com/upb/agent-cost-control/services/demo"
	"github.com/upb/agent-cost-control/services/guardrail"
	"github.com/upb/agent-cost-control/services/policy"
	"github.com/upb/agent-cost-control/services/simulator"
	"github.com/upb/agent-cost-control/services/snapshot"
	"github.com/upb/agent-cost-control/services/telemetry"
	"github.com/upb/agent-cost-control/services/workflow"
	"go.uber.org/zap"
)

// AppName is reported by the health endpoints and used as the token issuer.
const AppName = "agent-cost-control"

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Services
	Simulator *simulator.Service
	Telemetry *telemetry.Service
	Policies  *policy.PolicyService
	Guardrail *guardrail.Service
	Workflows *workflow.Service
	Seeder    *demo.Seeder
	Snapshots *snapshot.Scheduler
	Tokens    *auth.HMACValidator // nil unless JWT_SIGNING_SECRET is set

	// HTTP
	AuthMiddleware    *middleware.AuthMiddleware
	HealthHandler     *handlers.HealthHandler
	SimulationHandler *handlers.SimulationHandler
	TelemetryHandler  *handlers.TelemetryHandler
	WorkflowHandler   *handlers.WorkflowHandler
	PolicyHandler     *handlers.PolicyHandler
	GuardrailHandler  *handlers.GuardrailHandler
	DemoHandler       *handlers.DemoHandler
}

// NewDependencies connects to PostgreSQL and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.GetDB().HealthCheck(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return NewDependenciesWithFactory(cfg, factory, logger), nil
}

// NewDependenciesWithFactory wires everything on top of an existing repository factory.
func NewDependenciesWithFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) *Dependencies {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}

	deps.initRepositories()
	deps.initServices(cfg)
	deps.initAuth(cfg)
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices(cfg *config.Config) {
	var cache *policy.PolicyCache
	if cfg.Policy.CacheTTL > 0 {
		cache = policy.NewPolicyCache(cfg.Policy.CacheSize, cfg.Policy.CacheTTL)
		d.Logger.Info("policy cache enabled",
			zap.Duration("ttl", cfg.Policy.CacheTTL),
			zap.Int("size", cfg.Policy.CacheSize))
	}

	d.Simulator = simulator.NewService(d.Metrics, d.Logger)
	d.Telemetry = telemetry.NewService(d.Repos.Events, d.Metrics, d.Logger,
		telemetry.WithWindowBounds(cfg.Telemetry.SummaryDefaultDays, cfg.Telemetry.SummaryMaxDays))
	d.Policies = policy.NewPolicyService(d.Repos.Policies, cache, d.Logger)
	d.Guardrail = guardrail.NewService(d.Policies, d.Repos.Events, d.Metrics, d.Logger,
		guardrail.WithGlobalSpend(cfg.GlobalSpendScope()))
	d.Workflows = workflow.NewService(d.Repos.Workflows, d.Logger)
	d.Seeder = demo.NewSeeder(d.TxManager, d.Repos, d.Policies, d.Logger)
	d.Snapshots = snapshot.NewScheduler(
		snapshot.NewCollector(d.Repos.Events, d.Metrics, d.Logger),
		cfg.Snapshot.Schedule, d.Logger)
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	authCfg := middleware.AuthConfig{
		APIKey:   cfg.Auth.APIKey,
		Disabled: cfg.Auth.Disabled,
	}
	if cfg.Auth.JWTSigningSecret != "" {
		d.Tokens = auth.NewHMACValidator(cfg.Auth.JWTSigningSecret, AppName)
		authCfg.Validator = d.Tokens
	}
	if cfg.Auth.Disabled {
		d.Logger.Warn("authentication disabled, all requests are anonymous")
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(authCfg, d.Logger)
}

func (d *Dependencies) initHandlers() {
	var db handlers.HealthChecker
	if d.DB != nil {
		db = d.DB
	}
	d.HealthHandler = handlers.NewHealthHandler(AppName, db, d.Logger)
	d.SimulationHandler = handlers.NewSimulationHandler(d.Simulator, d.Logger)
	d.TelemetryHandler = handlers.NewTelemetryHandler(d.Telemetry, d.Logger)
	d.WorkflowHandler = handlers.NewWorkflowHandler(d.Workflows, d.Logger)
	d.PolicyHandler = handlers.NewPolicyHandler(d.Policies, d.Logger)
	d.GuardrailHandler = handlers.NewGuardrailHandler(d.Guardrail, d.Logger)
	d.DemoHandler = handlers.NewDemoHandler(d.Seeder, d.Logger)
}

// StartBackground starts the snapshot job and the policy cache sweeper.
// Both stop when ctx is done.
func (d *Dependencies) StartBackground(ctx context.Context) error {
	if err := d.Snapshots.Start(ctx); err != nil {
		return fmt.Errorf("failed to start snapshot scheduler: %w", err)
	}

	if d.Config.Policy.CacheTTL > 0 {
		go d.Policies.StartCacheCleanup(d.Config.Policy.CacheTTL, ctx.Done())
	}
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Snapshots != nil {
		d.Snapshots.Stop()
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
