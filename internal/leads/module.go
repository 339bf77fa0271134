// Package leads provides the lead lifecycle bounded context module: the
// activity ledger, the transition rules, agent routing and call logs.
package leads

import (
	"leadcrm_backend/internal/events"
	apphttp "leadcrm_backend/internal/http"
	"leadcrm_backend/internal/leads/domain"
	"leadcrm_backend/internal/leads/handler"
	"leadcrm_backend/internal/leads/repository"
	"leadcrm_backend/internal/leads/routing"
	"leadcrm_backend/internal/leads/service"
	"leadcrm_backend/internal/refdata"
	"leadcrm_backend/platform/config"
	"leadcrm_backend/platform/logger"
	"leadcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	router  *routing.Router
}

// NewModule wires the leads context. The scheduler may be nil when follow-up
// reminders are disabled.
func NewModule(pool *pgxpool.Pool, ref *refdata.Store, eventBus events.Bus, scheduler service.FollowUpScheduler, val *validator.Validator, cfg config.LeadRulesConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	router := routing.New(ref)
	svc := service.New(repo, ref, router, eventBus, scheduler, log, service.Config{
		Rules: domain.RulesConfig{
			WonMinProjectValue: cfg.GetWonMinProjectValue(),
			PhoneDefaultRegion: cfg.GetPhoneDefaultRegion(),
		},
		MaxRetries: cfg.GetApplyMaxRetries(),
	})

	return &Module{
		handler: handler.New(svc, router, val),
		service: svc,
		router:  router,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for other modules (bulk import).
func (m *Module) Service() *service.Service {
	return m.service
}

// Router returns the assignment router for other modules.
func (m *Module) Router() *routing.Router {
	return m.router
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterRoutingRoutes(ctx.Protected.Group("/routing"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
