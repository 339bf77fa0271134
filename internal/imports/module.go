package imports

import (
	"leadcrm_backend/internal/events"
	apphttp "leadcrm_backend/internal/http"
	leadsvc "leadcrm_backend/internal/leads/service"
	"leadcrm_backend/platform/config"
	"leadcrm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the bulk import bounded context implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(pool *pgxpool.Pool, leads *leadsvc.Service, bus events.Bus, log *logger.Logger, cfg config.ImportConfig) *Module {
	svc := New(leads, NewRepository(pool), bus, log, cfg)
	return &Module{handler: NewHandler(svc, cfg)}
}

func (m *Module) Name() string {
	return "imports"
}

// RegisterRoutes mounts the upload behind the stricter import rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/imports")
	group.Use(ctx.ImportRateLimiter.RateLimit())
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
