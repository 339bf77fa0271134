package refdata

import (
	apphttp "leadcrm_backend/internal/http"
)

// Module exposes the reference data lookup endpoint, implementing
// http.Module.
type Module struct {
	handler *Handler
}

func NewModule(store *Store) *Module {
	return &Module{handler: NewHandler(store)}
}

func (m *Module) Name() string {
	return "refdata"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/refdata"))
}

var _ apphttp.Module = (*Module)(nil)
