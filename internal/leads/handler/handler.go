package handler

import (
	"net/http"

	"leadcrm_backend/internal/leads/routing"
	"leadcrm_backend/internal/leads/service"
	"leadcrm_backend/internal/leads/transport"
	"leadcrm_backend/internal/refdata"
	"leadcrm_backend/platform/httpkit"
	"leadcrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc    *service.Service
	router *routing.Router
	val    *validator.Validator
}

func New(svc *service.Service, router *routing.Router, val *validator.Validator) *Handler {
	return &Handler{svc: svc, router: router, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/history", h.History)
	rg.POST("/:id/activities", h.ApplyActivity)
	rg.GET("/:id/call-logs", h.ListCallLogs)
	rg.POST("/:id/call-logs", h.AddCallLog)
}

func (h *Handler) RegisterRoutingRoutes(rg *gin.RouterGroup) {
	rg.GET("/candidates", h.Candidates)
}

func actor(c *gin.Context) service.Actor {
	id := httpkit.MustGetIdentity(c)
	return service.Actor{ID: id.UserID(), Role: id.Role(), Name: id.Name()}
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	res, err := h.svc.Create(c.Request.Context(), actor(c), service.CreateParams{
		Name:          req.Name,
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
		Source:        req.Source,
		LanguageHint:  req.Language,
		PresalesAgent: req.PresalesAgent.Value,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CreateLeadResponse{
		Lead:       transport.LeadFromSnapshot(res.Snapshot),
		Duplicates: transport.DuplicatesFromMatches(res.Duplicates),
	})
}

func (h *Handler) GetByID(c *gin.Context) {
	snap, err := h.svc.Project(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadFromSnapshot(snap))
}

func (h *Handler) History(c *gin.Context) {
	acts, err := h.svc.History(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ActivitiesFromDomain(acts))
}

func (h *Handler) ApplyActivity(c *gin.Context) {
	var req transport.ApplyActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	snap, err := h.svc.Apply(c.Request.Context(), c.Param("id"), actor(c), req.ToProposedFields())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadFromSnapshot(snap))
}

func (h *Handler) AddCallLog(c *gin.Context) {
	var req transport.CreateCallLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := service.CallLogParams{
		Direction:       req.Direction,
		Outcome:         req.Outcome,
		DurationSeconds: req.DurationSeconds,
		Notes:           req.Notes,
	}
	if req.OccurredAt != nil {
		params.OccurredAt = *req.OccurredAt
	}

	log, err := h.svc.AddCallLog(c.Request.Context(), c.Param("id"), actor(c), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.CallLogFromRepo(log))
}

func (h *Handler) ListCallLogs(c *gin.Context) {
	logs, err := h.svc.CallLogs(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.CallLogsFromRepo(logs))
}

// Candidates exposes the router's match list so the UI can offer an explicit
// choice when several agents fit.
func (h *Handler) Candidates(c *gin.Context) {
	role := c.Query("role")
	if role != refdata.FamilyPresales && role != refdata.FamilySales {
		httpkit.Error(c, http.StatusBadRequest, "role must be presales or sales", nil)
		return
	}

	candidates := h.router.Candidates(routing.Request{
		Role:     role,
		Language: c.Query("language"),
		Centre:   c.Query("centre"),
		Pool:     c.Query("pool"),
	})

	out := make([]transport.CandidateResponse, 0, len(candidates))
	for _, u := range candidates {
		out = append(out, transport.CandidateResponse{
			ID:        u.ID,
			Name:      u.Name,
			Role:      u.Role,
			Centre:    u.Centre,
			Languages: u.Languages,
		})
	}
	httpkit.OK(c, out)
}
