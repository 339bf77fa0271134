package refdata

import (
	"net/http"

	"leadcrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// StatusView is the form-facing shape of one workflow status.
type StatusView struct {
	Slug        string   `json:"slug"`
	Family      string   `json:"family"`
	SubStatuses []string `json:"subStatuses"`
}

// SourceView is the form-facing shape of one lead source.
type SourceView struct {
	Name            string `json:"name"`
	Category        string `json:"category"`
	DefaultLanguage string `json:"defaultLanguage,omitempty"`
}

// UserView is the form-facing shape of one roster entry.
type UserView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Centre    string   `json:"centre,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

// View is everything the lead forms need to render their pickers.
type View struct {
	Sources      []SourceView `json:"sources"`
	Centres      []string     `json:"centres"`
	Languages    []Language   `json:"languages"`
	ProjectTypes []string     `json:"projectTypes"`
	HouseTypes   []string     `json:"houseTypes"`
	Statuses     []StatusView `json:"statuses"`
	ValueTiers   []string     `json:"valueTiers"`
	Users        []UserView   `json:"users"`
}

// Handler serves the reference data lookup endpoint.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
}

func (h *Handler) Get(c *gin.Context) {
	snap := h.store.Snapshot()

	view := View{
		Centres:      make([]string, 0, len(snap.Centres)),
		Languages:    snap.Languages,
		ProjectTypes: snap.ProjectTypes,
		HouseTypes:   snap.HouseTypes,
		ValueTiers:   snap.Workflow.ValueTiers,
	}
	for _, src := range snap.Sources {
		if !src.Active {
			continue
		}
		view.Sources = append(view.Sources, SourceView{
			Name:            src.Name,
			Category:        src.Category,
			DefaultLanguage: src.DefaultLanguage,
		})
	}
	for _, centre := range snap.Centres {
		view.Centres = append(view.Centres, centre.Name)
	}
	for _, st := range snap.Workflow.Statuses {
		subs := st.SubStatuses
		if subs == nil {
			subs = []string{}
		}
		view.Statuses = append(view.Statuses, StatusView{
			Slug:        st.Slug,
			Family:      st.Family,
			SubStatuses: subs,
		})
	}
	for _, u := range snap.Users {
		if !u.Active {
			continue
		}
		view.Users = append(view.Users, UserView{
			ID:        u.ID.String(),
			Name:      u.Name,
			Role:      u.Role,
			Centre:    u.Centre,
			Languages: u.Languages,
		})
	}

	httpkit.JSON(c, http.StatusOK, view)
}
