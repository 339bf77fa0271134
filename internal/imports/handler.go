package imports

import (
	"io"
	"net/http"

	leadsvc "leadcrm_backend/internal/leads/service"
	"leadcrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *Service
	cfg Config
}

func NewHandler(svc *Service, cfg Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads", h.Upload)
	rg.GET("/:id/failures.csv", h.FailureCSV)
}

// Upload accepts the CSV either as a multipart "file" part or as the raw
// request body.
func (h *Handler) Upload(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	actor := leadsvc.Actor{ID: id.UserID(), Role: id.Role(), Name: id.Name()}

	data, contentType, fileName, ok := h.readUpload(c)
	if !ok {
		return
	}

	report, err := h.svc.Run(c.Request.Context(), actor, data, contentType, fileName)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, report)
}

func (h *Handler) readUpload(c *gin.Context) (data []byte, contentType, fileName string, ok bool) {
	maxBytes := h.cfg.GetImportMaxBytes()

	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxBytes {
			httpkit.Error(c, http.StatusBadRequest, "file exceeds the upload size limit", nil)
			return nil, "", "", false
		}
		f, err := fh.Open()
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "unreadable upload", nil)
			return nil, "", "", false
		}
		defer f.Close()
		data, err = io.ReadAll(io.LimitReader(f, maxBytes+1))
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "unreadable upload", nil)
			return nil, "", "", false
		}
		return data, fh.Header.Get("Content-Type"), fh.Filename, true
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBytes+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable upload", nil)
		return nil, "", "", false
	}
	return data, c.ContentType(), "", true
}

func (h *Handler) FailureCSV(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid import id", nil)
		return
	}

	data, err := h.svc.FailureCSV(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="failures.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}
