package template

import (
	"github.com/gin-gonic/gin"

	"github.com/psiconnect/practice-api/internal/service/dispatch"
	"github.com/psiconnect/practice-api/pkg/httputil"
)

type Handler struct {
	service *dispatch.Service
}

func NewHandler(service *dispatch.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/templates", h.ListTemplates)
}

// ListTemplates returns the effective template set: hard-coded defaults
// overlaid with whatever overrides are stored in app settings.
func (h *Handler) ListTemplates(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.service.Templates(c.Request.Context()))
}
