// Package worker exposes the HTTP triggers for the dispatch passes. The
// endpoints are called by the scheduler, their JSON summaries are read by
// operators.
package worker

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psiconnect/practice-api/internal/model"
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
	workers := r.Group("/workers")
	{
		workers.POST("/whatsapp/process", h.ProcessWhatsApp)
		workers.POST("/email/process", h.ProcessEmail)
	}
}

// ProcessWhatsApp runs one WhatsApp dispatch pass. The disconnected-gateway
// case is a deliberate degraded-mode response, not an error: the pass ran,
// nothing was sent, stranded items were rerouted to email.
func (h *Handler) ProcessWhatsApp(c *gin.Context) {
	result, err := h.service.ProcessWhatsApp(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if result.GatewayDown {
		c.JSON(http.StatusOK, gin.H{
			"success":            false,
			"message":            "whatsapp gateway disconnected, pending notifications converted to email",
			"whatsapp_status":    result.GatewayStatus,
			"fallback_processed": result.FallbackCount,
		})
		return
	}

	c.JSON(http.StatusOK, summarize(result))
}

func (h *Handler) ProcessEmail(c *gin.Context) {
	result, err := h.service.ProcessEmail(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"processed":    result.Processed,
		"failed":       result.Failed,
		"total":        result.Total,
		"success_rate": result.SuccessRate,
	})
}

func summarize(result *model.DispatchResult) gin.H {
	return gin.H{
		"success":         true,
		"processed":       result.Processed,
		"failed":          result.Failed,
		"total":           result.Total,
		"success_rate":    result.SuccessRate,
		"whatsapp_status": result.GatewayStatus,
	}
}
