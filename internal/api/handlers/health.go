package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/llm"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/models"
	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and the configured completion backend
type HealthHandler struct {
	provider llm.Provider
}

func NewHealthHandler(provider llm.Provider) *HealthHandler {
	return &HealthHandler{provider: provider}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status: "healthy",
		LLM: models.HealthLLM{
			Provider: h.provider.Name(),
			Model:    h.provider.Model(),
		},
	})
}

// Limits publishes the validation bounds so the form can enforce the same ones
func Limits(c *gin.Context) {
	c.JSON(http.StatusOK, models.CurrentLimits())
}
