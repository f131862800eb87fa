package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/usecase"
)

// HealthHandler serves /health and its live and ready variants
type HealthHandler struct {
	health *usecase.HealthUseCase
}

func NewHealthHandler(health *usecase.HealthUseCase) *HealthHandler {
	return &HealthHandler{health: health}
}

func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.GetHealth)
	router.GET("/health/live", h.GetLiveness)
	router.GET("/health/ready", h.GetReadiness)
}

// GetHealth reports database, schema and backup destination checks.
// A degraded backup destination still answers 200; only a down store is 503.
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *gin.Context) {
	health, err := h.health.GetHealth(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if health.Status == entities.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// @Router /health/live [get]
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	if !h.health.GetLiveness(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "dead"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// GetReadiness answers 503 while the store is unusable or the process is draining
// @Router /health/ready [get]
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	ready, message := h.health.GetReadiness(c.Request.Context())
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "message": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "message": message})
}
