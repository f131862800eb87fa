package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/usecase"
)

// StatisticsHandler serves the dashboard and manual refreshes
type StatisticsHandler struct {
	aggregator *usecase.Aggregator
}

// NewStatisticsHandler creates a new statistics handler
func NewStatisticsHandler(aggregator *usecase.Aggregator) *StatisticsHandler {
	return &StatisticsHandler{aggregator: aggregator}
}

// RegisterRoutes registers statistics routes
func (h *StatisticsHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/dashboard", h.Dashboard)
	api.GET("/statistics/:date", h.GetStatistics)
	api.POST("/statistics/:date/refresh", h.Refresh)
}

// Dashboard returns the composed dashboard snapshot
// @Router /api/v1/dashboard [get]
func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	snapshot, err := h.aggregator.GetDashboardSnapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// @Router /api/v1/statistics/{date} [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.aggregator.GetStatistics(c.Request.Context(), c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Refresh recomputes one day from the source rows
// @Router /api/v1/statistics/{date}/refresh [post]
func (h *StatisticsHandler) Refresh(c *gin.Context) {
	day, err := time.Parse(entities.DateLayout, c.Param("date"))
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD", err)
		return
	}

	stats, err := h.aggregator.RefreshDailyStatistics(c.Request.Context(), day)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
