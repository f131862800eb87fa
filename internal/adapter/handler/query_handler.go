package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/usecase"
)

// QueryHandler serves history, lookup, search and rollup reads
type QueryHandler struct {
	query *usecase.QueryService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(query *usecase.QueryService) *QueryHandler {
	return &QueryHandler{query: query}
}

// RegisterRoutes registers read routes
func (h *QueryHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/files/:hash", h.LookupFile)
	api.GET("/history", h.History)
	api.GET("/threats/search", h.SearchThreats)

	rollups := api.Group("/rollups")
	rollups.GET("/daily", h.DailyRollups)
	rollups.GET("/threats", h.DailyThreats)
	rollups.GET("/users", h.UserActivity)
}

// LookupFile reports whether this content was seen before
// @Router /api/v1/files/{hash} [get]
func (h *QueryHandler) LookupFile(c *gin.Context) {
	file, err := h.query.LookupFile(c.Request.Context(), c.Param("hash"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// History lists scans most recent first.
// Query parameters: limit, offset, min_threat_level, date_from (YYYY-MM-DD or RFC 3339), q.
// @Router /api/v1/history [get]
func (h *QueryHandler) History(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}

	filter := entities.HistoryFilter{Text: c.Query("q")}
	if raw := c.Query("min_threat_level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "min_threat_level must be an integer", err)
			return
		}
		filter.MinThreatLevel = &level
	}
	if raw := c.Query("date_from"); raw != "" {
		from, err := parseDateFrom(raw)
		if err != nil {
			badRequest(c, "date_from must be YYYY-MM-DD or RFC 3339", err)
			return
		}
		filter.DateFrom = &from
	}

	rows, err := h.query.GetHistory(c.Request.Context(), limit, offset, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": rows, "limit": limit, "offset": offset})
}

// SearchThreats matches threat names, most detected first.
// Query parameters: q, limit, offset.
// @Router /api/v1/threats/search [get]
func (h *QueryHandler) SearchThreats(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}

	threats, err := h.query.SearchThreats(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threats": threats, "limit": limit, "offset": offset})
}

func (h *QueryHandler) DailyRollups(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	rows, err := h.query.DailyRollups(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": rows})
}

func (h *QueryHandler) DailyThreats(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	rows, err := h.query.DailyThreats(c.Request.Context(), c.Query("date"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threats": rows})
}

func (h *QueryHandler) UserActivity(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	rows, err := h.query.UserActivity(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": rows})
}

// intQuery reads an optional integer parameter, writing a 400 when malformed
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name+" must be an integer", err)
		return 0, false
	}
	return v, true
}

func parseDateFrom(raw string) (time.Time, error) {
	if t, err := time.Parse(entities.DateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
