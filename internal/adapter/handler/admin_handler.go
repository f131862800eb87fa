package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/usecase"
)

// AdminHandler exposes maintenance operations
type AdminHandler struct {
	retention     *usecase.Retention
	backups       *usecase.BackupUseCase
	retentionDays func() int
}

// NewAdminHandler creates a new admin handler. backups may be nil when no
// backup target is configured; retentionDays supplies the default window.
func NewAdminHandler(retention *usecase.Retention, backups *usecase.BackupUseCase, retentionDays func() int) *AdminHandler {
	return &AdminHandler{retention: retention, backups: backups, retentionDays: retentionDays}
}

// RegisterRoutes registers admin routes
func (h *AdminHandler) RegisterRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin")
	admin.POST("/cleanup", h.Cleanup)
	admin.POST("/backup", h.Backup)
}

// CleanupRequest is the optional body of POST /admin/cleanup
type CleanupRequest struct {
	Days int `json:"days"`
}

// Cleanup applies the retention window
// @Router /api/v1/admin/cleanup [post]
func (h *AdminHandler) Cleanup(c *gin.Context) {
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid cleanup body", err)
		return
	}
	if req.Days == 0 && h.retentionDays != nil {
		req.Days = h.retentionDays()
	}

	result, err := h.retention.PurgeDays(c.Request.Context(), req.Days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Backup takes a backup immediately
// @Router /api/v1/admin/backup [post]
func (h *AdminHandler) Backup(c *gin.Context) {
	if h.backups == nil {
		writeError(c, errs.Unavailable("backup", errors.New("no backup target configured")))
		return
	}

	backup, err := h.backups.CreateBackup(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"code":   "backup_failed",
			"backup": backup,
		})
		return
	}
	c.JSON(http.StatusCreated, backup)
}
