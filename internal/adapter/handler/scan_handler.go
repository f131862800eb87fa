package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/usecase"
)

// ScanHandler accepts findings from external scanners and raw uploads
type ScanHandler struct {
	writer *usecase.ResultWriter
	intake *usecase.Intake
}

// NewScanHandler creates a new scan handler
func NewScanHandler(writer *usecase.ResultWriter, intake *usecase.Intake) *ScanHandler {
	return &ScanHandler{writer: writer, intake: intake}
}

// RegisterRoutes registers scan ingestion routes
func (h *ScanHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/scans", h.RecordScan)
	api.POST("/uploads", h.Upload)
}

// RecordScanRequest is the body of POST /scans
type RecordScanRequest struct {
	File    entities.FileMetadata `json:"file"`
	Scanner string                `json:"scanner"`
	Finding entities.ScanFinding  `json:"finding"`
}

// RecordScan stores one scanner's finding
// @Summary Record a scan result
// @Tags Scans
// @Accept json
// @Produce json
// @Success 201 {object} map[string]int64
// @Failure 404,422,503 {object} ErrorResponse
// @Router /api/v1/scans [post]
func (h *ScanHandler) RecordScan(c *gin.Context) {
	var req RecordScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid scan result body", err)
		return
	}

	id, err := h.writer.RecordScanResult(c.Request.Context(), req.File, req.Scanner, req.Finding)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"scan_id": id})
}

// Upload spools a multipart file and runs every registered scanner on it
// @Summary Upload a file for scanning
// @Tags Scans
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} usecase.IntakeResult
// @Failure 400,422,503 {object} ErrorResponse
// @Router /api/v1/uploads [post]
func (h *ScanHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "no file provided", err)
		return
	}
	defer file.Close()

	upload := usecase.Upload{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Body:     file,
	}
	if raw := c.PostForm("uploaded_by"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "uploaded_by must be a user id", err)
			return
		}
		upload.UploadedBy = &id
	}

	result, err := h.intake.Submit(c.Request.Context(), upload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
