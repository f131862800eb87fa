package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/usecase"
)

// ErrorResponse is the body of every failed API request
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// codeInvalidRequest marks bodies and parameters that could not be parsed
const codeInvalidRequest = "invalid_request"

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConstraintViolation:
		return http.StatusUnprocessableEntity
	case errs.KindTimeout:
		return http.StatusGatewayTimeout
	case errs.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	code := string(kind)
	if code == "" {
		code = "internal"
	}

	resp := ErrorResponse{Error: err.Error(), Code: code}
	var unsaved *usecase.UnsavedFindingError
	if errors.As(err, &unsaved) {
		resp.Details = map[string]interface{}{
			"fingerprint":  unsaved.File.Fingerprint,
			"scanner_kind": unsaved.ScannerKind,
			"finding":      unsaved.Finding,
		}
	}
	if errs.Retryable(err) {
		if resp.Details == nil {
			resp.Details = map[string]interface{}{}
		}
		resp.Details["retryable"] = true
	}

	c.Error(err)
	c.JSON(StatusFor(kind), resp)
}

func badRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{Error: message, Code: codeInvalidRequest}
	if err != nil {
		resp.Details = map[string]interface{}{"cause": err.Error()}
	}
	c.JSON(http.StatusBadRequest, resp)
}
