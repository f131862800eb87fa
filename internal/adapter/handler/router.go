package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/metrics"
	"github.com/akumakusss123/DBT-Antivirus/pkg/middleware"
)

// Router holds everything the HTTP surface is built from
type Router struct {
	Scans      *ScanHandler
	Queries    *QueryHandler
	Statistics *StatisticsHandler
	Admin      *AdminHandler
	Health     *HealthHandler

	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	MetricsPath    string

	Logger *zap.Logger
}

// Engine builds the gin engine. Nil handlers leave their routes unregistered.
func (r Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logging(r.Logger, middleware.DefaultLoggingConfig()),
		r.Metrics.Middleware(),
	)

	if r.Health != nil {
		r.Health.RegisterRoutes(engine)
	}
	if r.MetricsHandler != nil && r.MetricsPath != "" {
		engine.GET(r.MetricsPath, gin.WrapH(r.MetricsHandler))
	}

	api := engine.Group("/api/v1")
	if r.Scans != nil {
		r.Scans.RegisterRoutes(api)
	}
	if r.Queries != nil {
		r.Queries.RegisterRoutes(api)
	}
	if r.Statistics != nil {
		r.Statistics.RegisterRoutes(api)
	}
	if r.Admin != nil {
		r.Admin.RegisterRoutes(api)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found", Code: string(errs.KindNotFound)})
	})
	return engine
}
