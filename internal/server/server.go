// Package server assembles the HTTP surface of the service.
package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"mediscan/internal/catalog"
	"mediscan/internal/handler"
	mid "mediscan/internal/middleware"
	"mediscan/internal/qrcode"
	"mediscan/internal/search"
	"mediscan/pkg/config"
	"mediscan/pkg/jwtutil"
	"mediscan/pkg/logger"
	"mediscan/prometheus"
)

// Deps are the long-lived components the routes are served from
type Deps struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	Store   *search.Store
	JWT     *jwtutil.JWTUtil
	QR      *qrcode.Generator
	Metrics *prometheus.Metrics
}

// New returns an Echo instance with middleware and routes registered
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(mid.MetricsMiddleware(d.Metrics))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  d.Config.Server.CORSAllowOrigins,
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))

	health := &handler.HealthHandler{
		ServiceName:     d.Config.ServiceName,
		CatalogItems:    d.Catalog.Len(),
		AISearchEnabled: d.Config.Gemini.Enabled(),
	}
	medicines := handler.NewMedicineHandler(d.Catalog)
	sessions := handler.NewSessionHandler(d.Store, d.JWT)
	qr := handler.NewQRHandler(d.QR)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

	// Health check endpoint
	e.GET("/health", health.HealthCheck)

	api := e.Group("/api")
	api.GET("/categories", medicines.ListCategories)
	api.GET("/medicines", medicines.ListMedicines)
	api.GET("/medicines/:id", medicines.GetMedicine)
	api.GET("/qr", qr.GetCode)
	api.POST("/sessions", sessions.CreateSession)

	// Session routes - the Bearer token names the session
	current := api.Group("/sessions/current", mid.SessionAuthMiddleware(d.JWT))
	current.GET("", sessions.Current)
	current.DELETE("", sessions.End)
	current.POST("/search", sessions.Search)
	current.PUT("/input", sessions.Input)
	current.PUT("/category", sessions.SetCategory)
	current.POST("/clear", sessions.Clear)

	return e
}
