package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness together with a few facts about the loaded data
type HealthHandler struct {
	ServiceName     string
	CatalogItems    int
	AISearchEnabled bool
}

// HealthCheck handles the health check endpoint
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":            "healthy",
		"service":           h.ServiceName,
		"catalog_items":     h.CatalogItems,
		"ai_search_enabled": h.AISearchEnabled,
	})
}
