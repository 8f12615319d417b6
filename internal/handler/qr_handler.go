package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mediscan/internal/qrcode"
)

// QRHandler serves the scan-to-open view
type QRHandler struct {
	generator *qrcode.Generator
}

// NewQRHandler creates a handler around g
func NewQRHandler(g *qrcode.Generator) *QRHandler {
	return &QRHandler{generator: g}
}

// GetCode returns the QR image link for ?target=, or for the configured default address
func (h *QRHandler) GetCode(c echo.Context) error {
	return c.JSON(http.StatusOK, h.generator.Build(c.QueryParam("target")))
}
