package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"mediscan/pkg/logger"
)

// ErrorHandler renders every error as {"error": "..."}. Internal errors are
// logged and reported without detail.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Internal != nil {
			logger.FromEcho(c).Debug("HTTP error", zap.Error(he.Internal))
		}
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = fmt.Sprint(he.Message)
		}
	} else {
		logger.FromEcho(c).Error("Unhandled error", zap.Error(err))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, echo.Map{"error": message})
	}
	if writeErr != nil {
		logger.FromEcho(c).Error("Failed to write error response", zap.Error(writeErr))
	}
}
