package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	mid "mediscan/internal/middleware"
	"mediscan/internal/model"
	"mediscan/internal/search"
	"mediscan/pkg/jwtutil"
	"mediscan/pkg/logger"
)

// SearchRequest submits a query explicitly
type SearchRequest struct {
	Query string `json:"query"`
}

// InputRequest carries the raw search box text
type InputRequest struct {
	Value string `json:"value"`
}

// CategoryRequest selects a category code, label or "all"
type CategoryRequest struct {
	Category string `json:"category"`
}

// CreateSessionResponse is returned once per visitor
type CreateSessionResponse struct {
	SessionID string      `json:"session_id"`
	Token     string      `json:"token"`
	View      search.View `json:"view"`
}

// SessionHandler drives the per-visitor search sessions
type SessionHandler struct {
	store   *search.Store
	jwtUtil *jwtutil.JWTUtil
}

// NewSessionHandler creates a session handler
func NewSessionHandler(store *search.Store, jwtUtil *jwtutil.JWTUtil) *SessionHandler {
	return &SessionHandler{store: store, jwtUtil: jwtUtil}
}

// CreateSession starts a session and hands out the token that addresses it
func (h *SessionHandler) CreateSession(c echo.Context) error {
	log := logger.FromEcho(c)

	s := h.store.Create()
	token, err := h.jwtUtil.GenerateToken(s.ID)
	if err != nil {
		h.store.Remove(s.ID)
		log.Error("Failed to sign session token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create session"})
	}

	return c.JSON(http.StatusCreated, CreateSessionResponse{
		SessionID: s.ID,
		Token:     token,
		View:      s.Snapshot(),
	})
}

// Current returns the session's current view
func (h *SessionHandler) Current(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

// Search runs a search for the submitted query and returns the resulting view
func (h *SessionHandler) Search(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		logger.FromEcho(c).Warn("Invalid search request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	return c.JSON(http.StatusOK, s.TriggerSearch(c.Request().Context(), req.Query))
}

// Input records search box text; a blank box clears the query after the debounce period
func (h *SessionHandler) Input(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var req InputRequest
	if err := c.Bind(&req); err != nil {
		logger.FromEcho(c).Warn("Invalid input request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	s.InputChanged(req.Value)
	return c.JSON(http.StatusAccepted, echo.Map{"status": "accepted"})
}

// SetCategory changes the category filter
func (h *SessionHandler) SetCategory(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		logger.FromEcho(c).Warn("Invalid category request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	filter, err := model.ParseCategoryFilter(req.Category)
	if err != nil {
		logger.FromEcho(c).Warn("Unknown category", zap.String("category", req.Category))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, s.SetCategory(filter))
}

// Clear resets query, category and AI signal
func (h *SessionHandler) Clear(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.ClearFilters())
}

// End discards the session
func (h *SessionHandler) End(c echo.Context) error {
	id, ok := mid.SessionID(c)
	if !ok || !h.store.Remove(id) {
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// session resolves the authenticated session
func (h *SessionHandler) session(c echo.Context) (*search.Session, error) {
	id, ok := mid.SessionID(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Missing session")
	}

	s, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, search.ErrSessionNotFound) {
			logger.FromEcho(c).Info("Session expired or unknown", zap.String("session_id", id))
			return nil, echo.NewHTTPError(http.StatusNotFound, "Session not found")
		}
		return nil, err
	}
	return s, nil
}
