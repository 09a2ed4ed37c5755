package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/navcore/internal/domain/session"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/resilience"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sessionsEnabled writes 503 when no session manager is configured
func (h *Handlers) sessionsEnabled(c *gin.Context) bool {
	if h.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session storage is disabled"})
		return false
	}
	return true
}

// sessionError maps a session error to a response
func (h *Handlers) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSnapshotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Session request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// SaveSession snapshots the current opened layout
func (h *Handlers) SaveSession(c *gin.Context) {
	if !h.sessionsEnabled(c) {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ValidateName(req.Name, "name"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.sessions.Save(c.Request.Context(), req.Name)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"session": snapshot.Metadata(),
	})
}

// ListSessions lists saved snapshots
func (h *Handlers) ListSessions(c *gin.Context) {
	if !h.sessionsEnabled(c) {
		return
	}

	list, err := h.sessions.List(c.Request.Context())
	if err != nil {
		h.sessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": list,
		"stats":    h.sessions.Stats(),
	})
}

// GetSession returns one snapshot with its entries
func (h *Handlers) GetSession(c *gin.Context) {
	if !h.sessionsEnabled(c) {
		return
	}

	sessionID := c.Param("id")
	if err := ValidateID(sessionID, "session_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.sessions.Load(c.Request.Context(), sessionID)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": snapshot})
}

// DeleteSession removes a snapshot
func (h *Handlers) DeleteSession(c *gin.Context) {
	if !h.sessionsEnabled(c) {
		return
	}

	sessionID := c.Param("id")
	if err := ValidateID(sessionID, "session_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
		h.sessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
