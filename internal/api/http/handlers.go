package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/navcore/internal/domain/callback"
	"github.com/GriffinCanCode/navcore/internal/domain/navigation"
	"github.com/GriffinCanCode/navcore/internal/domain/session"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	dispatcher *navigation.Dispatcher
	callbacks  *callback.Manager
	sessions   *session.Manager
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	started    time.Time
}

// NewHandlers creates a new handler set. sessions may be nil when storage is
// disabled.
func NewHandlers(
	dispatcher *navigation.Dispatcher,
	callbacks *callback.Manager,
	sessions *session.Manager,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		dispatcher: dispatcher,
		callbacks:  callbacks,
		sessions:   sessions,
		metrics:    metrics,
		logger:     logger,
		started:    time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/navigation/types", h.ListTypes)
	r.GET("/navigation/opened", h.ListOpened)
	r.GET("/navigation/opened/:type", h.GetOpened)
	r.GET("/callbacks", h.ListCallbacks)

	r.GET("/sessions", h.ListSessions)
	r.POST("/sessions", h.SaveSession)
	r.GET("/sessions/:id", h.GetSession)
	r.DELETE("/sessions/:id", h.DeleteSession)
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "navcore",
		"version": Version,
	})
}

// Health reports the state of every component
func (h *Handlers) Health(c *gin.Context) {
	h.metrics.UpdateUptime()

	sessions := gin.H{"enabled": false}
	if h.sessions != nil {
		sessions = gin.H{"enabled": true, "stats": h.sessions.Stats()}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"registry": gin.H{
			"open_types": len(h.dispatcher.OpenTypes()),
			"tracked":    h.dispatcher.Registry().Tracked(),
		},
		"callbacks":   gin.H{"pending": h.callbacks.Len()},
		"subscribers": h.dispatcher.Subscribers(),
		"sessions":    sessions,
		"navigations": h.metrics.Snapshot(),
	})
}

// ListCallbacks reports operation callbacks awaiting a result
func (h *Handlers) ListCallbacks(c *gin.Context) {
	byOperation := make(map[string]int)
	for op, n := range h.callbacks.ByOperation() {
		byOperation[string(op)] = n
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":      h.callbacks.Len(),
		"by_operation": byOperation,
	})
}
