package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bretbouchard/sandbox/internal/infrastructure/monitoring"
	"github.com/bretbouchard/sandbox/internal/shared/paths"
	"github.com/bretbouchard/sandbox/internal/workspace"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Handlers contains the workspace server's REST handlers
type Handlers struct {
	store   *workspace.Store
	sockets *workspace.Handler
	metrics *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(store *workspace.Store, sockets *workspace.Handler, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{store: store, sockets: sockets, metrics: metrics}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "sandbox workspace",
		"version": Version,
	})
}

// Health handles the detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"store":       h.store.Stats(),
		"connections": h.sockets.Connections(),
		"metrics":     h.metrics.Snapshot(),
	})
}

// Tree returns a sandbox's file tree
func (h *Handlers) Tree(c *gin.Context) {
	sandboxID := c.Param("sandbox")
	if err := paths.ValidateSegment("sandbox", sandboxID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tree": h.store.Tree(sandboxID)})
}

// File returns one file's content
func (h *Handlers) File(c *gin.Context) {
	sandboxID := c.Param("sandbox")
	if err := paths.ValidateSegment("sandbox", sandboxID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	content, err := h.store.Get(sandboxID, id)
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workspace.ErrIsFolder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"id": id, "content": content})
	}
}
