package http

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aescanero/coyote/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/vmihailenco/msgpack/v5"
)

const msgpackContentType = "application/msgpack"

// HealthResponse represents a health check response
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// handleHealth reports whether the service still admits requests
func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	if s.guard.Stopping() {
		resp.Status = "stopping"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleConfig renders the effective configuration
func (s *Server) handleConfig(c *gin.Context) {
	if s.renderConfig == nil {
		writeError(c, s.logger, domain.NewResourceNotAvailable("configuration is not available"))
		return
	}

	data, err := s.renderConfig()
	if err != nil {
		writeError(c, s.logger, err)
		return
	}

	c.Data(http.StatusOK, "application/yaml", data)
}

// handlePut stores the request body under the path parameter. With
// If-None-Match: * an existing resource is left untouched and the request
// fails with a conflict.
func (s *Server) handlePut(c *gin.Context) {
	param := c.Param("param")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, s.logger, domain.NewOperationFailed("failed to read request body", err))
		return
	}

	store := s.resources.Put
	if c.GetHeader("If-None-Match") == "*" {
		store = s.resources.Create
	}

	if err := store(c.Request.Context(), param, body); err != nil {
		writeError(c, s.logger, err)
		return
	}

	c.String(http.StatusOK, "put a %s", param)
}

// handleGet returns the value stored under the path parameter
func (s *Server) handleGet(c *gin.Context) {
	param := c.Param("param")

	value, err := s.resources.Get(c.Request.Context(), param)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", value)
}

// handleDelete removes the value stored under the path parameter
func (s *Server) handleDelete(c *gin.Context) {
	param := c.Param("param")

	if err := s.resources.Delete(c.Request.Context(), param); err != nil {
		writeError(c, s.logger, err)
		return
	}

	c.String(http.StatusOK, "deleted %s", param)
}

// handleMetrics renders a registry snapshot as JSON or MessagePack
func (s *Server) handleMetrics(c *gin.Context) {
	snapshot := s.metrics.Registry().Snapshot()

	if !wantsMsgpack(c) {
		c.JSON(http.StatusOK, snapshot)
		return
	}

	data, err := msgpack.Marshal(snapshot)
	if err != nil {
		writeError(c, s.logger, domain.NewOperationFailed("failed to encode snapshot", err))
		return
	}
	c.Data(http.StatusOK, msgpackContentType, data)
}

func wantsMsgpack(c *gin.Context) bool {
	if c.Query("format") == "msgpack" {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), msgpackContentType)
}
