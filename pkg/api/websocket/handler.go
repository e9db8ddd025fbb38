package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/aescanero/coyote/pkg/adapters/events/memory"
	"github.com/aescanero/coyote/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *memory.Hub
	registry *metrics.Registry
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *memory.Hub, registry *metrics.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		registry: registry,
		logger:   logger,
	}
}

// HandleSnapshotStream streams metrics snapshots to the client
func (h *Handler) HandleSnapshotStream(c *gin.Context) {
	// Upgrade connection
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("client", c.ClientIP()))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	snapshots := h.hub.Subscribe(ctx)

	// The client never sends data; reading detects when it goes away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, h.registry.Snapshot()); err != nil {
		h.logger.Warn("failed to write snapshot", zap.Error(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}

			if err := h.write(conn, snapshot); err != nil {
				h.logger.Warn("failed to write snapshot", zap.Error(err))
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, snapshot *metrics.Snapshot) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(snapshot)
}
