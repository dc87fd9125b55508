package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kanban-sync/internal/dto"
	"kanban-sync/internal/metrics"
	"kanban-sync/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamMessage is one frame pushed to a stream client
type StreamMessage struct {
	Type string             `json:"type"`
	Data *dto.StateResponse `json:"data,omitempty"`
}

// StreamHandler pushes the board state over a websocket after every change
type StreamHandler struct {
	sessionService service.SessionService
	boardService   service.BoardService
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// NewStreamHandler creates a stream handler. m may be nil.
func NewStreamHandler(sessionService service.SessionService, boardService service.BoardService, m *metrics.Metrics, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		sessionService: sessionService,
		boardService:   boardService,
		metrics:        m,
		logger:         logger,
	}
}

// Stream upgrades the connection and follows the active session's engine.
// The stream closes when the session ends or changes user.
func (h *StreamHandler) Stream(c *gin.Context) {
	engine, err := h.sessionService.Engine()
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	signals, unsubscribe := engine.Subscribe()
	defer unsubscribe()

	if h.metrics != nil {
		h.metrics.StreamOpened()
		defer h.metrics.StreamClosed()
	}

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, engine, signals, done)
}

// readPump consumes control frames and detects the client going away
func (h *StreamHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Stream client error", zap.Error(err))
			}
			return
		}
	}
}

func (h *StreamHandler) writePump(conn *websocket.Conn, engine *service.SyncEngine, signals <-chan struct{}, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	if !h.sendState(conn) {
		return
	}

	for {
		select {
		case <-done:
			return

		case <-signals:
			if current, err := h.sessionService.Engine(); err != nil || current != engine {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if !h.sendState(conn) {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) sendState(conn *websocket.Conn) bool {
	view, err := h.boardService.View(context.Background())
	if err != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
		return false
	}

	state := dto.NewStateResponse(view)
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(StreamMessage{Type: "state", Data: &state}); err != nil {
		h.logger.Debug("Stream write failed", zap.Error(err))
		return false
	}
	return true
}
