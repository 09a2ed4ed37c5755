package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/navcore/internal/domain/navigation"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/navcore/internal/shared/id"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is the wire form of a Navigated notification and of the few
// control messages the stream sends.
type Message struct {
	Type           string `json:"type"`
	ConnectionID   string `json:"connection_id,omitempty"`
	NavigationType string `json:"navigation_type,omitempty"`
	Mode           string `json:"mode,omitempty"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
	Canceled       bool   `json:"canceled"`
	Error          string `json:"error,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// clientMessage is what clients may send
type clientMessage struct {
	Type string `json:"type"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware does not apply to upgrades
	},
}

// Handler streams Navigated notifications to WebSocket clients
type Handler struct {
	dispatcher *navigation.Dispatcher
	buffer     int
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewHandler creates a stream handler. buffer is the per-client queue length;
// notifications are dropped for a client whose queue is full.
func NewHandler(dispatcher *navigation.Dispatcher, buffer int, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		dispatcher: dispatcher,
		buffer:     buffer,
		metrics:    metrics,
		logger:     logger,
	}
}

// HandleConnection upgrades the request and streams until the client leaves
func (h *Handler) HandleConnection(c *gin.Context) {
	modes, err := parseModes(c.Query("modes"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := id.NewStreamID().String()
	logger := h.logger.With(zap.String("connection_id", connID))

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	events := make(chan Message, h.buffer)
	unsubscribe := h.dispatcher.Subscribe(func(ev navigation.NavigatedEvent) {
		if modes != nil && !modes[ev.Context.Mode()] {
			return
		}
		if !offer(events, FromEvent(ev)) {
			h.metrics.RecordWSMessage("dropped")
		}
	})
	defer unsubscribe()

	replies := make(chan Message, 4)
	done := make(chan struct{})
	go h.read(conn, replies, done, logger)

	logger.Debug("Stream connected")
	if err := h.write(conn, Message{Type: "system", ConnectionID: connID, Timestamp: now()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var err error
		select {
		case msg := <-events:
			err = h.write(conn, msg)
		case msg := <-replies:
			err = h.write(conn, msg)
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = conn.WriteMessage(websocket.PingMessage, nil)
		case <-done:
			logger.Debug("Stream disconnected")
			return
		}
		if err != nil {
			logger.Debug("Stream write failed", zap.Error(err))
			return
		}
	}
}

// read handles client messages until the connection fails. It never writes;
// replies go through the writer loop.
func (h *Handler) read(conn *websocket.Conn, replies chan<- Message, done chan<- struct{}, logger *zap.Logger) {
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Stream read error", zap.Error(err))
			}
			return
		}

		var reply Message
		switch msg.Type {
		case "ping":
			reply = Message{Type: "pong", Timestamp: now()}
		default:
			reply = Message{Type: "error", Error: "unknown message type", Timestamp: now()}
		}
		offer(replies, reply)
	}
}

func (h *Handler) write(conn *websocket.Conn, msg Message) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.metrics.RecordWSMessage("failed")
		return err
	}
	h.metrics.RecordWSMessage("sent")
	return nil
}

// parseModes reads a comma separated mode filter. An empty filter yields nil,
// which passes every mode.
func parseModes(raw string) (map[navigation.Mode]bool, error) {
	if raw == "" {
		return nil, nil
	}
	modes := make(map[navigation.Mode]bool)
	for _, name := range strings.Split(raw, ",") {
		m, err := navigation.ParseMode(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		modes[m] = true
	}
	return modes, nil
}

// offer queues msg without blocking and reports whether it fit
func offer(ch chan<- Message, msg Message) bool {
	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}

// FromEvent converts a Navigated notification to its wire form
func FromEvent(ev navigation.NavigatedEvent) Message {
	nav := ev.Context
	msg := Message{
		Type:           "navigated",
		NavigationType: nav.Type().Key(),
		Mode:           nav.Mode().String(),
		From:           name(nav.ViewModelFrom()),
		To:             name(nav.ViewModelTo()),
		Canceled:       ev.Canceled,
		Timestamp:      now(),
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return msg
}

func name(vm navigation.ViewModel) string {
	if vm == nil {
		return ""
	}
	if v, ok := vm.(navigation.Identifiable); ok {
		return v.ID()
	}
	return ""
}

func now() int64 {
	return time.Now().UnixMilli()
}
