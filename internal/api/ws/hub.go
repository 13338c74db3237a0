package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/molx/internal/domain/app"
	"github.com/GriffinCanCode/molx/internal/domain/tracker"
	"github.com/GriffinCanCode/molx/internal/domain/viewer"
	"github.com/GriffinCanCode/molx/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/molx/internal/shared/id"
	"github.com/GriffinCanCode/molx/internal/shared/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the HTTP middleware
	},
}

// Backend is what stream clients can query and drive.
type Backend interface {
	State(ctx context.Context) app.State
	Dispatch(ctx context.Context, kind, ref string) error
}

// Hub fans viewer flags, status and notifications out to every connected
// client. It implements app.Broadcaster.
type Hub struct {
	logger  *zap.Logger
	metrics *monitoring.Metrics
	backend Backend

	mu      sync.RWMutex
	clients map[id.ClientID]*client
	closed  bool
}

var _ app.Broadcaster = (*Hub)(nil)

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[id.ClientID]*client),
	}
}

// WithMetrics adds metrics collection to the hub
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// Bind sets the backend used for initial state and client events.
// The hub is created before the app manager, so binding happens after.
func (h *Hub) Bind(b Backend) *Hub {
	h.mu.Lock()
	h.backend = b
	h.mu.Unlock()
	return h
}

// Notify implements app.Broadcaster
func (h *Hub) Notify(n types.Notification) {
	h.broadcast(types.WSTypeNotification, n)
}

// Flags implements app.Broadcaster
func (h *Hub) Flags(f tracker.Flags) {
	h.broadcast(types.WSTypeFlags, f)
}

// Status implements app.Broadcaster
func (h *Hub) Status(s viewer.Status) {
	h.broadcast(types.WSTypeStatus, s)
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msgType string, payload interface{}) {
	frame, err := encode(types.WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Error("Failed to encode stream message", zap.String("type", msgType), zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		targets = append(targets, cl)
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		if cl.enqueue(frame) {
			h.metrics.RecordWSMessage("out", msgType)
			continue
		}
		h.logger.Warn("Dropping slow stream client", zap.String("client_id", cl.id.String()))
		h.remove(cl)
	}
}

// HandleConnection upgrades the request and serves the client until it disconnects.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   id.NewClientID(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	if !h.add(cl) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	log := h.logger.With(zap.String("client_id", cl.id.String()))
	log.Debug("Stream client connected")

	h.sendTo(cl, types.WSMessage{Type: types.WSTypeSystem, Message: "Connected to molx", Payload: gin.H{"client_id": cl.id}})
	if b := h.getBackend(); b != nil {
		h.sendTo(cl, types.WSMessage{Type: types.WSTypeState, Payload: b.State(c.Request.Context())})
	}

	go cl.writePump()
	h.readPump(c.Request.Context(), cl, log)

	h.remove(cl)
	log.Debug("Stream client disconnected")
}

func (h *Hub) readPump(ctx context.Context, cl *client, log *zap.Logger) {
	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg types.WSClientMessage
		if err := sonic.ConfigStd.Unmarshal(data, &msg); err != nil {
			h.sendError(cl, "malformed message")
			continue
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case types.WSTypePing:
			h.sendTo(cl, types.WSMessage{Type: types.WSTypePong})
		case types.WSTypeEvent:
			b := h.getBackend()
			if b == nil {
				h.sendError(cl, "viewer unavailable")
				continue
			}
			if err := b.Dispatch(ctx, msg.Kind, msg.Ref); err != nil {
				h.sendError(cl, err.Error())
			}
		case types.WSTypeState:
			if b := h.getBackend(); b != nil {
				h.sendTo(cl, types.WSMessage{Type: types.WSTypeState, Payload: b.State(ctx)})
			}
		default:
			h.sendError(cl, "unknown message type")
		}
	}
}

func (h *Hub) sendTo(cl *client, msg types.WSMessage) {
	frame, err := encode(msg)
	if err != nil {
		h.logger.Error("Failed to encode stream message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	if cl.enqueue(frame) {
		h.metrics.RecordWSMessage("out", msg.Type)
	}
}

func (h *Hub) sendError(cl *client, message string) {
	h.sendTo(cl, types.WSMessage{Type: types.WSTypeError, Message: message})
}

func (h *Hub) getBackend() Backend {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.backend
}

func (h *Hub) add(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl.id] = cl
	h.metrics.IncWSConnections()
	return true
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl.id]
	delete(h.clients, cl.id)
	h.mu.Unlock()

	if ok {
		h.metrics.DecWSConnections()
		cl.close()
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[id.ClientID]*client)
	h.mu.Unlock()

	for _, cl := range clients {
		h.metrics.DecWSConnections()
		cl.close()
	}
}

func encode(msg types.WSMessage) ([]byte, error) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	return sonic.ConfigStd.Marshal(msg)
}
