package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/domain"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// wsEvent is one message on the live prediction feed.
type wsEvent struct {
	Type       string                      `json:"type"`
	Prediction *domain.PersistedPrediction `json:"prediction"`
}

type wsClient struct {
	userID string
	send   chan []byte
}

// Hub fans saved predictions out to connected WebSocket subscribers.
// Each subscriber only receives their own predictions. Implements
// predictor.Notifier; PredictionSaved never blocks the caller.
type Hub struct {
	log        *logrus.Logger
	register   chan *wsClient
	unregister chan *wsClient
	events     chan *domain.PersistedPrediction
	clients    map[*wsClient]bool
}

// NewHub creates a prediction feed hub. Run must be started for the
// hub to deliver anything.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		log:        logger,
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		events:     make(chan *domain.PersistedPrediction, 64),
		clients:    make(map[*wsClient]bool),
	}
}

// Run dispatches events until the context is cancelled.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
		case p := <-h.events:
			h.broadcast(p)
		case <-done:
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*wsClient]bool)
			return
		}
	}
}

// PredictionSaved queues a saved prediction for delivery. Drops the
// event when the hub is backlogged rather than stalling the pipeline.
func (h *Hub) PredictionSaved(p *domain.PersistedPrediction) {
	select {
	case h.events <- p:
	default:
		h.log.Warn("Prediction feed backlogged, event dropped")
	}
}

func (h *Hub) broadcast(p *domain.PersistedPrediction) {
	payload, err := json.Marshal(wsEvent{Type: "prediction_saved", Prediction: p})
	if err != nil {
		h.log.WithError(err).Error("Failed to encode feed event")
		return
	}
	for client := range h.clients {
		if client.userID != p.UserID {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Slow consumer, disconnect instead of buffering forever.
			delete(h.clients, client)
			close(client.send)
		}
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleFeed upgrades the connection and subscribes the caller to
// their own prediction feed.
func (s *Server) handleFeed(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &wsClient{
		userID: userID(c),
		send:   make(chan []byte, 16),
	}
	s.hub.register <- client

	go s.writePump(conn, client)
	go s.readPump(conn, client)
}

func (s *Server) writePump(conn *websocket.Conn, client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains and discards client messages so pings/pongs and
// close frames are processed.
func (s *Server) readPump(conn *websocket.Conn, client *wsClient) {
	defer func() {
		s.hub.unregister <- client
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
