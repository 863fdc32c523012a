package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/susu3304/tweetguessr/internal/game"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same policy as the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// roundMessage is pushed to every socket watching a round.
type roundMessage struct {
	Type     game.EventType `json:"type"`
	RoundID  string         `json:"round_id"`
	PlayerID string         `json:"player_id,omitempty"`
	Clue     *game.Clue     `json:"clue,omitempty"`
	Result   *resultView    `json:"result,omitempty"`
}

type client struct {
	conn    *websocket.Conn
	roundID uuid.UUID
	send    chan []byte
}

// hub fans game events out to the sockets of each round.
type hub struct {
	game *game.Service
	log  logrus.FieldLogger

	mu      sync.Mutex
	clients map[uuid.UUID]map[*client]struct{}
}

func newHub(svc *game.Service, log logrus.FieldLogger) *hub {
	return &hub{
		game:    svc,
		log:     log,
		clients: make(map[uuid.UUID]map[*client]struct{}),
	}
}

func (h *hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.roundID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.roundID] = set
	}
	set[c] = struct{}{}
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop must be called with mu held.
func (h *hub) drop(c *client) {
	set, ok := h.clients[c.roundID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.roundID)
	}
}

func (h *hub) broadcast(roundID uuid.UUID, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[roundID] {
		select {
		case c.send <- msg:
		default:
			h.drop(c)
		}
	}
}

// start subscribes before returning so no event published afterwards is
// missed.
func (h *hub) start(ctx context.Context) {
	events, unsubscribe := h.game.Subscribe()
	go h.run(ctx, events, unsubscribe)
}

func (h *hub) run(ctx context.Context, events <-chan game.Event, unsubscribe func()) {
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			msg := roundMessage{Type: e.Type, RoundID: e.RoundID.String(), PlayerID: e.PlayerID, Clue: e.Clue}
			if e.Result != nil {
				msg.Result = newResultView(e.Result)
			}
			data, err := json.Marshal(msg)
			if err != nil {
				h.log.WithError(err).Error("Failed to encode round event")
				continue
			}
			h.broadcast(e.RoundID, data)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.drop(c)
		}
	}
}

// handleRoundSocket streams the events of one round. It is public since
// round events carry nothing a spectator may not see.
func (a *API) handleRoundSocket(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid round id")
		return
	}
	if _, err := a.game.Round(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	// Registered before the handshake completes; events queue in send.
	c := &client{roundID: id, send: make(chan []byte, sendBuffer)}
	a.hub.register(c)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.hub.unregister(c)
		a.log.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	c.conn = conn
	a.log.WithField("round", id).Debug("WebSocket connection registered")

	go c.writePump(a.log)
	go c.readPump(a.hub, a.log)
}

// readPump only services control frames; clients never send game input
// over the socket.
func (c *client) readPump(h *hub, log logrus.FieldLogger) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Debug("WebSocket read error")
			}
			return
		}
	}
}

func (c *client) writePump(log logrus.FieldLogger) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					log.WithError(err).Debug("Failed to write close message")
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
