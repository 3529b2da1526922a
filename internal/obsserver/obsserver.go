// Package obsserver implements the optional debug/observability
// WebSocket tap described in SPEC_FULL.md §4.9 (C10): it broadcasts one
// JSON frame per manager.Decision to any attached client, for watching
// a run in progress. It is off by default and is not the out-of-scope
// "API layer that exposes predictions" spec.md §1 excludes — it never
// reads occupancy state and cannot influence scheduling.
//
// Grounded on the teacher's server/hub_simulation.go and
// server/hub_suggestions.go: a Hub holding live connections, each
// connection with its own outbound pushChan drained by a writePump
// goroutine, so one slow reader can never block the Manager's run
// loop. Unlike the teacher's Hub, this one only ever pushes — it has
// no inbound Request/dispatch side, since the observer stream is
// read-only by design.
package obsserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/railvorhersage/predictengine/internal/manager"
)

var logger log.Logger

// InitializeLogger creates the logger for the obsserver module,
// matching the teacher's InitializeLogger(parentLogger) convention.
func InitializeLogger(parentLogger log.Logger) {
	logger = parentLogger.New("module", "obsserver")
}

func init() {
	logger = log.New("module", "obsserver")
}

const pushChanBuffer = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// frame is the wire shape of one broadcast event.
type frame struct {
	JourneyID string `json:"journeyId"`
	Admitted  bool   `json:"admitted"`
	ActionAt  string `json:"actionAt"`
	RetryAt   string `json:"retryAt,omitempty"`
}

type connection struct {
	id       string
	ws       *websocket.Conn
	pushChan chan frame
}

// Hub tracks live observer connections and fans decisions out to them.
type Hub struct {
	mu          sync.Mutex
	connections map[*connection]bool
}

// NewHub builds an empty Hub.
func NewHub() *Hub {
	return &Hub{connections: make(map[*connection]bool)}
}

// ServeWS upgrades r to a WebSocket and registers the resulting
// connection with the hub until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "submodule", "obsserver", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := &connection{id: uuid.NewString(), ws: ws, pushChan: make(chan frame, pushChanBuffer)}
	h.register(c)
	logger.Debug("Observer connected", "submodule", "obsserver", "conn", c.id, "remote", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	h.connections[c] = true
	h.mu.Unlock()
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.pushChan)
	}
	h.mu.Unlock()
	logger.Debug("Observer disconnected", "submodule", "obsserver", "conn", c.id)
}

// readPump does nothing but wait for the client to close the
// connection — the observer stream takes no input.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.ws.Close()
	}()
	c.ws.SetReadLimit(512)
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case f, ok := <-c.pushChan:
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(f)
			if err != nil {
				logger.Error("Failed to marshal observer frame", "submodule", "obsserver", "error", err)
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast pushes d to every connected observer, non-blocking: a slow
// reader only misses frames, it never stalls the Manager.
func (h *Hub) Broadcast(d manager.Decision) {
	f := frame{
		JourneyID: d.JourneyID,
		Admitted:  d.Admitted,
		ActionAt:  d.Action.Time.String(),
	}
	if d.RetryAt != nil {
		f.RetryAt = d.RetryAt.String()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections {
		select {
		case c.pushChan <- f:
		default:
		}
	}
}

// Listen starts a goroutine that reads Decisions from ch (typically a
// manager.Manager subscription) and broadcasts each to observers until
// ch is closed.
func (h *Hub) Listen(ch <-chan manager.Decision) {
	go func() {
		for d := range ch {
			h.Broadcast(d)
		}
	}()
}
