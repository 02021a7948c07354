package trainlive

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"denseforge/internal/runstore"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades incoming connections and replays a run's history before
// streaming live epochs.
type Handler struct {
	hub   *Hub
	store *runstore.Store
	runID string
}

// NewHandler returns a Handler serving runID's dashboard.
func NewHandler(hub *Hub, store *runstore.Store, runID string) *Handler {
	return &Handler{hub: hub, store: store, runID: runID}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("trainlive: upgrade error: %v", err)
		return
	}

	client := &Client{hub: h.hub, conn: conn, send: make(chan []byte, 256)}

	h.hub.Register(client)
	go client.writePump()

	h.sendHistory(client)
	h.readPump(client)
}

func (h *Handler) sendHistory(c *Client) {
	// A freshly connected client has seen nothing yet, so it replays
	// everything after epoch -1 — the same path a reconnecting client
	// would use to catch up on only what it missed.
	entries := h.store.Since(h.runID, -1)
	payload := HistoryPayload{RunID: h.runID, Entries: make([]EpochPayload, len(entries))}
	for i, e := range entries {
		payload.Entries[i] = EpochPayload{RunID: h.runID, Epoch: e.Epoch, Loss: e.Loss}
	}

	msg, err := NewEnvelope(TypeHistory, payload)
	if err != nil {
		log.Printf("trainlive: marshaling history: %v", err)
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// runSummary is one tracked run's ID and most recent epoch.
type runSummary struct {
	RunID       string `json:"run_id"`
	LatestEpoch int    `json:"latest_epoch"`
}

// IndexHandler serves a JSON summary of every run the store has seen,
// letting a dashboard discover which run IDs it can open a websocket for.
type IndexHandler struct {
	store *runstore.Store
}

// NewIndexHandler returns an IndexHandler reading from store.
func NewIndexHandler(store *runstore.Store) *IndexHandler {
	return &IndexHandler{store: store}
}

func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	runs := h.store.Runs()
	summaries := make([]runSummary, len(runs))
	for i, id := range runs {
		summaries[i] = runSummary{RunID: id, LatestEpoch: h.store.LatestEpoch(id)}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		log.Printf("trainlive: encoding run index: %v", err)
	}
}

// readPump drains a client's read side so its connection close is
// detected. The dashboard is read-only: any inbound message is ignored.
func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("trainlive: read error: %v", err)
			}
			return
		}
	}
}
