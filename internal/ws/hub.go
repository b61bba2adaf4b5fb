package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds how long a single frame write may take.
	writeWait = 5 * time.Second
	// sendBuffer is the per-connection outbound queue; a client that falls
	// further behind starts losing updates instead of blocking the hub.
	sendBuffer = 16
)

// OddsUpdate is pushed to subscribers whenever the sync job refreshes a
// match's totals. Odds are decimal strings, totals USDC base units.
type OddsUpdate struct {
	Type       string `json:"type"`
	MatchID    string `json:"match_id"`
	MatchState string `json:"match_state"`
	Team1Odds  string `json:"team_1_odds"`
	Team2Odds  string `json:"team_2_odds"`
	Team1Total string `json:"team_1_total_bets"`
	Team2Total string `json:"team_2_total_bets"`
}

type clientMsg struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id"`
}

// subscriber owns one connection's outbound side. All frames go through the
// send channel so there is exactly one writer per connection.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// enqueue hands a frame to the write loop without blocking. A full queue
// means the client is not keeping up; the frame is dropped.
func (s *subscriber) enqueue(msg []byte) {
	select {
	case s.send <- msg:
	default:
	}
}

func (s *subscriber) writeLoop() {
	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// Hub tracks WebSocket connections and their per-match subscriptions.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// matchID -> set of subscribers
	subs map[string]map[*subscriber]struct{}
}

func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*subscriber]struct{}),
	}
}

// HandleWS owns one connection's lifecycle: clients subscribe and
// unsubscribe to match ids and get pong replies to pings.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	go sub.writeLoop()

	defer func() {
		h.mu.Lock()
		for id, set := range h.subs {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, id)
			}
		}
		h.mu.Unlock()
		close(sub.done)
		conn.Close()
	}()

	pong, _ := json.Marshal(map[string]string{"type": "pong"})

	for {
		var msg clientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.MatchID]; !ok {
				h.subs[msg.MatchID] = make(map[*subscriber]struct{})
			}
			h.subs[msg.MatchID][sub] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if set, ok := h.subs[msg.MatchID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, msg.MatchID)
				}
			}
			h.mu.Unlock()
		case "ping":
			sub.enqueue(pong)
		}
	}
}

// Broadcast pushes an odds update to every connection subscribed to the
// match. The subscriber set is copied under the read lock; the actual frame
// delivery happens through each connection's write loop, so a slow or
// stalled client never blocks the caller.
func (h *Hub) Broadcast(update OddsUpdate) {
	h.mu.RLock()
	set := h.subs[update.MatchID]
	targets := make([]*subscriber, 0, len(set))
	for s := range set {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	update.Type = "odds_update"
	b, _ := json.Marshal(update)
	for _, s := range targets {
		s.enqueue(b)
	}
}
