package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	hub := NewHub(func(r *http.Request) bool { return true })
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(server.Close)
	return hub, server
}

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForSubscribers blocks until the match has the expected subscriber
// count; subscription messages are processed asynchronously.
func waitForSubscribers(t *testing.T, hub *Hub, matchID string, want int) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		got := len(hub.subs[matchID])
		hub.mu.RUnlock()
		if got == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("subscriber count for %q never reached %d", matchID, want)
}

func TestSubscribeReceivesBroadcast(t *testing.T) {
	hub, server := newTestHub(t)
	conn := dialHub(t, server)

	if err := conn.WriteJSON(clientMsg{Type: "subscribe", MatchID: "m1"}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	waitForSubscribers(t, hub, "m1", 1)

	hub.Broadcast(OddsUpdate{
		MatchID:   "m1",
		Team1Odds: "3.85",
		Team2Odds: "1.3167",
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var update OddsUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if update.Type != "odds_update" {
		t.Errorf("type = %q, want odds_update", update.Type)
	}
	if update.MatchID != "m1" || update.Team1Odds != "3.85" {
		t.Errorf("unexpected update: %+v", update)
	}
}

func TestPingPong(t *testing.T) {
	_, server := newTestHub(t)
	conn := dialHub(t, server)

	if err := conn.WriteJSON(clientMsg{Type: "ping"}); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply map[string]string
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if reply["type"] != "pong" {
		t.Errorf("reply = %v, want pong", reply)
	}
}

// Broadcasting while another connection churns its subscription to the same
// match must not race on the subscriber map.
func TestBroadcastDuringSubscriptionChurn(t *testing.T) {
	hub, server := newTestHub(t)

	reader := dialHub(t, server)
	if err := reader.WriteJSON(clientMsg{Type: "subscribe", MatchID: "m1"}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	waitForSubscribers(t, hub, "m1", 1)

	go func() {
		for {
			if _, _, err := reader.ReadMessage(); err != nil {
				return
			}
		}
	}()

	churner := dialHub(t, server)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			hub.Broadcast(OddsUpdate{MatchID: "m1", Team1Odds: "2.0", Team2Odds: "2.0"})
		}
	}()

	for i := 0; i < 100; i++ {
		if err := churner.WriteJSON(clientMsg{Type: "subscribe", MatchID: "m1"}); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		if err := churner.WriteJSON(clientMsg{Type: "unsubscribe", MatchID: "m1"}); err != nil {
			t.Fatalf("unsubscribe failed: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast loop did not finish")
	}
}

// A subscriber that never reads must not block the broadcaster; its frames
// are dropped once the send queue fills.
func TestBroadcastDoesNotBlockOnStalledClient(t *testing.T) {
	hub, server := newTestHub(t)

	stalled := dialHub(t, server)
	if err := stalled.WriteJSON(clientMsg{Type: "subscribe", MatchID: "m1"}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	waitForSubscribers(t, hub, "m1", 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			hub.Broadcast(OddsUpdate{MatchID: "m1", Team1Odds: "2.0", Team2Odds: "2.0"})
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("broadcast blocked on a stalled client")
	}
}
