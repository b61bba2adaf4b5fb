package indexer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"betvex/internal/betting"
)

func TestMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var req graphqlRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		states, ok := req.Variables["states"].([]interface{})
		if !ok || len(states) != 2 {
			t.Errorf("expected two match states, got %v", req.Variables["states"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"matches": [
					{
						"id": "Furia-Natus_Vincere-1700000000",
						"game": "csgo",
						"date_timestamp": 1700000000,
						"team_1": "Furia",
						"team_2": "Natus Vincere",
						"team_1_total_bets": "100000000",
						"team_2_total_bets": "250000000",
						"match_state": "Future"
					}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	matches, err := client.Matches(context.Background(), []betting.MatchState{betting.MatchFuture, betting.MatchCurrent})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	m := matches[0]
	if m.ID != "Furia-Natus_Vincere-1700000000" {
		t.Errorf("id = %q", m.ID)
	}
	if m.MatchState != betting.MatchFuture {
		t.Errorf("state = %q", m.MatchState)
	}
	if m.Team1TotalBets != "100000000" {
		t.Errorf("team 1 total = %q", m.Team1TotalBets)
	}
}

func TestMatchesGraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors": [{"message": "field matches not found"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Matches(context.Background(), nil); err == nil {
		t.Error("expected error from graphql errors payload")
	}
}

func TestBets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var req graphqlRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Variables["bettor"] != "alice.users.betvex.testnet" {
			t.Errorf("bettor = %v", req.Variables["bettor"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"bets": [
					{
						"betId": "7",
						"match_id": "m1",
						"team": "Team1",
						"bet_amount": "10000000",
						"potential_winnings": "24200000"
					}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	bets, err := client.Bets(context.Background(), "alice.users.betvex.testnet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bets) != 1 {
		t.Fatalf("got %d bets, want 1", len(bets))
	}
	if bets[0].BetID != "7" || bets[0].Team != betting.Team1 {
		t.Errorf("unexpected bet: %+v", bets[0])
	}
}

func TestQueryPassesThroughBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"users":[]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	raw, err := client.Query(context.Background(), "query { users { id } }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"data":{"users":[]}}` {
		t.Errorf("body = %s", raw)
	}
}

func TestQueryUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Query(context.Background(), "query { users { id } }"); err == nil {
		t.Error("expected error on upstream 500")
	}
}
