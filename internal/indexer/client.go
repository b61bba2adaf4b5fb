package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"betvex/internal/betting"
)

// Client talks to the GraphQL indexing service that owns match documents.
type Client struct {
	httpClient  *http.Client
	endpointURL string
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

func NewClient(endpointURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpointURL: endpointURL,
	}
}

// do posts one GraphQL request and returns the upstream body verbatim.
func (c *Client) do(ctx context.Context, greq graphqlRequest) (json.RawMessage, error) {
	body, err := json.Marshal(greq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach indexer: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexer response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indexer error: %d - %s", resp.StatusCode, string(raw))
	}

	return json.RawMessage(raw), nil
}

// query runs a request, checks the response envelope for GraphQL errors and
// decodes the data payload into out.
func (c *Client) query(ctx context.Context, greq graphqlRequest, out interface{}) error {
	raw, err := c.do(ctx, greq)
	if err != nil {
		return err
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(raw, &gqlResp); err != nil {
		return fmt.Errorf("failed to decode indexer response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return fmt.Errorf("indexer query error: %s", gqlResp.Errors[0].Message)
	}

	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return fmt.Errorf("failed to decode indexer data: %w", err)
	}
	return nil
}

// Query forwards a raw GraphQL document to the indexer and returns the
// upstream response body verbatim, GraphQL errors included. Used by the
// /api/gql proxy route.
func (c *Client) Query(ctx context.Context, query string) (json.RawMessage, error) {
	return c.do(ctx, graphqlRequest{Query: query})
}

const matchesQuery = `
query Matches($states: [String!]) {
  matches(where: {match_state_in: $states}, order_by: {date_timestamp: asc}) {
    id
    game
    date_timestamp
    team_1
    team_2
    team_1_total_bets
    team_2_total_bets
    match_state
    winner
  }
}`

// Matches fetches matches in the given states. Empty states fetches all.
func (c *Client) Matches(ctx context.Context, states []betting.MatchState) ([]betting.Match, error) {
	vars := map[string]interface{}{}
	if len(states) > 0 {
		ss := make([]string, len(states))
		for i, s := range states {
			ss[i] = string(s)
		}
		vars["states"] = ss
	}

	var data struct {
		Matches []betting.Match `json:"matches"`
	}
	if err := c.query(ctx, graphqlRequest{Query: matchesQuery, Variables: vars}, &data); err != nil {
		return nil, err
	}

	return data.Matches, nil
}

const betsQuery = `
query Bets($bettor: String!) {
  bets(where: {bettor: $bettor}, order_by: {betId: desc}) {
    betId
    match_id
    team
    bet_amount
    potential_winnings
    pay_state
  }
}`

// Bets fetches every bet placed by an account.
func (c *Client) Bets(ctx context.Context, accountID string) ([]betting.Bet, error) {
	var data struct {
		Bets []betting.Bet `json:"bets"`
	}
	err := c.query(ctx, graphqlRequest{
		Query:     betsQuery,
		Variables: map[string]interface{}{"bettor": accountID},
	}, &data)
	if err != nil {
		return nil, err
	}

	return data.Bets, nil
}
