package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"betvex/internal/betting"
	"betvex/internal/indexer"
	"betvex/internal/token"
	"betvex/internal/ws"
)

// ErrMatchNotFound means the match id is not in the current snapshot or the
// indexer.
var ErrMatchNotFound = errors.New("match not found")

const matchSnapshotKey = "matches:snapshot"

// MatchView is a match enriched with derived odds for display.
type MatchView struct {
	betting.Match
	Team1Odds string `json:"team_1_odds"`
	Team2Odds string `json:"team_2_odds"`
}

// MatchService reads matches from the indexer, keeps a Redis snapshot warm
// and pushes odds updates to websocket subscribers.
type MatchService struct {
	indexer *indexer.Client
	redis   *redis.Client
	hub     *ws.Hub
	log     *zap.Logger
}

func NewMatchService(indexerClient *indexer.Client, redisClient *redis.Client, hub *ws.Hub, log *zap.Logger) *MatchService {
	return &MatchService{
		indexer: indexerClient,
		redis:   redisClient,
		hub:     hub,
		log:     log,
	}
}

// Refresh pulls upcoming and live matches from the indexer, stores the
// snapshot and broadcasts per-match odds.
func (s *MatchService) Refresh(ctx context.Context) error {
	matches, err := s.indexer.Matches(ctx, []betting.MatchState{betting.MatchFuture, betting.MatchCurrent})
	if err != nil {
		return fmt.Errorf("failed to fetch matches: %w", err)
	}

	views := make([]MatchView, 0, len(matches))
	for i := range matches {
		m := matches[i]
		view := MatchView{Match: m}

		t1, t2, err := betting.Odds(&m)
		if err != nil {
			s.log.Warn("skipping match with invalid totals",
				zap.String("match_id", m.ID),
				zap.Error(err),
			)
			continue
		}
		view.Team1Odds = t1.String()
		view.Team2Odds = t2.String()
		views = append(views, view)

		if s.hub != nil {
			s.hub.Broadcast(ws.OddsUpdate{
				MatchID:    m.ID,
				MatchState: string(m.MatchState),
				Team1Odds:  view.Team1Odds,
				Team2Odds:  view.Team2Odds,
				Team1Total: m.Team1TotalBets,
				Team2Total: m.Team2TotalBets,
			})
		}
	}

	if s.redis != nil {
		snapshot, err := json.Marshal(views)
		if err != nil {
			return err
		}
		if err := s.redis.Set(ctx, matchSnapshotKey, snapshot, 0).Err(); err != nil {
			s.log.Warn("failed to store match snapshot", zap.Error(err))
		}
	}

	return nil
}

// List returns the cached snapshot, falling back to the indexer when the
// cache is cold.
func (s *MatchService) List(ctx context.Context) ([]MatchView, error) {
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, matchSnapshotKey).Result()
		if err == nil {
			var views []MatchView
			if err := json.Unmarshal([]byte(raw), &views); err == nil {
				return views, nil
			}
		} else if err != redis.Nil {
			s.log.Warn("failed to read match snapshot", zap.Error(err))
		}
	}

	matches, err := s.indexer.Matches(ctx, []betting.MatchState{betting.MatchFuture, betting.MatchCurrent})
	if err != nil {
		return nil, err
	}

	views := make([]MatchView, 0, len(matches))
	for i := range matches {
		m := matches[i]
		view := MatchView{Match: m}
		if t1, t2, err := betting.Odds(&m); err == nil {
			view.Team1Odds = t1.String()
			view.Team2Odds = t2.String()
		}
		views = append(views, view)
	}

	return views, nil
}

// WinningsQuote is the payout a prospective bet would lock in at current
// totals.
type WinningsQuote struct {
	MatchID           string `json:"match_id"`
	Team              string `json:"team"`
	BetAmount         string `json:"bet_amount"`
	PotentialWinnings string `json:"potential_winnings"`
	// Display is the payout formatted in whole USDC for the UI.
	Display string `json:"display"`
}

// QuoteWinnings computes the potential winnings for a prospective bet.
// betAmount is a USDC base-unit integer string, validated before any math.
func (s *MatchService) QuoteWinnings(ctx context.Context, matchID string, team betting.Team, betAmount string) (*WinningsQuote, error) {
	if err := token.ValidateBaseAmount(betAmount, token.USDC, ""); err != nil {
		return nil, err
	}

	views, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range views {
		if views[i].ID != matchID {
			continue
		}

		winnings, err := betting.PotentialWinnings(&views[i].Match, team, betAmount)
		if err != nil {
			return nil, err
		}

		display, err := token.FromBaseUnits(winnings, token.USDC)
		if err != nil {
			return nil, err
		}

		return &WinningsQuote{
			MatchID:           matchID,
			Team:              string(team),
			BetAmount:         betAmount,
			PotentialWinnings: winnings,
			Display:           display,
		}, nil
	}

	return nil, ErrMatchNotFound
}

// BetView is a bet with its display bucket attached.
type BetView struct {
	betting.Bet
	Category betting.Category `json:"category"`
}

// UserBets fetches an account's bets, joins them against the full match list
// and buckets each for display. claimedThisSession carries the bet ids the
// client claimed since loading, so a just-claimed bet lands in history
// without waiting for the contract state.
func (s *MatchService) UserBets(ctx context.Context, accountID string, claimedThisSession []string) ([]BetView, error) {
	bets, err := s.indexer.Bets(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bets: %w", err)
	}
	if len(bets) == 0 {
		return []BetView{}, nil
	}

	matches, err := s.indexer.Matches(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}
	byID := make(map[string]*betting.Match, len(matches))
	for i := range matches {
		byID[matches[i].ID] = &matches[i]
	}

	claimed := make(map[string]bool, len(claimedThisSession))
	for _, id := range claimedThisSession {
		claimed[id] = true
	}

	views := make([]BetView, 0, len(bets))
	for i := range bets {
		match, ok := byID[bets[i].MatchID]
		if !ok {
			// A bet on a match the indexer no longer returns cannot be
			// resolved; surface it in the error bucket.
			views = append(views, BetView{Bet: bets[i], Category: betting.CategoryError})
			continue
		}
		views = append(views, BetView{
			Bet:      bets[i],
			Category: betting.Categorize(&bets[i], match, claimed),
		})
	}

	return views, nil
}
