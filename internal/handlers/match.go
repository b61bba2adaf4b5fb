package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"betvex/internal/betting"
	"betvex/internal/cache"
	"betvex/internal/services"
	"betvex/internal/token"
)

// MatchHandler serves the match list and the leaderboard.
type MatchHandler struct {
	matches     *services.MatchService
	leaderboard *cache.Leaderboard
}

func NewMatchHandler(matches *services.MatchService, leaderboard *cache.Leaderboard) *MatchHandler {
	return &MatchHandler{
		matches:     matches,
		leaderboard: leaderboard,
	}
}

// GetMatches returns upcoming and live matches with derived odds.
// GET /api/matches
func (h *MatchHandler) GetMatches(c *gin.Context) {
	views, err := h.matches.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": views})
}

// QuoteWinnings returns the payout a prospective bet would lock in.
// POST /api/matches/potential-winnings
func (h *MatchHandler) QuoteWinnings(c *gin.Context) {
	var req struct {
		MatchID string `json:"matchId" binding:"required"`
		Team    string `json:"team" binding:"required"`
		Amount  string `json:"amount" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team := betting.Team(req.Team)
	if team != betting.Team1 && team != betting.Team2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "team must be Team1 or Team2"})
		return
	}

	quote, err := h.matches.QuoteWinnings(c.Request.Context(), req.MatchID, team, req.Amount)
	if err != nil {
		var invalid *token.ErrInvalidAmount
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
		case errors.Is(err, services.ErrMatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to compute winnings"})
		}
		return
	}

	c.JSON(http.StatusOK, quote)
}

// GetUserBets returns an account's bets bucketed for display.
// POST /api/bets
func (h *MatchHandler) GetUserBets(c *gin.Context) {
	var req struct {
		AccountID     string   `json:"accountId" binding:"required"`
		ClaimedBetIDs []string `json:"claimedBetIds"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	views, err := h.matches.UserBets(c.Request.Context(), req.AccountID, req.ClaimedBetIDs)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch bets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bets": views})
}

// GetLeaderboard returns the top winners.
// GET /api/leaderboard?limit=n
func (h *MatchHandler) GetLeaderboard(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	entries, err := h.leaderboard.Top(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
