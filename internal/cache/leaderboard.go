package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "leaderboard:winnings"

// Leaderboard keeps a Redis sorted set of lifetime winnings (USDC display
// units) for accounts that opted in. Accounts that toggle leaderboard_on off
// are removed.
type Leaderboard struct {
	client *redis.Client
}

// Entry is one leaderboard row.
type Entry struct {
	AccountID string  `json:"account_id"`
	Winnings  float64 `json:"winnings"`
	Rank      int     `json:"rank"`
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// AddWinnings increments an account's score.
func (l *Leaderboard) AddWinnings(ctx context.Context, accountID string, amount float64) error {
	return l.client.ZIncrBy(ctx, leaderboardKey, amount, accountID).Err()
}

// Remove drops an account from the board (leaderboard_on toggled off).
func (l *Leaderboard) Remove(ctx context.Context, accountID string) error {
	return l.client.ZRem(ctx, leaderboardKey, accountID).Err()
}

// Top returns the highest-winning accounts, best first.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		account, ok := row.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			AccountID: account,
			Winnings:  row.Score,
			Rank:      i + 1,
		})
	}

	return entries, nil
}

// Rank returns an account's rank and score, or a zero entry when unranked.
func (l *Leaderboard) Rank(ctx context.Context, accountID string) (*Entry, error) {
	rank, err := l.client.ZRevRank(ctx, leaderboardKey, accountID).Result()
	if err == redis.Nil {
		return &Entry{AccountID: accountID}, nil
	}
	if err != nil {
		return nil, err
	}

	score, err := l.client.ZScore(ctx, leaderboardKey, accountID).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	return &Entry{
		AccountID: accountID,
		Winnings:  score,
		Rank:      int(rank) + 1,
	}, nil
}
