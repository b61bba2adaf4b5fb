package betting

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PlatformFeePercent is the share of the losing pool retained by the
// protocol before winnings are distributed.
var PlatformFeePercent = decimal.NewFromFloat(0.05)

var one = decimal.NewFromInt(1)

// Odds returns the current decimal odds for both teams of a match, derived
// from the running bet totals. Pari-mutuel: a team's odds are the total pool
// over that team's pool, after the platform fee on the opposing side.
// A side with no bets yet reports zero odds.
func Odds(m *Match) (team1 decimal.Decimal, team2 decimal.Decimal, err error) {
	t1, err := decimal.NewFromString(m.Team1TotalBets)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid team_1_total_bets: %w", err)
	}
	t2, err := decimal.NewFromString(m.Team2TotalBets)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid team_2_total_bets: %w", err)
	}

	keep := one.Sub(PlatformFeePercent)

	if t1.IsPositive() {
		team1 = one.Add(t2.Mul(keep).Div(t1)).Round(4)
	}
	if t2.IsPositive() {
		team2 = one.Add(t1.Mul(keep).Div(t2)).Round(4)
	}

	return team1, team2, nil
}

// PotentialWinnings computes the base-unit payout a new bet of betAmount on
// team would receive at current totals, fee already deducted. The result is
// what the contract records as potential_winnings at placement time.
func PotentialWinnings(m *Match, team Team, betAmount string) (string, error) {
	amount, err := decimal.NewFromString(betAmount)
	if err != nil || !amount.IsPositive() {
		return "", fmt.Errorf("invalid bet amount %q", betAmount)
	}

	t1, err := decimal.NewFromString(m.Team1TotalBets)
	if err != nil {
		return "", fmt.Errorf("invalid team_1_total_bets: %w", err)
	}
	t2, err := decimal.NewFromString(m.Team2TotalBets)
	if err != nil {
		return "", fmt.Errorf("invalid team_2_total_bets: %w", err)
	}

	backed, opposing := t1, t2
	if team == Team2 {
		backed, opposing = t2, t1
	}

	// The new bet joins the backed pool before the share is computed.
	backed = backed.Add(amount)

	keep := one.Sub(PlatformFeePercent)
	share := amount.Div(backed)
	winnings := amount.Add(opposing.Mul(keep).Mul(share))

	return winnings.Truncate(0).String(), nil
}
