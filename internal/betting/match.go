package betting

// MatchState is the externally-driven lifecycle of a match. The indexer owns
// transitions; this service only reads them.
type MatchState string

const (
	MatchFuture   MatchState = "Future"
	MatchCurrent  MatchState = "Current"
	MatchFinished MatchState = "Finished"
	MatchError    MatchState = "Error"
)

// Team identifies one side of a match.
type Team string

const (
	Team1 Team = "Team1"
	Team2 Team = "Team2"
)

// PayState is the contract-owned payout state of a bet.
type PayState string

const (
	PayPending PayState = "Pending"
	PayPaid    PayState = "Paid"
	PayError   PayState = "Error"
)

// Match mirrors the indexer's match document. Bet totals are integer strings
// in USDC base units.
type Match struct {
	ID             string     `json:"id"`
	Game           string     `json:"game"`
	DateTimestamp  int64      `json:"date_timestamp"`
	Team1          string     `json:"team_1"`
	Team2          string     `json:"team_2"`
	Team1TotalBets string     `json:"team_1_total_bets"`
	Team2TotalBets string     `json:"team_2_total_bets"`
	MatchState     MatchState `json:"match_state"`
	Winner         *Team      `json:"winner,omitempty"`
}

// Bet mirrors the smart contract's bet record.
type Bet struct {
	BetID             string    `json:"betId"`
	MatchID           string    `json:"match_id"`
	Team              Team      `json:"team"`
	BetAmount         string    `json:"bet_amount"`
	PotentialWinnings string    `json:"potential_winnings"`
	PayState          *PayState `json:"pay_state,omitempty"`
}
