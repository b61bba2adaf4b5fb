package betting

import (
	"testing"
)

func teamPtr(t Team) *Team        { return &t }
func payPtr(p PayState) *PayState { return &p }

func TestCategorize(t *testing.T) {
	tests := []struct {
		name    string
		bet     Bet
		match   Match
		claimed map[string]bool
		want    Category
	}{
		{
			name:  "upcoming match is pending",
			bet:   Bet{BetID: "b1", Team: Team1},
			match: Match{MatchState: MatchFuture},
			want:  CategoryPending,
		},
		{
			name:  "live match is pending",
			bet:   Bet{BetID: "b1", Team: Team1},
			match: Match{MatchState: MatchCurrent},
			want:  CategoryPending,
		},
		{
			name:  "match error",
			bet:   Bet{BetID: "b1", Team: Team1},
			match: Match{MatchState: MatchError},
			want:  CategoryError,
		},
		{
			name:  "pay error wins over match state",
			bet:   Bet{BetID: "b1", Team: Team1, PayState: payPtr(PayError)},
			match: Match{MatchState: MatchCurrent},
			want:  CategoryError,
		},
		{
			name:  "winner unclaimed is claimable",
			bet:   Bet{BetID: "b1", Team: Team1},
			match: Match{MatchState: MatchFinished, Winner: teamPtr(Team1)},
			want:  CategoryClaimable,
		},
		{
			name:    "winner claimed this session is history",
			bet:     Bet{BetID: "b1", Team: Team1},
			match:   Match{MatchState: MatchFinished, Winner: teamPtr(Team1)},
			claimed: map[string]bool{"b1": true},
			want:    CategoryHistory,
		},
		{
			name:  "loser is history",
			bet:   Bet{BetID: "b1", Team: Team2},
			match: Match{MatchState: MatchFinished, Winner: teamPtr(Team1)},
			want:  CategoryHistory,
		},
		{
			name:  "already paid out is history",
			bet:   Bet{BetID: "b1", Team: Team1, PayState: payPtr(PayPaid)},
			match: Match{MatchState: MatchFinished, Winner: teamPtr(Team1)},
			want:  CategoryHistory,
		},
		{
			name:  "finished without winner is history",
			bet:   Bet{BetID: "b1", Team: Team1},
			match: Match{MatchState: MatchFinished},
			want:  CategoryHistory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(&tt.bet, &tt.match, tt.claimed)
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
