package betting

// Category is the display bucket a bet falls into. Derived from match state,
// pay state and the session-local claimed set; never persisted.
type Category string

const (
	CategoryClaimable Category = "claimable"
	CategoryPending   Category = "pending"
	CategoryError     Category = "error"
	CategoryHistory   Category = "history"
)

// Categorize buckets a bet for display. claimedThisSession holds bet IDs the
// user has already claimed since loading the page, so a just-claimed bet
// drops from claimable to history without waiting for the contract state to
// catch up.
func Categorize(bet *Bet, match *Match, claimedThisSession map[string]bool) Category {
	if bet.PayState != nil && *bet.PayState == PayError {
		return CategoryError
	}

	switch match.MatchState {
	case MatchFuture, MatchCurrent:
		return CategoryPending

	case MatchError:
		return CategoryError

	case MatchFinished:
		// Already paid out by the contract.
		if bet.PayState != nil && *bet.PayState == PayPaid {
			return CategoryHistory
		}

		// Lost bets go straight to history.
		if match.Winner == nil || *match.Winner != bet.Team {
			return CategoryHistory
		}

		if claimedThisSession[bet.BetID] {
			return CategoryHistory
		}
		return CategoryClaimable
	}

	return CategoryError
}
