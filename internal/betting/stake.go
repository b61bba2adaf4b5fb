package betting

import (
	"time"
)

// StakeInfo mirrors the staking contract's per-account record. StakedBalance
// is a VEX base-unit integer string; UnstakeTimestamp is the cooldown
// deadline in nanoseconds since epoch, zero when no cooldown is pending.
type StakeInfo struct {
	StakedBalance    string `json:"staked_balance"`
	UnstakeTimestamp int64  `json:"unstake_timestamp"`
}

// CanUnstake reports whether the cooldown deadline has passed.
func CanUnstake(info *StakeInfo, now time.Time) bool {
	if info.UnstakeTimestamp == 0 {
		return true
	}
	return now.UnixNano() >= info.UnstakeTimestamp
}

// UnstakeCooldownRemaining returns how long until unstaking is permitted,
// zero when already allowed.
func UnstakeCooldownRemaining(info *StakeInfo, now time.Time) time.Duration {
	if CanUnstake(info, now) {
		return 0
	}
	return time.Duration(info.UnstakeTimestamp - now.UnixNano())
}
