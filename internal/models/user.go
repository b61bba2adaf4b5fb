package models

import (
	"time"
)

// User represents a betVEX account. AccountID is the on-chain account the
// username maps to; DBID is the storage identity returned to clients on
// creation. CustodialKey holds the sealed key blob for social-login accounts
// and is never serialized to JSON.
type User struct {
	ID                   uint      `gorm:"primaryKey" json:"-"`
	DBID                 string    `gorm:"uniqueIndex;size:36;not null" json:"db_id"`
	AccountID            string    `gorm:"uniqueIndex;size:255;not null" json:"account_id"`
	Username             string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PublicKey            *string   `gorm:"size:255" json:"public_key,omitempty"`
	CustodialKey         []byte    `gorm:"type:bytea" json:"-"`
	LeaderboardOn        bool      `gorm:"default:true" json:"leaderboard_on"`
	RecommendedMatchesOn bool      `gorm:"default:true" json:"recommended_matches_on"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"-"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
