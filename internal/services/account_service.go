package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"betvex/internal/cache"
	"betvex/internal/models"
)

var (
	// ErrAccountExists means the username already maps to an account.
	ErrAccountExists = errors.New("account already exists")
	// ErrUserNotFound means no user document for the username.
	ErrUserNotFound = errors.New("user not found")
)

// AccountService handles the users collection: existence checks, creation
// bookkeeping and per-user settings.
type AccountService struct {
	db            *gorm.DB
	leaderboard   *cache.Leaderboard
	accountSuffix string
	log           *zap.Logger
}

// NewAccountService wires the users store. accountSuffix is appended to the
// username to form the on-chain account id (e.g. "users.betvex.testnet").
func NewAccountService(db *gorm.DB, leaderboard *cache.Leaderboard, accountSuffix string, log *zap.Logger) *AccountService {
	return &AccountService{
		db:            db,
		leaderboard:   leaderboard,
		accountSuffix: accountSuffix,
		log:           log,
	}
}

// AccountID derives the on-chain account id for a username.
func (s *AccountService) AccountID(username string) string {
	if s.accountSuffix == "" {
		return username
	}
	return fmt.Sprintf("%s.%s", username, s.accountSuffix)
}

// Exists reports whether a username already maps to an account.
func (s *AccountService) Exists(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the user document for a new account. The unique index on
// username serializes concurrent creations: the second insert fails and is
// reported as ErrAccountExists, never a second document.
func (s *AccountService) Create(username, publicKey string) (*models.User, error) {
	exists, err := s.Exists(username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAccountExists
	}

	user := models.User{
		DBID:                 uuid.NewString(),
		AccountID:            s.AccountID(username),
		Username:             username,
		LeaderboardOn:        true,
		RecommendedMatchesOn: true,
	}
	if publicKey != "" {
		user.PublicKey = &publicKey
	}

	if err := s.db.Create(&user).Error; err != nil {
		// Lost the race against a concurrent create for the same username.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("account created",
		zap.String("username", username),
		zap.String("account_id", user.AccountID),
	)
	return &user, nil
}

// GetByUsername retrieves a user document.
func (s *AccountService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByAccountID retrieves a user document by on-chain account id.
func (s *AccountService) GetByAccountID(accountID string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("account_id = ?", accountID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SettingsUpdate carries the optional per-user toggles. Nil fields are left
// untouched.
type SettingsUpdate struct {
	LeaderboardOn        *bool
	RecommendedMatchesOn *bool
}

// UpdateSettings mutates a user's toggles. Turning the leaderboard off also
// removes the account from the Redis board.
func (s *AccountService) UpdateSettings(ctx context.Context, username string, update SettingsUpdate) (*models.User, error) {
	user, err := s.GetByUsername(username)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if update.LeaderboardOn != nil {
		changes["leaderboard_on"] = *update.LeaderboardOn
	}
	if update.RecommendedMatchesOn != nil {
		changes["recommended_matches_on"] = *update.RecommendedMatchesOn
	}
	if len(changes) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	if update.LeaderboardOn != nil && !*update.LeaderboardOn && s.leaderboard != nil {
		if err := s.leaderboard.Remove(ctx, user.AccountID); err != nil {
			s.log.Warn("failed to remove account from leaderboard", zap.Error(err))
		}
	}

	return s.GetByUsername(username)
}

// StoreCustodialKey persists the sealed key blob for a social-login account.
func (s *AccountService) StoreCustodialKey(username string, sealed []byte) error {
	result := s.db.Model(&models.User{}).Where("username = ?", username).Update("custodial_key", sealed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
