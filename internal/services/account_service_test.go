package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"betvex/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newTestAccountService(t *testing.T) *AccountService {
	return NewAccountService(setupTestDB(t), nil, "users.betvex.testnet", zap.NewNop())
}

func TestAccountIDDerivation(t *testing.T) {
	service := newTestAccountService(t)

	if got := service.AccountID("alice"); got != "alice.users.betvex.testnet" {
		t.Errorf("account id = %q", got)
	}
}

func TestCreateAccount(t *testing.T) {
	service := newTestAccountService(t)

	user, err := service.Create("alice", "somepublickey")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if user.AccountID != "alice.users.betvex.testnet" {
		t.Errorf("account id = %q", user.AccountID)
	}
	if user.DBID == "" {
		t.Error("expected a db id")
	}
	if !user.LeaderboardOn || !user.RecommendedMatchesOn {
		t.Error("expected settings to default on")
	}
	if user.PublicKey == nil || *user.PublicKey != "somepublickey" {
		t.Error("public key not stored")
	}
}

func TestCreateDuplicateAccount(t *testing.T) {
	service := newTestAccountService(t)

	if _, err := service.Create("alice", ""); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := service.Create("alice", "")
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	// Exactly one document survives.
	var count int64
	service.db.Model(&models.User{}).Where("username = ?", "alice").Count(&count)
	if count != 1 {
		t.Errorf("user count = %d, want 1", count)
	}
}

func TestExists(t *testing.T) {
	service := newTestAccountService(t)

	exists, err := service.Exists("alice")
	if err != nil {
		t.Fatalf("exists check failed: %v", err)
	}
	if exists {
		t.Error("expected alice to not exist yet")
	}

	if _, err := service.Create("alice", ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	exists, err = service.Exists("alice")
	if err != nil {
		t.Fatalf("exists check failed: %v", err)
	}
	if !exists {
		t.Error("expected alice to exist")
	}
}

func TestGetByUsernameNotFound(t *testing.T) {
	service := newTestAccountService(t)

	_, err := service.GetByUsername("nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetByAccountID(t *testing.T) {
	service := newTestAccountService(t)

	created, err := service.Create("alice", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	user, err := service.GetByAccountID(created.AccountID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("username = %q", user.Username)
	}

	if _, err := service.GetByAccountID("missing.users.betvex.testnet"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	service := newTestAccountService(t)

	if _, err := service.Create("alice", ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	off := false
	user, err := service.UpdateSettings(context.Background(), "alice", SettingsUpdate{
		LeaderboardOn: &off,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if user.LeaderboardOn {
		t.Error("leaderboard toggle not applied")
	}
	if !user.RecommendedMatchesOn {
		t.Error("untouched setting changed")
	}

	// No-op update returns the current document.
	user, err = service.UpdateSettings(context.Background(), "alice", SettingsUpdate{})
	if err != nil {
		t.Fatalf("no-op update failed: %v", err)
	}
	if user.LeaderboardOn {
		t.Error("no-op update reset the toggle")
	}

	if _, err := service.UpdateSettings(context.Background(), "nobody", SettingsUpdate{}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStoreCustodialKey(t *testing.T) {
	service := newTestAccountService(t)

	if err := service.StoreCustodialKey("nobody", []byte("blob")); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := service.Create("alice", ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := service.StoreCustodialKey("alice", []byte("sealed-blob")); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	user, err := service.GetByUsername("alice")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if string(user.CustodialKey) != "sealed-blob" {
		t.Error("custodial key not persisted")
	}
}
