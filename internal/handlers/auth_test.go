package handlers

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"betvex/internal/models"
	"betvex/internal/services"
)

func newWalletLoginRouter(t *testing.T, accounts *services.AccountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/auth/wallet", NewAuthHandler(accounts).WalletLogin)
	return router
}

func newTestAccounts(t *testing.T) *services.AccountService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return services.NewAccountService(db, nil, "users.betvex.testnet", zap.NewNop())
}

func postWalletLogin(t *testing.T, router *gin.Engine, body map[string]string) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/wallet", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWalletLoginRejectsShortPublicKey(t *testing.T) {
	// The address decodes to fewer bytes than an ed25519 public key; the
	// handler must answer 400, not fall over in signature verification.
	router := newWalletLoginRouter(t, nil)

	rec := postWalletLogin(t, router, map[string]string{
		"username":       "alice",
		"wallet_address": "abc",
		"signature":      "00",
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWalletLoginRejectsWrongLengthSignature(t *testing.T) {
	router := newWalletLoginRouter(t, nil)

	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	rec := postWalletLogin(t, router, map[string]string{
		"username":       "alice",
		"wallet_address": base58.Encode(pub),
		"signature":      "0011",
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWalletLoginRejectsBadSignature(t *testing.T) {
	router := newWalletLoginRouter(t, nil)

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	sig := ed25519.Sign(priv, []byte("some other message"))

	rec := postWalletLogin(t, router, map[string]string{
		"username":       "alice",
		"wallet_address": base58.Encode(pub),
		"signature":      base58.Encode(sig),
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestWalletLoginUnknownUser(t *testing.T) {
	// A correctly signed login for a username with no document gets 404,
	// proving the guards still admit well-formed keys and signatures.
	router := newWalletLoginRouter(t, newTestAccounts(t))

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	sig := ed25519.Sign(priv, []byte("Sign this message to authenticate with betVEX"))

	rec := postWalletLogin(t, router, map[string]string{
		"username":       "nobody",
		"wallet_address": base58.Encode(pub),
		"signature":      base58.Encode(sig),
	})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
