package handlers

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"

	"betvex/internal/auth"
	"betvex/internal/chain"
	"betvex/internal/services"
)

// AuthHandler handles account lookup, creation bookkeeping and login.
type AuthHandler struct {
	accounts *services.AccountService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
	}
}

// CheckAccountExists reports whether a username already maps to an account.
// POST /api/auth/check-account-exists
func (h *AuthHandler) CheckAccountExists(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exists, err := h.accounts.Exists(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// CreateAccount inserts the user document for a new account. The on-chain
// registration happens separately through the relayer route.
// POST /api/auth/create-account
func (h *AuthHandler) CreateAccount(c *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required,min=2,max=64"`
		PublicKey string `json:"publicKey"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Create(req.Username, req.PublicKey)
	if err != nil {
		if errors.Is(err, services.ErrAccountExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"accountId": user.AccountID,
		"dbId":      user.DBID,
	})
}

// GetUser returns the user document for a username.
// POST /api/auth/user
func (h *AuthHandler) GetUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.GetByUsername(req.Username)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateSettings toggles per-user settings.
// POST /api/auth/settings
func (h *AuthHandler) UpdateSettings(c *gin.Context) {
	var req struct {
		Username             string `json:"username" binding:"required"`
		LeaderboardOn        *bool  `json:"leaderboardOn"`
		RecommendedMatchesOn *bool  `json:"recommendedMatchesOn"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.UpdateSettings(c.Request.Context(), req.Username, services.SettingsUpdate{
		LeaderboardOn:        req.LeaderboardOn,
		RecommendedMatchesOn: req.RecommendedMatchesOn,
	})
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// WalletLogin authenticates a user by their wallet address and an ed25519
// signature of the login message, returning a session token.
// POST /api/auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		Username      string `json:"username" binding:"required"`
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message := []byte("Sign this message to authenticate with betVEX")

	pubKey, err := base58.Decode(req.WalletAddress)
	if err != nil || len(pubKey) != ed25519.PublicKeySize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid public key format"})
		return
	}

	// Wallets return the signature as base58 or hex depending on the client.
	sig, err := base58.Decode(req.Signature)
	if err != nil {
		sig, err = hex.DecodeString(req.Signature)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature format"})
			return
		}
	}
	if len(sig) != ed25519.SignatureSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature format"})
		return
	}

	if !ed25519.Verify(pubKey, message, sig) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	user, err := h.accounts.GetByUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// CreateCustodialKey generates a fresh keypair for a social-login account,
// seals the private key under the user's password and stores the blob.
// POST /api/auth/custodial-key
func (h *AuthHandler) CreateCustodialKey(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	privateKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate key"})
		return
	}

	sealed, err := chain.SealKey(privateKey, req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to seal key"})
		return
	}

	if err := h.accounts.StoreCustodialKey(req.Username, sealed); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store key"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"publicKey": privateKey.PublicKey().String(),
	})
}

// Logout handles user logout. Sessions are stateless JWTs, so the server has
// nothing to invalidate; the client discards the token.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}
