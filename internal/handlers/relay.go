package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"betvex/internal/auth"
	"betvex/internal/chain"
	"betvex/internal/services"
	"betvex/internal/token"
)

// RelayHandler exposes the write routes that go through the relayer account.
type RelayHandler struct {
	relay    *services.RelayService
	accounts *services.AccountService
	signer   *chain.Signer
}

// NewRelayHandler creates a new RelayHandler
func NewRelayHandler(relay *services.RelayService, accounts *services.AccountService, signer *chain.Signer) *RelayHandler {
	return &RelayHandler{
		relay:    relay,
		accounts: accounts,
		signer:   signer,
	}
}

// writeOutcome maps a relay result onto the wire shape shared by all write
// routes. Upstream chain failures are reported as 502 with a sanitized
// message; validation failures as 400.
func writeOutcome(c *gin.Context, outcome *chain.Outcome, err error) {
	if err != nil {
		var invalid *token.ErrInvalidAmount
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
		case errors.Is(err, services.ErrCooldownActive):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unstake cooldown has not elapsed"})
		case errors.Is(err, services.ErrUnknownSwapDirection):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown swap direction"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "transaction failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"transactionHash": outcome.TransactionHash,
		"result":          outcome.Result,
	})
}

// Stake locks VEX for a user.
// POST /api/relayer/stake
func (h *RelayHandler) Stake(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
		Amount string `json:"amount" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.relay.Stake(c.Request.Context(), req.UserID, req.Amount)
	writeOutcome(c, outcome, err)
}

// Unstake withdraws staked VEX after the cooldown.
// POST /api/relayer/unstake
func (h *RelayHandler) Unstake(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
		Amount string `json:"amount" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.relay.Unstake(c.Request.Context(), req.UserID, req.Amount)
	writeOutcome(c, outcome, err)
}

// StakeInfo returns the staking record plus whether unstaking is currently
// permitted.
// POST /api/relayer/stake-info
func (h *RelayHandler) StakeInfo(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.relay.StakeInfo(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to read stake info"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stakeInfo": info})
}

// Swap exchanges between USDC and VEX.
// POST /api/relayer/swap
func (h *RelayHandler) Swap(c *gin.Context) {
	var req struct {
		UserID          string `json:"userId" binding:"required"`
		SwapDirection   string `json:"swapDirection" binding:"required"`
		FormattedAmount string `json:"formattedAmount" binding:"required"`
		MinAmountOut    string `json:"minAmountOut"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.relay.Swap(
		c.Request.Context(),
		req.UserID,
		services.SwapDirection(req.SwapDirection),
		req.FormattedAmount,
		req.MinAmountOut,
	)
	writeOutcome(c, outcome, err)
}

// CreateAccount registers a new account on-chain.
// POST /api/relayer/create-account
func (h *RelayHandler) CreateAccount(c *gin.Context) {
	var req struct {
		AccountID string `json:"accountId" binding:"required"`
		PublicKey string `json:"publicKey" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.relay.CreateAccount(c.Request.Context(), req.AccountID, req.PublicKey)
	writeOutcome(c, outcome, err)
}

// Faucet funds a testnet account.
// POST /api/relayer/faucet
func (h *RelayHandler) Faucet(c *gin.Context) {
	var req struct {
		AccountID string `json:"accountId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.relay.Faucet(c.Request.Context(), req.AccountID)
	writeOutcome(c, outcome, err)
}

// DistributeRewards triggers payout for a finished match.
// POST /api/relayer/distribute-rewards
func (h *RelayHandler) DistributeRewards(c *gin.Context) {
	var req struct {
		MatchID string `json:"matchId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.relay.DistributeRewards(c.Request.Context(), req.MatchID)
	writeOutcome(c, outcome, err)
}

// RelayTransactions submits a batch of serialized delegate actions. Each
// entry succeeds or fails on its own.
// POST /api/transactions/relay
func (h *RelayHandler) RelayTransactions(c *gin.Context) {
	var req []string

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no delegate actions provided"})
		return
	}

	results := h.relay.RelayDelegates(c.Request.Context(), req)
	c.JSON(http.StatusOK, gin.H{"data": results})
}

// SignAndSubmit routes a transaction through the signer abstraction. A
// custodial request without the key password gets 428 and must be retried
// with the secret.
// POST /api/transactions/sign
func (h *RelayHandler) SignAndSubmit(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Mode              string                 `json:"mode" binding:"required"`
		ContractID        string                 `json:"contractId"`
		Method            string                 `json:"method"`
		Args              map[string]interface{} `json:"args"`
		Deposit           string                 `json:"deposit"`
		SignedTransaction string                 `json:"signedTransaction"`
		SignedDelegate    string                 `json:"signedDelegate"`
		Secret            string                 `json:"secret"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	signReq := chain.Request{
		Mode:              chain.Mode(req.Mode),
		ContractID:        req.ContractID,
		Method:            req.Method,
		Args:              req.Args,
		Deposit:           req.Deposit,
		SignedTransaction: req.SignedTransaction,
		SignedDelegate:    req.SignedDelegate,
		Secret:            req.Secret,
	}

	if signReq.Mode == chain.ModeCustodial {
		user, err := h.accounts.GetByAccountID(accountID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		signReq.SealedKey = user.CustodialKey
	}

	outcome, err := h.signer.Sign(c.Request.Context(), signReq)
	if err != nil {
		switch {
		case errors.Is(err, chain.ErrSecretRequired):
			c.JSON(http.StatusPreconditionRequired, gin.H{"error": "custodial key password required"})
		case errors.Is(err, chain.ErrBadSecret):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect password"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "transaction failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"transactionHash": outcome.TransactionHash,
		"result":          outcome.Result,
	})
}
