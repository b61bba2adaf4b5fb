package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"betvex/internal/betting"
	"betvex/internal/chain"
	"betvex/internal/config"
	"betvex/internal/events"
	"betvex/internal/metrics"
	"betvex/internal/token"
)

// SwapDirection selects which way a token swap goes.
type SwapDirection string

const (
	SwapUSDCToVEX SwapDirection = "usdc_to_vex"
	SwapVEXToUSDC SwapDirection = "vex_to_usdc"
)

// ErrCooldownActive means an unstake was attempted before the cooldown
// deadline passed.
var ErrCooldownActive = errors.New("unstake cooldown has not elapsed")

// ErrUnknownSwapDirection means the swapDirection field was not one of the
// two supported values.
var ErrUnknownSwapDirection = errors.New("unknown swap direction")

// Storage deposit attached when the relayer registers a new account with the
// token contracts, in yocto units.
const storageDeposit = "1250000000000000000000"

// ChainCaller is the slice of the relayer the service needs; satisfied by
// *chain.Relayer and stubbed in tests.
type ChainCaller interface {
	CallMethod(ctx context.Context, contractID, method string, args interface{}, deposit string) (*chain.Outcome, error)
	RelaySigned(ctx context.Context, serialized string) (*chain.Outcome, error)
}

// ViewCaller is the read-only contract query surface.
type ViewCaller interface {
	ViewFunction(ctx context.Context, contractID, method string, args interface{}) (json.RawMessage, error)
}

// RelayService implements the write routes: each operation validates its
// inputs, makes exactly one chain call through the relayer, and reports a
// normalized outcome. No retries and no dedup of rapid duplicate
// submissions; the chain's own sequencing is the only serialization.
type RelayService struct {
	caller    ChainCaller
	viewer    ViewCaller
	chainCfg  config.ChainConfig
	maxAmount string
	receipts  *events.Publisher
	log       *zap.Logger
}

func NewRelayService(caller ChainCaller, viewer ViewCaller, chainCfg config.ChainConfig, maxAmount string, receipts *events.Publisher, log *zap.Logger) *RelayService {
	return &RelayService{
		caller:    caller,
		viewer:    viewer,
		chainCfg:  chainCfg,
		maxAmount: maxAmount,
		receipts:  receipts,
		log:       log,
	}
}

// Stake locks VEX for an account. amount is a VEX base-unit integer string.
func (s *RelayService) Stake(ctx context.Context, accountID, amount string) (*chain.Outcome, error) {
	if err := token.ValidateBaseAmount(amount, token.VEX, s.maxAmount); err != nil {
		return nil, err
	}

	outcome, err := s.caller.CallMethod(ctx, s.chainCfg.StakingContractAddress, "stake", map[string]string{
		"account_id": accountID,
		"amount":     amount,
	}, "")
	s.report("stake", accountID, amount, token.VEX.Symbol, outcome, err)
	return outcome, err
}

// Unstake withdraws staked VEX, refusing while the cooldown is pending.
func (s *RelayService) Unstake(ctx context.Context, accountID, amount string) (*chain.Outcome, error) {
	if err := token.ValidateBaseAmount(amount, token.VEX, s.maxAmount); err != nil {
		return nil, err
	}

	info, err := s.StakeInfo(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !betting.CanUnstake(info, time.Now()) {
		return nil, ErrCooldownActive
	}

	outcome, err := s.caller.CallMethod(ctx, s.chainCfg.StakingContractAddress, "unstake", map[string]string{
		"account_id": accountID,
		"amount":     amount,
	}, "")
	s.report("unstake", accountID, amount, token.VEX.Symbol, outcome, err)
	return outcome, err
}

// StakeInfo reads the staking contract record for an account.
func (s *RelayService) StakeInfo(ctx context.Context, accountID string) (*betting.StakeInfo, error) {
	raw, err := s.viewer.ViewFunction(ctx, s.chainCfg.StakingContractAddress, "get_stake_info", map[string]string{
		"account_id": accountID,
	})
	if err != nil {
		return nil, err
	}

	var info betting.StakeInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("failed to decode stake info: %w", err)
	}
	return &info, nil
}

// Swap exchanges between USDC and VEX through the swap contract. amount is a
// base-unit integer string of the source token.
func (s *RelayService) Swap(ctx context.Context, accountID string, direction SwapDirection, amount, minAmountOut string) (*chain.Outcome, error) {
	var source token.Token
	switch direction {
	case SwapUSDCToVEX:
		source = token.USDC
	case SwapVEXToUSDC:
		source = token.VEX
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownSwapDirection, direction)
	}

	if err := token.ValidateBaseAmount(amount, source, s.maxAmount); err != nil {
		return nil, err
	}
	if minAmountOut != "" {
		if err := token.ValidateBaseAmount(minAmountOut, source, ""); err != nil {
			return nil, fmt.Errorf("min_amount_out: %w", err)
		}
	}

	outcome, err := s.caller.CallMethod(ctx, s.chainCfg.SwapContractAddress, "swap", map[string]string{
		"account_id":     accountID,
		"direction":      string(direction),
		"amount_in":      amount,
		"min_amount_out": minAmountOut,
	}, "")
	s.report("swap", accountID, amount, source.Symbol, outcome, err)
	return outcome, err
}

// CreateAccount registers a new named account on-chain with the user's
// public key, attaching the storage deposit the token contracts require.
func (s *RelayService) CreateAccount(ctx context.Context, accountID, publicKey string) (*chain.Outcome, error) {
	outcome, err := s.caller.CallMethod(ctx, s.chainCfg.BettingContractAddress, "create_account", map[string]string{
		"account_id": accountID,
		"public_key": publicKey,
	}, storageDeposit)
	s.report("create_account", accountID, "", "", outcome, err)
	return outcome, err
}

// Faucet funds a testnet account with starter USDC. Refused on mainnet.
func (s *RelayService) Faucet(ctx context.Context, accountID string) (*chain.Outcome, error) {
	if s.chainCfg.Network == "mainnet" {
		return nil, errors.New("faucet is not available on mainnet")
	}

	outcome, err := s.caller.CallMethod(ctx, s.chainCfg.BettingContractAddress, "faucet", map[string]string{
		"account_id": accountID,
	}, "")
	s.report("faucet", accountID, "", token.USDC.Symbol, outcome, err)
	return outcome, err
}

// DistributeRewards triggers the betting contract's payout for a finished
// match. Operator-only.
func (s *RelayService) DistributeRewards(ctx context.Context, matchID string) (*chain.Outcome, error) {
	if matchID == "" {
		return nil, errors.New("match_id is required")
	}

	outcome, err := s.caller.CallMethod(ctx, s.chainCfg.BettingContractAddress, "distribute_rewards", map[string]string{
		"match_id": matchID,
	}, "")
	s.report("distribute_rewards", matchID, "", "", outcome, err)
	return outcome, err
}

// DelegateResult is one entry of a relay batch response.
type DelegateResult struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Error           string `json:"error,omitempty"`
}

// RelayDelegates submits each serialized delegate action independently.
// One failing entry does not stop the rest; each reports its own outcome.
func (s *RelayService) RelayDelegates(ctx context.Context, serialized []string) []DelegateResult {
	results := make([]DelegateResult, 0, len(serialized))
	for _, payload := range serialized {
		outcome, err := s.caller.RelaySigned(ctx, payload)
		if err != nil {
			metrics.RelayTotal.WithLabelValues("relay", "error").Inc()
			s.log.Warn("delegate relay failed", zap.Error(err))
			results = append(results, DelegateResult{Success: false, Error: "relay failed"})
			continue
		}
		metrics.RelayTotal.WithLabelValues("relay", "ok").Inc()
		results = append(results, DelegateResult{Success: true, TransactionHash: outcome.TransactionHash})
	}
	return results
}

func (s *RelayService) report(operation, accountID, amount, symbol string, outcome *chain.Outcome, err error) {
	if err != nil {
		metrics.RelayTotal.WithLabelValues(operation, "error").Inc()
		s.log.Warn("relay operation failed",
			zap.String("operation", operation),
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return
	}

	metrics.RelayTotal.WithLabelValues(operation, "ok").Inc()
	s.receipts.PublishReceipt(events.RelayReceipt{
		AccountID:       accountID,
		Operation:       operation,
		TransactionHash: outcome.TransactionHash,
		Amount:          amount,
		TokenSymbol:     symbol,
	})
}
