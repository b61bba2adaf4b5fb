package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"betvex/internal/chain"
	"betvex/internal/config"
	"betvex/internal/token"
)

type stubCaller struct {
	calls      int
	lastMethod string
	lastArgs   interface{}
	failOn     string
	outcome    *chain.Outcome
}

func (s *stubCaller) CallMethod(ctx context.Context, contractID, method string, args interface{}, deposit string) (*chain.Outcome, error) {
	s.calls++
	s.lastMethod = method
	s.lastArgs = args
	if s.failOn == method {
		return nil, errors.New("rpc error")
	}
	return s.outcome, nil
}

func (s *stubCaller) RelaySigned(ctx context.Context, serialized string) (*chain.Outcome, error) {
	s.calls++
	if s.failOn == serialized {
		return nil, errors.New("rpc error")
	}
	return &chain.Outcome{TransactionHash: "sig-" + serialized}, nil
}

type stubViewer struct {
	result json.RawMessage
	err    error
}

func (s *stubViewer) ViewFunction(ctx context.Context, contractID, method string, args interface{}) (json.RawMessage, error) {
	return s.result, s.err
}

func newTestRelayService(caller *stubCaller, viewer *stubViewer, network string) *RelayService {
	if caller.outcome == nil {
		caller.outcome = &chain.Outcome{TransactionHash: "abc123"}
	}
	cfg := config.ChainConfig{
		Network:                network,
		BettingContractAddress: "betting-contract",
		StakingContractAddress: "staking-contract",
		SwapContractAddress:    "swap-contract",
	}
	return NewRelayService(caller, viewer, cfg, "1000", nil, zap.NewNop())
}

func TestStakeRejectsInvalidAmount(t *testing.T) {
	caller := &stubCaller{}
	service := newTestRelayService(caller, &stubViewer{}, "testnet")

	_, err := service.Stake(context.Background(), "alice.testnet", "12.5")

	var invalid *token.ErrInvalidAmount
	require.ErrorAs(t, err, &invalid)
	assert.Zero(t, caller.calls, "no chain call should happen for invalid input")
}

func TestStakeCallsContract(t *testing.T) {
	caller := &stubCaller{}
	service := newTestRelayService(caller, &stubViewer{}, "testnet")

	outcome, err := service.Stake(context.Background(), "alice.testnet", "1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "abc123", outcome.TransactionHash)
	assert.Equal(t, "stake", caller.lastMethod)
}

func TestUnstakeBlockedDuringCooldown(t *testing.T) {
	deadline := time.Now().Add(time.Hour).UnixNano()
	viewer := &stubViewer{
		result: json.RawMessage(fmt.Sprintf(`{"staked_balance":"5000000000000000000","unstake_timestamp":%d}`, deadline)),
	}
	caller := &stubCaller{}
	service := newTestRelayService(caller, viewer, "testnet")

	_, err := service.Unstake(context.Background(), "alice.testnet", "1000000000000000000")
	require.ErrorIs(t, err, ErrCooldownActive)
	assert.Zero(t, caller.calls)
}

func TestUnstakeAfterCooldown(t *testing.T) {
	viewer := &stubViewer{
		result: json.RawMessage(`{"staked_balance":"5000000000000000000","unstake_timestamp":0}`),
	}
	caller := &stubCaller{}
	service := newTestRelayService(caller, viewer, "testnet")

	outcome, err := service.Unstake(context.Background(), "alice.testnet", "1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "unstake", caller.lastMethod)
	assert.Equal(t, "abc123", outcome.TransactionHash)
}

func TestSwapRejectsUnknownDirection(t *testing.T) {
	caller := &stubCaller{}
	service := newTestRelayService(caller, &stubViewer{}, "testnet")

	_, err := service.Swap(context.Background(), "alice.testnet", "sideways", "1000000", "")
	require.ErrorIs(t, err, ErrUnknownSwapDirection)
	assert.Zero(t, caller.calls)
}

func TestSwapValidatesSourceToken(t *testing.T) {
	caller := &stubCaller{}
	service := newTestRelayService(caller, &stubViewer{}, "testnet")

	// 1 USDC in base units, well under the 1000 USDC cap.
	_, err := service.Swap(context.Background(), "alice.testnet", SwapUSDCToVEX, "1000000", "")
	require.NoError(t, err)
	assert.Equal(t, "swap", caller.lastMethod)

	// The same digits read as VEX base units are far below one token and
	// within the cap, so direction changes which validation applies.
	_, err = service.Swap(context.Background(), "alice.testnet", SwapVEXToUSDC, "1000000", "")
	require.NoError(t, err)
}

func TestFaucetRefusedOnMainnet(t *testing.T) {
	caller := &stubCaller{}
	service := newTestRelayService(caller, &stubViewer{}, "mainnet")

	_, err := service.Faucet(context.Background(), "alice.near")
	require.Error(t, err)
	assert.Zero(t, caller.calls)
}

func TestFaucetOnTestnet(t *testing.T) {
	caller := &stubCaller{}
	service := newTestRelayService(caller, &stubViewer{}, "testnet")

	_, err := service.Faucet(context.Background(), "alice.testnet")
	require.NoError(t, err)
	assert.Equal(t, "faucet", caller.lastMethod)
}

func TestDistributeRewardsRequiresMatchID(t *testing.T) {
	caller := &stubCaller{}
	service := newTestRelayService(caller, &stubViewer{}, "testnet")

	_, err := service.DistributeRewards(context.Background(), "")
	require.Error(t, err)
	assert.Zero(t, caller.calls)
}

func TestRelayDelegatesPartialFailure(t *testing.T) {
	caller := &stubCaller{failOn: "bad-payload"}
	service := newTestRelayService(caller, &stubViewer{}, "testnet")

	results := service.RelayDelegates(context.Background(), []string{"good-1", "bad-payload", "good-2"})
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Equal(t, "sig-good-1", results[0].TransactionHash)

	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
	assert.Empty(t, results[1].TransactionHash)

	assert.True(t, results[2].Success)
}
