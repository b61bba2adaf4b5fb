package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Outcome is the normalized result of a submitted transaction.
type Outcome struct {
	TransactionHash string          `json:"transactionHash"`
	Result          json.RawMessage `json:"result,omitempty"`
}

// Relayer holds the server account that pays transaction fees on behalf of
// users. It can invoke contract methods directly or co-sign user-signed
// delegate transactions.
type Relayer struct {
	client *Client
	wallet *solana.Wallet
	log    *zap.Logger
}

// callPayload is the instruction data layout for a relayer-invoked contract
// method: the method name plus base64-wrapped JSON arguments and an optional
// attached deposit in base units.
type callPayload struct {
	Method     string `json:"method"`
	ArgsBase64 string `json:"args_base64"`
	Deposit    string `json:"deposit,omitempty"`
}

// NewRelayer loads the relayer keypair from a base58 private key.
func NewRelayer(client *Client, privateKey string, log *zap.Logger) (*Relayer, error) {
	wallet, err := solana.WalletFromPrivateKeyBase58(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load relayer wallet: %w", err)
	}

	log.Info("relayer wallet loaded", zap.String("account", wallet.PublicKey().String()))

	return &Relayer{
		client: client,
		wallet: wallet,
		log:    log,
	}, nil
}

// AccountID returns the relayer's on-chain account
func (r *Relayer) AccountID() string {
	return r.wallet.PublicKey().String()
}

// CallMethod invokes a single contract method as the relayer: build one
// instruction, sign as fee payer, submit, wait for confirmation. No retries;
// the chain's own sequencing is the only serialization.
func (r *Relayer) CallMethod(ctx context.Context, contractID, method string, args interface{}, deposit string) (*Outcome, error) {
	contract, err := solana.PublicKeyFromBase58(contractID)
	if err != nil {
		return nil, fmt.Errorf("invalid contract id: %w", err)
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call args: %w", err)
	}

	data, err := json.Marshal(callPayload{
		Method:     method,
		ArgsBase64: base64.StdEncoding.EncodeToString(argsJSON),
		Deposit:    deposit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode instruction data: %w", err)
	}

	blockhash, err := r.client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	ix := solana.NewInstruction(
		contract,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(r.wallet.PublicKey(), true, true),
		},
		data,
	)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash,
		solana.TransactionPayer(r.wallet.PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(r.signerFor(r.wallet)); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return r.submit(ctx, tx, contractID, method)
}

// RelaySigned accepts a base64-serialized transaction signed by a user's key
// with the relayer as fee payer, attaches the relayer signature and submits
// it. This is how socially-authenticated users without gas funds transact.
func (r *Relayer) RelaySigned(ctx context.Context, serialized string) (*Outcome, error) {
	raw, err := base64.StdEncoding.DecodeString(serialized)
	if err != nil {
		return nil, fmt.Errorf("invalid delegate encoding: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode delegate transaction: %w", err)
	}

	if len(tx.Message.AccountKeys) == 0 || !tx.Message.AccountKeys[0].Equals(r.wallet.PublicKey()) {
		return nil, fmt.Errorf("delegate transaction does not name the relayer as fee payer")
	}

	if _, err := tx.PartialSign(r.signerFor(r.wallet)); err != nil {
		return nil, fmt.Errorf("failed to attach relayer signature: %w", err)
	}

	return r.submit(ctx, tx, "", "relay")
}

// SubmitRaw submits a fully-signed transaction without modification. Used
// for the direct wallet path where the user pays their own fees.
func (r *Relayer) SubmitRaw(ctx context.Context, serialized string) (*Outcome, error) {
	raw, err := base64.StdEncoding.DecodeString(serialized)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction encoding: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	return r.submit(ctx, tx, "", "submit")
}

// SubmitSigned signs a freshly-built contract call with the given user key
// alongside the relayer fee-payer signature. The custodial path.
func (r *Relayer) SubmitSigned(ctx context.Context, contractID, method string, args interface{}, deposit string, userKey solana.PrivateKey) (*Outcome, error) {
	contract, err := solana.PublicKeyFromBase58(contractID)
	if err != nil {
		return nil, fmt.Errorf("invalid contract id: %w", err)
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call args: %w", err)
	}

	data, err := json.Marshal(callPayload{
		Method:     method,
		ArgsBase64: base64.StdEncoding.EncodeToString(argsJSON),
		Deposit:    deposit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode instruction data: %w", err)
	}

	blockhash, err := r.client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	ix := solana.NewInstruction(
		contract,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(userKey.PublicKey(), true, true),
		},
		data,
	)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash,
		solana.TransactionPayer(r.wallet.PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	signers := map[solana.PublicKey]*solana.PrivateKey{
		r.wallet.PublicKey(): &r.wallet.PrivateKey,
		userKey.PublicKey():  &userKey,
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return signers[key]
	}); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return r.submit(ctx, tx, contractID, method)
}

func (r *Relayer) signerFor(wallet *solana.Wallet) func(key solana.PublicKey) *solana.PrivateKey {
	return func(key solana.PublicKey) *solana.PrivateKey {
		if wallet.PublicKey().Equals(key) {
			return &wallet.PrivateKey
		}
		return nil
	}
}

func (r *Relayer) submit(ctx context.Context, tx *solana.Transaction, contractID, method string) (*Outcome, error) {
	sig, err := r.client.SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := r.client.WaitForConfirmation(ctx, sig); err != nil {
		return nil, err
	}

	r.log.Info("transaction confirmed",
		zap.String("signature", sig.String()),
		zap.String("contract", contractID),
		zap.String("method", method),
	)

	result, _ := json.Marshal(map[string]string{"status": "confirmed"})
	return &Outcome{
		TransactionHash: sig.String(),
		Result:          result,
	}, nil
}
