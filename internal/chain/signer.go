package chain

import (
	"context"
	"errors"
	"fmt"
)

// Mode identifies which signing path a transaction request takes.
type Mode string

const (
	// ModeWallet submits a transaction the user fully signed in their own
	// wallet; the user pays their own fees.
	ModeWallet Mode = "wallet"
	// ModeCustodial signs server-side with the user's sealed key, unlocked
	// by their password, with the relayer paying fees.
	ModeCustodial Mode = "custodial"
	// ModeDelegate co-signs a user-signed delegate transaction and relays it.
	ModeDelegate Mode = "delegate"
)

// ErrSecretRequired signals that a custodial request arrived without the
// password needed to unlock the key. The caller must re-invoke Sign with the
// secret filled in; there is no server-side wait.
var ErrSecretRequired = errors.New("custodial key password required")

// Request describes one transaction through the signer abstraction. Which
// fields are required depends on Mode.
type Request struct {
	Mode Mode

	// Contract call, for the custodial path.
	ContractID string
	Method     string
	Args       interface{}
	Deposit    string

	// Base64 transaction payloads, for the wallet and delegate paths.
	SignedTransaction string
	SignedDelegate    string

	// Custodial key material.
	SealedKey []byte
	Secret    string
}

// Signer routes a transaction request to one of the three signing paths and
// returns a normalized outcome.
type Signer struct {
	relayer *Relayer
}

func NewSigner(relayer *Relayer) *Signer {
	return &Signer{relayer: relayer}
}

// Sign dispatches on the request's mode. A custodial request with an empty
// Secret fails fast with ErrSecretRequired instead of blocking.
func (s *Signer) Sign(ctx context.Context, req Request) (*Outcome, error) {
	switch req.Mode {
	case ModeWallet:
		if req.SignedTransaction == "" {
			return nil, errors.New("wallet mode requires a signed transaction")
		}
		return s.relayer.SubmitRaw(ctx, req.SignedTransaction)

	case ModeCustodial:
		if len(req.SealedKey) == 0 {
			return nil, errors.New("no custodial key on record")
		}
		if req.Secret == "" {
			return nil, ErrSecretRequired
		}
		userKey, err := UnsealKey(req.SealedKey, req.Secret)
		if err != nil {
			return nil, err
		}
		return s.relayer.SubmitSigned(ctx, req.ContractID, req.Method, req.Args, req.Deposit, userKey)

	case ModeDelegate:
		if req.SignedDelegate == "" {
			return nil, errors.New("delegate mode requires a signed delegate")
		}
		return s.relayer.RelaySigned(ctx, req.SignedDelegate)

	default:
		return nil, fmt.Errorf("unknown signing mode %q", req.Mode)
	}
}
