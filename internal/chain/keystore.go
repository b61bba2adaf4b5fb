package chain

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// Custodial keys are sealed with a key derived from the user's password:
// scrypt for derivation, NaCl secretbox for the envelope. Blob layout is
// salt(16) || nonce(24) || box.

const (
	saltSize  = 16
	nonceSize = 24
)

// ErrBadSecret is returned when a sealed key cannot be opened with the
// supplied password.
var ErrBadSecret = errors.New("incorrect password for custodial key")

func deriveKey(password string, salt []byte) (*[32]byte, error) {
	raw, err := scrypt.Key([]byte(password), salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

// SealKey encrypts a custodial private key under the user's password.
func SealKey(privateKey solana.PrivateKey, password string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	blob := make([]byte, 0, saltSize+nonceSize+len(privateKey)+secretbox.Overhead)
	blob = append(blob, salt...)
	blob = append(blob, nonce[:]...)
	blob = secretbox.Seal(blob, privateKey, &nonce, key)

	return blob, nil
}

// UnsealKey decrypts a sealed custodial key blob with the user's password.
func UnsealKey(blob []byte, password string) (solana.PrivateKey, error) {
	if len(blob) < saltSize+nonceSize+secretbox.Overhead {
		return nil, errors.New("sealed key blob is truncated")
	}

	salt := blob[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], blob[saltSize:saltSize+nonceSize])
	box := blob[saltSize+nonceSize:]

	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}

	raw, ok := secretbox.Open(nil, box, &nonce, key)
	if !ok {
		return nil, ErrBadSecret
	}

	return solana.PrivateKey(raw), nil
}
