package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/layer-3/garuda/core"
	"github.com/layer-3/garuda/ports"
)

// KeySigner signs backend challenges with locally held secp256k1 keys,
// using the personal-message scheme (EIP-191 prefix) the backend verifies
// against the address.
type KeySigner struct {
	keys map[string]*ecdsa.PrivateKey
}

// NewKeySigner indexes keys by their derived address. The wallet shell adds
// keys as wallets are unlocked.
func NewKeySigner(keys ...*ecdsa.PrivateKey) *KeySigner {
	s := &KeySigner{keys: make(map[string]*ecdsa.PrivateKey)}
	for _, key := range keys {
		s.Add(key)
	}
	return s
}

var _ ports.Signer = (*KeySigner)(nil)

// Add registers a key under its derived address.
func (s *KeySigner) Add(key *ecdsa.PrivateKey) string {
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	s.keys[strings.ToLower(address)] = key
	return address
}

// Sign produces a personal-message signature over message with the key
// behind address.
func (s *KeySigner) Sign(ctx context.Context, message, address string) (string, error) {
	key, ok := s.keys[strings.ToLower(address)]
	if !ok {
		return "", &core.SigningError{Address: address, Err: errors.New("no key for address")}
	}

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return "", &core.SigningError{Address: address, Err: err}
	}

	// Recovery id in the 27/28 form expected by personal_sign verifiers.
	sig[64] += 27

	return hexutil.Encode(sig), nil
}
