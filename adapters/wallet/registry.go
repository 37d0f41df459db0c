package wallet

import (
	"strings"
	"sync"

	"github.com/layer-3/garuda/core"
	"github.com/layer-3/garuda/ports"
)

// Entry describes one registered wallet. For primary wallets Address is the
// main receiving address and signing happens live; for lightning wallets
// Address is the LNURL form of the lightning address and OwnershipProof is
// the signature established at wallet-add time.
type Entry struct {
	Kind           core.WalletKind
	Address        string
	OwnershipProof string
}

// Registry is the wallet shell's view of which wallets exist and how each
// one authenticates. It implements the CredentialSource port; the session
// manager stays agnostic to wallet kinds.
type Registry struct {
	mu      sync.RWMutex
	entries map[core.WalletID]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[core.WalletID]Entry)}
}

var _ ports.CredentialSource = (*Registry)(nil)

// Register adds or replaces a wallet.
func (r *Registry) Register(walletID core.WalletID, entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[walletID] = entry
}

// Remove forgets a wallet. Authentications already in flight for it finish
// harmlessly; their results are simply never read again.
func (r *Registry) Remove(walletID core.WalletID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, walletID)
}

// IDs lists the registered wallets, for the bulk connect probe.
func (r *Registry) IDs() []core.WalletID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]core.WalletID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// AuthMaterial resolves a wallet's authentication strategy. Kinds without
// one yield core.ErrUnsupportedWalletKind rather than a guess.
func (r *Registry) AuthMaterial(walletID core.WalletID) (core.AuthMaterial, error) {
	r.mu.RLock()
	entry, ok := r.entries[walletID]
	r.mu.RUnlock()
	if !ok {
		return core.AuthMaterial{}, core.ErrUnsupportedWalletKind
	}

	switch entry.Kind {
	case core.WalletKindPrimary:
		if entry.Address == "" {
			return core.AuthMaterial{}, core.ErrNoAddress
		}
		return core.AuthMaterial{Address: entry.Address, Interactive: true}, nil

	case core.WalletKindLightning:
		if entry.Address == "" {
			return core.AuthMaterial{}, core.ErrNoAddress
		}
		// The backend challenges lightning wallets on the uppercased
		// LNURL and accepts the stored ownership proof as signature.
		return core.AuthMaterial{
			Address: strings.ToUpper(entry.Address),
			Proof:   entry.OwnershipProof,
		}, nil

	default:
		return core.AuthMaterial{}, core.ErrUnsupportedWalletKind
	}
}
