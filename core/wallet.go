package core

// WalletID uniquely identifies a wallet instance within the app. It is
// stable for the lifetime of the wallet and opaque to this package.
type WalletID string

// WalletKind determines how a wallet produces its authentication material.
type WalletKind string

const (
	// WalletKindPrimary is the app's main on-chain wallet. It signs the
	// backend challenge interactively with its primary receiving address.
	WalletKindPrimary WalletKind = "primary"

	// WalletKindLightning is a lightning-address wallet. It carries a
	// pre-computed ownership proof over its LNURL and never signs live.
	WalletKindLightning WalletKind = "lightning"
)

// AuthMaterial is everything the negotiator needs to authenticate one
// wallet against the backend.
type AuthMaterial struct {
	// Address is the identity the backend challenges. For lightning
	// wallets this is the uppercased LNURL form of the address.
	Address string

	// Proof is a pre-computed ownership signature. When set, the
	// negotiator submits it directly instead of fetching a challenge.
	Proof string

	// Interactive marks material that requires a live signature over a
	// backend-issued challenge.
	Interactive bool
}

// SessionMap maps a wallet to its last-known bearer token. Absence of a key
// means the wallet has not authenticated this app-session; it carries no
// other meaning.
type SessionMap map[WalletID]string

// Clone returns a copy that is safe to mutate independently.
func (m SessionMap) Clone() SessionMap {
	out := make(SessionMap, len(m))
	for id, token := range m {
		out[id] = token
	}
	return out
}
