package ports

import (
	"context"

	"github.com/layer-3/garuda/core"
)

// Signer is the wallet's signing capability. Sign returns the signature of
// message produced with the key behind address, or a core.SigningError if
// the key is unavailable or the user declines.
type Signer interface {
	Sign(ctx context.Context, message, address string) (signature string, err error)
}

// CredentialSource resolves the authentication material for a wallet. The
// session manager is agnostic to wallet kinds; every kind either yields
// material or core.ErrUnsupportedWalletKind.
type CredentialSource interface {
	AuthMaterial(walletID core.WalletID) (core.AuthMaterial, error)
}
