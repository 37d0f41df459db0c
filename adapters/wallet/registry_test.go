package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/garuda/core"
)

func TestAuthMaterialPrimary(t *testing.T) {
	registry := NewRegistry()
	registry.Register("main", Entry{Kind: core.WalletKindPrimary, Address: "bc1qmain"})

	material, err := registry.AuthMaterial("main")
	require.NoError(t, err)
	assert.Equal(t, "bc1qmain", material.Address)
	assert.True(t, material.Interactive)
	assert.Empty(t, material.Proof)
}

func TestAuthMaterialLightning(t *testing.T) {
	registry := NewRegistry()
	registry.Register("ln", Entry{
		Kind:           core.WalletKindLightning,
		Address:        "lnurl1dp68gurn8ghj7",
		OwnershipProof: "proof-sig",
	})

	material, err := registry.AuthMaterial("ln")
	require.NoError(t, err)
	assert.Equal(t, "LNURL1DP68GURN8GHJ7", material.Address)
	assert.Equal(t, "proof-sig", material.Proof)
	assert.False(t, material.Interactive)
}

func TestAuthMaterialMissingWallet(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.AuthMaterial("ghost")
	assert.ErrorIs(t, err, core.ErrUnsupportedWalletKind)
}

func TestAuthMaterialUnknownKind(t *testing.T) {
	registry := NewRegistry()
	registry.Register("tr", Entry{Kind: core.WalletKind("taproot"), Address: "bc1p"})

	_, err := registry.AuthMaterial("tr")
	assert.ErrorIs(t, err, core.ErrUnsupportedWalletKind)
}

func TestAuthMaterialNoAddress(t *testing.T) {
	registry := NewRegistry()
	registry.Register("empty", Entry{Kind: core.WalletKindPrimary})

	_, err := registry.AuthMaterial("empty")
	assert.ErrorIs(t, err, core.ErrNoAddress)
}

func TestRegisterReplaceRemove(t *testing.T) {
	registry := NewRegistry()
	registry.Register("main", Entry{Kind: core.WalletKindPrimary, Address: "bc1qold"})
	registry.Register("main", Entry{Kind: core.WalletKindPrimary, Address: "bc1qnew"})

	material, err := registry.AuthMaterial("main")
	require.NoError(t, err)
	assert.Equal(t, "bc1qnew", material.Address)

	registry.Register("ln", Entry{Kind: core.WalletKindLightning, Address: "lnurl1", OwnershipProof: "p"})
	assert.ElementsMatch(t, []core.WalletID{"main", "ln"}, registry.IDs())

	registry.Remove("main")
	assert.ElementsMatch(t, []core.WalletID{"ln"}, registry.IDs())

	_, err = registry.AuthMaterial("main")
	assert.ErrorIs(t, err, core.ErrUnsupportedWalletKind)
}
