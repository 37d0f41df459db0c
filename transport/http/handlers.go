package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/layer-3/garuda/adapters/wallet"
	"github.com/layer-3/garuda/core"
	"github.com/layer-3/garuda/service"
)

// SessionHandlers contains HTTP handlers for the session endpoints the
// wallet shell consumes.
type SessionHandlers struct {
	manager *service.Manager
	wallets *wallet.Registry
}

// NewSessionHandlers creates new session handlers.
func NewSessionHandlers(manager *service.Manager, wallets *wallet.Registry) *SessionHandlers {
	return &SessionHandlers{
		manager: manager,
		wallets: wallets,
	}
}

type balancePayload struct {
	Amount decimal.Decimal `json:"amount"`
	Asset  string          `json:"asset" binding:"required"`
}

func toDescriptors(payloads []balancePayload) []service.BalanceDescriptor {
	out := make([]service.BalanceDescriptor, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, service.BalanceDescriptor{Amount: p.Amount, Asset: p.Asset})
	}
	return out
}

// Token returns a valid session token for a wallet, authenticating on
// demand.
func (h *SessionHandlers) Token(c *gin.Context) {
	walletID := core.WalletID(c.Param("walletId"))

	token, err := h.manager.GetAccessToken(c.Request.Context(), walletID)
	if err != nil {
		status, msg := mapError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

// Reset drops a wallet's session so the next token request
// re-authenticates. Called by API consumers after a downstream 401.
func (h *SessionHandlers) Reset(c *gin.Context) {
	walletID := core.WalletID(c.Param("walletId"))

	if err := h.manager.ResetAccessToken(c.Request.Context(), walletID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset session"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Connect probes wallets in bulk and recomputes availability. Without an
// explicit wallet list it probes every registered wallet.
func (h *SessionHandlers) Connect(c *gin.Context) {
	var req struct {
		WalletIDs []string `json:"walletIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	walletIDs := make([]core.WalletID, 0, len(req.WalletIDs))
	for _, id := range req.WalletIDs {
		walletIDs = append(walletIDs, core.WalletID(id))
	}
	if len(walletIDs) == 0 {
		walletIDs = h.wallets.IDs()
	}

	if err := h.manager.Connect(c.Request.Context(), walletIDs); err != nil {
		status, msg := mapError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": h.manager.IsAvailable()})
}

// Status reports the observable manager state for UI gating.
func (h *SessionHandlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"processing": h.manager.IsProcessing(),
		"available":  h.manager.IsAvailable(),
	})
}

// OpenServices composes the services hand-off link for a wallet and
// launches it through the OS.
func (h *SessionHandlers) OpenServices(c *gin.Context) {
	var req struct {
		WalletID string           `json:"walletId" binding:"required"`
		Service  string           `json:"service"`
		Balances []balancePayload `json:"balances"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.manager.OpenServices(c.Request.Context(), core.WalletID(req.WalletID), toDescriptors(req.Balances), req.Service)
	if err != nil {
		status, msg := mapError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Status(http.StatusNoContent)
}

// ResetAll clears every session. Full logout.
func (h *SessionHandlers) ResetAll(c *gin.Context) {
	if err := h.manager.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset sessions"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterWallet adds or replaces a wallet in the registry.
func (h *SessionHandlers) RegisterWallet(c *gin.Context) {
	walletID := core.WalletID(c.Param("walletId"))

	var req struct {
		Kind           string `json:"kind" binding:"required"`
		Address        string `json:"address" binding:"required"`
		OwnershipProof string `json:"ownershipProof"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	h.wallets.Register(walletID, wallet.Entry{
		Kind:           core.WalletKind(req.Kind),
		Address:        req.Address,
		OwnershipProof: req.OwnershipProof,
	})

	c.Status(http.StatusNoContent)
}

// RemoveWallet forgets a wallet and drops its session.
func (h *SessionHandlers) RemoveWallet(c *gin.Context) {
	walletID := core.WalletID(c.Param("walletId"))

	h.wallets.Remove(walletID)
	if err := h.manager.ResetAccessToken(c.Request.Context(), walletID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to drop session"})
		return
	}

	c.Status(http.StatusNoContent)
}

// mapError translates the domain error taxonomy into HTTP statuses for the
// local control API.
func mapError(err error) (int, string) {
	var sigErr *core.SigningError
	var netErr *core.NetworkError

	switch {
	case errors.Is(err, core.ErrGeoRestricted):
		return http.StatusForbidden, "service not available in this country"
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, "session rejected by backend"
	case errors.Is(err, core.ErrUnsupportedWalletKind):
		return http.StatusBadRequest, "wallet kind cannot authenticate"
	case errors.Is(err, core.ErrNoAddress):
		return http.StatusBadRequest, "wallet has no address"
	case errors.As(err, &sigErr):
		return http.StatusUnprocessableEntity, "wallet declined to sign"
	case errors.As(err, &netErr):
		return http.StatusBadGateway, "backend unreachable"
	default:
		return http.StatusInternalServerError, "authentication failed"
	}
}
