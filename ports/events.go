package ports

import (
	"context"

	"github.com/layer-3/garuda/core"
)

// EventPublisher notifies out-of-process observers about session lifecycle
// changes. Publishing is best effort; failures are logged, never propagated.
type EventPublisher interface {
	PublishAuthenticated(ctx context.Context, walletID core.WalletID, address string) error
	PublishInvalidated(ctx context.Context, walletID core.WalletID) error
	PublishAvailability(ctx context.Context, available bool) error
}
