package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/layer-3/garuda/core"
	"github.com/layer-3/garuda/ports"
)

const (
	// AuthenticatedTopic carries successful wallet authentications.
	AuthenticatedTopic = "garuda.session.authenticated"

	// InvalidatedTopic carries explicit session invalidations.
	InvalidatedTopic = "garuda.session.invalidated"

	// AvailabilityTopic carries availability transitions from the bulk probe.
	AvailabilityTopic = "garuda.session.availability"
)

// AuthenticatedEvent is published after a wallet obtains a session.
type AuthenticatedEvent struct {
	WalletID string    `json:"wallet_id"`
	Address  string    `json:"address"`
	At       time.Time `json:"at"`
}

// InvalidatedEvent is published when a wallet's session is dropped.
type InvalidatedEvent struct {
	WalletID string    `json:"wallet_id"`
	At       time.Time `json:"at"`
}

// AvailabilityEvent is published when derived availability flips.
type AvailabilityEvent struct {
	Available bool      `json:"available"`
	At        time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher port using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

func (p *WatermillPublisher) PublishAuthenticated(ctx context.Context, walletID core.WalletID, address string) error {
	return p.publish(AuthenticatedTopic, AuthenticatedEvent{
		WalletID: string(walletID),
		Address:  address,
		At:       time.Now().UTC(),
	})
}

func (p *WatermillPublisher) PublishInvalidated(ctx context.Context, walletID core.WalletID) error {
	return p.publish(InvalidatedTopic, InvalidatedEvent{
		WalletID: string(walletID),
		At:       time.Now().UTC(),
	})
}

func (p *WatermillPublisher) PublishAvailability(ctx context.Context, available bool) error {
	return p.publish(AvailabilityTopic, AvailabilityEvent{
		Available: available,
		At:        time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
