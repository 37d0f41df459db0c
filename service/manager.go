package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/layer-3/garuda/core"
	"github.com/layer-3/garuda/ports"
)

// authCall is one in-flight authentication. Concurrent callers for the same
// wallet await the same call instead of spending a second challenge.
type authCall struct {
	done  chan struct{}
	token string
	err   error
}

// Deps are the collaborators a Manager is assembled from. Events, Launcher,
// Links and OnChange are optional.
type Deps struct {
	Store       *SessionStore
	Negotiator  *Negotiator
	Credentials ports.CredentialSource
	Events      ports.EventPublisher
	Launcher    ports.Launcher
	Links       *Composer
	Logger      *slog.Logger
	// OnChange is invoked after every observable state transition
	// (processing or availability), for UI gating.
	OnChange func()
}

// Manager owns the per-wallet cache of bearer tokens. It authenticates
// lazily on demand, invalidates on server-reported unauthorized, tracks
// backend availability from the bulk connect probe, and guarantees at most
// one in-flight authentication per wallet.
type Manager struct {
	store       *SessionStore
	negotiator  *Negotiator
	credentials ports.CredentialSource
	events      ports.EventPublisher
	launcher    ports.Launcher
	links       *Composer
	log         *slog.Logger
	onChange    func()

	mu       sync.Mutex
	sessions core.SessionMap
	inflight map[core.WalletID]*authCall

	processing atomic.Int32
	available  atomic.Bool
}

// NewManager assembles a manager and hydrates its session map from the
// store. Availability starts pessimistic until the first Connect.
func NewManager(ctx context.Context, deps Deps) *Manager {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store:       deps.Store,
		negotiator:  deps.Negotiator,
		credentials: deps.Credentials,
		events:      deps.Events,
		launcher:    deps.Launcher,
		links:       deps.Links,
		log:         log,
		onChange:    deps.OnChange,
		sessions:    deps.Store.Load(ctx),
		inflight:    make(map[core.WalletID]*authCall),
	}
}

// IsProcessing reports whether any authentication is in flight.
func (m *Manager) IsProcessing() bool {
	return m.processing.Load() > 0
}

// IsAvailable reports the availability derived from the last Connect probe:
// backend reachable and not geo-blocking this user.
func (m *Manager) IsAvailable() bool {
	return m.available.Load()
}

// GetAccessToken returns a valid bearer token for walletID, authenticating
// against the backend when the cached token is absent or expired. On
// failure the session map is left unmodified and the error keeps its kind
// (geo-restricted, signing, network) intact.
func (m *Manager) GetAccessToken(ctx context.Context, walletID core.WalletID) (string, error) {
	m.mu.Lock()
	if token, ok := m.sessions[walletID]; ok && TokenValid(token) {
		m.mu.Unlock()
		return token, nil
	}
	if call, ok := m.inflight[walletID]; ok {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &authCall{done: make(chan struct{})}
	m.inflight[walletID] = call
	m.mu.Unlock()

	m.beginProcessing()
	token, address, err := m.authenticate(ctx, walletID)
	call.token, call.err = token, err

	m.mu.Lock()
	delete(m.inflight, walletID)
	if err == nil {
		m.sessions[walletID] = token
		// Persisting inside the critical section makes the map mutation
		// and its durable write one step for every other manager caller.
		if saveErr := m.store.Save(ctx, m.sessions.Clone()); saveErr != nil {
			m.log.Error("failed to persist session", "walletId", walletID, "error", saveErr)
		}
	}
	m.mu.Unlock()
	close(call.done)
	m.endProcessing()

	if err != nil {
		return "", err
	}

	m.publishAuthenticated(ctx, walletID, address)
	return token, nil
}

// ResetAccessToken drops walletID's session and persists the change. This
// is the invalidate-and-retry signal for a downstream 401: the next
// GetAccessToken re-authenticates.
func (m *Manager) ResetAccessToken(ctx context.Context, walletID core.WalletID) error {
	m.mu.Lock()
	_, existed := m.sessions[walletID]
	delete(m.sessions, walletID)
	var err error
	if existed {
		err = m.store.Save(ctx, m.sessions.Clone())
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}

	if existed && m.events != nil {
		if pubErr := m.events.PublishInvalidated(ctx, walletID); pubErr != nil {
			m.log.Warn("failed to publish session invalidation", "walletId", walletID, "error", pubErr)
		}
	}
	return nil
}

// Connect probes every wallet concurrently and derives availability from
// the outcome: all success means available, any geo-restriction means
// unavailable (and is not propagated), anything else propagates joined and
// leaves availability untouched. Idempotent; safe to re-run on every
// foreground or wallet-list change.
func (m *Manager) Connect(ctx context.Context, walletIDs []core.WalletID) error {
	if len(walletIDs) == 0 {
		return nil
	}

	results := make(chan error, len(walletIDs))
	for _, walletID := range walletIDs {
		go func(walletID core.WalletID) {
			_, err := m.GetAccessToken(ctx, walletID)
			results <- err
		}(walletID)
	}

	geoRestricted := false
	var failures []error
	for range walletIDs {
		err := <-results
		switch {
		case err == nil:
		case errors.Is(err, core.ErrGeoRestricted):
			geoRestricted = true
		default:
			failures = append(failures, err)
		}
	}

	if geoRestricted {
		m.setAvailable(ctx, false)
	}
	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	if !geoRestricted {
		m.setAvailable(ctx, true)
	}
	return nil
}

// Reset clears every session, durable and in-memory. Full logout.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.sessions = core.SessionMap{}
	err := m.store.Clear(ctx)
	m.mu.Unlock()
	return err
}

// OpenServices obtains a token for walletID, composes the services
// hand-off link and launches it. The launch is fire-and-forget: the OS
// hand-off is not awaited for success.
func (m *Manager) OpenServices(ctx context.Context, walletID core.WalletID, balances []BalanceDescriptor, serviceName string) error {
	token, err := m.GetAccessToken(ctx, walletID)
	if err != nil {
		return err
	}

	link, err := m.links.BuildServiceURL(token, balances, serviceName)
	if err != nil {
		return err
	}

	if err := m.launcher.Open(link.String()); err != nil {
		m.log.Warn("failed to launch services URL", "walletId", walletID, "error", err)
	}
	return nil
}

// authenticate resolves the wallet's material and runs the negotiation.
// Results for wallets deleted while in flight are harmless: the map write
// happens regardless and the entry is simply never read again.
func (m *Manager) authenticate(ctx context.Context, walletID core.WalletID) (token, address string, err error) {
	material, err := m.credentials.AuthMaterial(walletID)
	if err != nil {
		return "", "", err
	}
	token, err = m.negotiator.Authenticate(ctx, material)
	return token, material.Address, err
}

func (m *Manager) beginProcessing() {
	if m.processing.Add(1) == 1 {
		m.notify()
	}
}

func (m *Manager) endProcessing() {
	if m.processing.Add(-1) == 0 {
		m.notify()
	}
}

func (m *Manager) setAvailable(ctx context.Context, available bool) {
	if m.available.Swap(available) == available {
		return
	}
	m.notify()
	if m.events != nil {
		if err := m.events.PublishAvailability(ctx, available); err != nil {
			m.log.Warn("failed to publish availability change", "error", err)
		}
	}
}

func (m *Manager) publishAuthenticated(ctx context.Context, walletID core.WalletID, address string) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishAuthenticated(ctx, walletID, address); err != nil {
		m.log.Warn("failed to publish authentication event", "walletId", walletID, "error", err)
	}
}

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}
