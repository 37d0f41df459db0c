package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/layer-3/garuda/core"
	"github.com/layer-3/garuda/ports"
)

// sessionKey is the single KV key the wallet-to-token map lives under.
const sessionKey = "garuda:sessions"

// SessionStore persists the session map through a durable KV backend. It is
// written synchronously on every mutation so a crash can neither lose a
// just-obtained token nor resurrect a revoked one.
type SessionStore struct {
	kv  ports.KV
	log *slog.Logger
}

// NewSessionStore creates a session store on top of kv.
func NewSessionStore(kv ports.KV, log *slog.Logger) *SessionStore {
	if log == nil {
		log = slog.Default()
	}
	return &SessionStore{kv: kv, log: log}
}

// Load reads the persisted session map. Missing or corrupt data yields an
// empty map, never an error; a corrupt blob is logged and discarded.
func (s *SessionStore) Load(ctx context.Context) core.SessionMap {
	value, ok, err := s.kv.Get(ctx, sessionKey)
	if err != nil {
		s.log.Warn("failed to read persisted sessions", "error", err)
		return core.SessionMap{}
	}
	if !ok || value == "" {
		return core.SessionMap{}
	}

	var sessions core.SessionMap
	if err := json.Unmarshal([]byte(value), &sessions); err != nil {
		s.log.Warn("discarding corrupt session data", "error", err)
		return core.SessionMap{}
	}
	if sessions == nil {
		sessions = core.SessionMap{}
	}

	return sessions
}

// Save overwrites the persisted session map.
func (s *SessionStore) Save(ctx context.Context, sessions core.SessionMap) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist sessions: %w", err)
	}
	return nil
}

// Clear removes all persisted sessions.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, sessionKey); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	return nil
}
