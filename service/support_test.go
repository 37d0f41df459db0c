package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/garuda/core"
)

// testToken mints a decodable JWT with the given expiry. The codec never
// verifies signatures, so any signing key works.
func testToken(t *testing.T, exp time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func authOK(t *testing.T, token string) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(authResponse{AccessToken: token})
	require.NoError(t, err)
	return data
}

type apiCall struct {
	Method string
	Path   string
	Body   any
	Bearer string
}

// fakeAPI scripts the backend with a single handler and records every call.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	handler func(call apiCall) (json.RawMessage, error)
}

func (f *fakeAPI) Call(ctx context.Context, method, path string, body any, bearer string) (json.RawMessage, error) {
	call := apiCall{Method: method, Path: path, Body: body, Bearer: bearer}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	handler := f.handler
	f.mu.Unlock()

	return handler(call)
}

// count returns how many recorded calls target a path prefix.
func (f *fakeAPI) count(pathPrefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, call := range f.calls {
		if strings.HasPrefix(call.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// fakeSigner returns a fixed signature, or err when set.
type fakeSigner struct {
	signature string
	err       error

	mu    sync.Mutex
	calls []string
}

func (f *fakeSigner) Sign(ctx context.Context, message, address string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, message)
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	return f.signature, nil
}

// fakeCredentials resolves material from a static map.
type fakeCredentials struct {
	material map[core.WalletID]core.AuthMaterial
}

func (f *fakeCredentials) AuthMaterial(walletID core.WalletID) (core.AuthMaterial, error) {
	material, ok := f.material[walletID]
	if !ok {
		return core.AuthMaterial{}, core.ErrUnsupportedWalletKind
	}
	return material, nil
}

// fakeKV is an in-memory KV with optional forced errors.
type fakeKV struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return "", false, f.getErr
	}
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value
	return nil
}

func (f *fakeKV) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.values, key)
	return nil
}

// fakeLauncher records launched URLs.
type fakeLauncher struct {
	mu   sync.Mutex
	urls []string
}

func (f *fakeLauncher) Open(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.urls = append(f.urls, url)
	return nil
}
