package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/garuda/adapters/store"
	"github.com/layer-3/garuda/adapters/wallet"
	"github.com/layer-3/garuda/core"
	"github.com/layer-3/garuda/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend scripts the wallet backend behind the ports.API interface.
type fakeBackend struct {
	mu      sync.Mutex
	handler func(method, path string) (json.RawMessage, error)
	calls   []string
}

func (b *fakeBackend) Call(ctx context.Context, method, path string, body any, bearer string) (json.RawMessage, error) {
	b.mu.Lock()
	b.calls = append(b.calls, method+" "+path)
	b.mu.Unlock()
	return b.handler(method, path)
}

func (b *fakeBackend) count(pathPrefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, call := range b.calls {
		if strings.HasPrefix(strings.TrimPrefix(call, "POST "), pathPrefix) {
			n++
		}
	}
	return n
}

type staticSigner struct{}

func (staticSigner) Sign(ctx context.Context, message, address string) (string, error) {
	return "0xsigned", nil
}

type recordingLauncher struct {
	mu   sync.Mutex
	urls []string
}

func (l *recordingLauncher) Open(url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.urls = append(l.urls, url)
	return nil
}

func routerToken(t *testing.T) string {
	t.Helper()

	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type routerFixture struct {
	router   *gin.Engine
	backend  *fakeBackend
	registry *wallet.Registry
	launcher *recordingLauncher
	token    string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	token := routerToken(t)
	backend := &fakeBackend{}
	backend.handler = func(method, path string) (json.RawMessage, error) {
		switch {
		case strings.HasPrefix(path, "auth/sign-message"):
			return json.RawMessage(`{"message":"challenge"}`), nil
		case path == "auth/sign-in":
			return json.RawMessage(fmt.Sprintf(`{"accessToken":%q}`, token)), nil
		}
		return nil, fmt.Errorf("unexpected call %s %s", method, path)
	}

	registry := wallet.NewRegistry()
	registry.Register("main", wallet.Entry{Kind: core.WalletKindPrimary, Address: "bc1qmain"})

	composer, err := service.NewComposer("https://services.example.com", "Bitcoin", "wallet://back", "en")
	require.NoError(t, err)

	launcher := &recordingLauncher{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := service.NewManager(context.Background(), service.Deps{
		Store:       service.NewSessionStore(store.NewMemoryStore(), log),
		Negotiator:  service.NewNegotiator(backend, staticSigner{}, "Test Wallet", log),
		Credentials: registry,
		Launcher:    launcher,
		Links:       composer,
		Logger:      log,
	})

	return &routerFixture{
		router:   SetupRouter(manager, registry, log),
		backend:  backend,
		registry: registry,
		launcher: launcher,
		token:    token,
	}
}

func (f *routerFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestTokenEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/session/main/token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"accessToken":%q}`, f.token), rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	// Second request is served from cache.
	rec = f.do(t, http.MethodPost, "/session/main/token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.backend.count("auth/sign-in"))
}

func TestTokenEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"geo restricted", &core.APIError{Status: 403}, http.StatusForbidden},
		{"unauthorized", &core.APIError{Status: 401}, http.StatusUnauthorized},
		{"network", &core.NetworkError{Err: fmt.Errorf("timeout")}, http.StatusBadGateway},
		{"backend bug", &core.APIError{Status: 418}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.backend.handler = func(method, path string) (json.RawMessage, error) {
				return nil, tc.err
			}

			rec := f.do(t, http.MethodPost, "/session/main/token", "")
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestTokenEndpointUnknownWallet(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/session/ghost/token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/session/main/token", "").Code)
	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/session/main", "").Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/session/main/token", "").Code)
	assert.Equal(t, 2, f.backend.count("auth/sign-in"))
}

func TestConnectEndpointDefaultsToRegistry(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/session/connect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":true}`, rec.Body.String())
	assert.Equal(t, 1, f.backend.count("auth/sign-in"))
}

func TestConnectEndpointExplicitList(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/session/connect", `{"walletIds":["main"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":true}`, rec.Body.String())
}

func TestConnectEndpointGeoRestriction(t *testing.T) {
	f := newRouterFixture(t)
	f.backend.handler = func(method, path string) (json.RawMessage, error) {
		if strings.HasPrefix(path, "auth/sign-message") {
			return json.RawMessage(`{"message":"challenge"}`), nil
		}
		return nil, &core.APIError{Status: 403}
	}

	rec := f.do(t, http.MethodPost, "/session/connect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":false}`, rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/session/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"processing":false,"available":false}`, rec.Body.String())
}

func TestOpenServicesEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	body := `{"walletId":"main","service":"sell","balances":[{"amount":"0.5","asset":"BTC"}]}`
	rec := f.do(t, http.MethodPost, "/services/open", body)
	require.Equal(t, http.StatusNoContent, rec.Code)

	f.launcher.mu.Lock()
	defer f.launcher.mu.Unlock()
	require.Len(t, f.launcher.urls, 1)
	assert.Contains(t, f.launcher.urls[0], "https://services.example.com/sell?")
	assert.Contains(t, f.launcher.urls[0], "balances=0.5%40BTC")
}

func TestOpenServicesEndpointRejectsMissingWalletID(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/services/open", `{"service":"sell"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetAllEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/session/main/token", "").Code)
	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/session", "").Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/session/main/token", "").Code)
	assert.Equal(t, 2, f.backend.count("auth/sign-in"))
}

func TestWalletLifecycleEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	body := `{"kind":"lightning","address":"lnurl1abc","ownershipProof":"proof"}`
	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPut, "/wallets/ln", body).Code)
	assert.ElementsMatch(t, []core.WalletID{"main", "ln"}, f.registry.IDs())

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/wallets/ln", "").Code)
	assert.ElementsMatch(t, []core.WalletID{"main"}, f.registry.IDs())
}

func TestRegisterWalletRejectsMissingFields(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPut, "/wallets/ln", `{"kind":"lightning"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
