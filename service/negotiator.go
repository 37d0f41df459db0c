package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/layer-3/garuda/core"
	"github.com/layer-3/garuda/ports"
)

const (
	signMessagePath = "auth/sign-message"
	signInPath      = "auth/sign-in"
	signUpPath      = "auth/sign-up"
	languagePath    = "language"
	userPath        = "user"
)

// defaultLanguageSymbol is the language assigned to freshly created
// accounts when the backend offers it.
const defaultLanguageSymbol = "EN"

// Negotiator executes the challenge/response protocol against the backend:
// fetch the sign message, obtain a signature, sign in, fall back to sign-up
// when the identity is unknown. It performs exactly one round trip per step
// and never retries; retrying is the session manager's call.
type Negotiator struct {
	api    ports.API
	signer ports.Signer
	wallet string
	log    *slog.Logger
}

// NewNegotiator creates a negotiator. walletName identifies the client app
// in sign-in/sign-up payloads.
func NewNegotiator(api ports.API, signer ports.Signer, walletName string, log *slog.Logger) *Negotiator {
	if log == nil {
		log = slog.Default()
	}
	return &Negotiator{api: api, signer: signer, wallet: walletName, log: log}
}

type authRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Wallet    string `json:"wallet,omitempty"`
}

type authResponse struct {
	AccessToken string `json:"accessToken"`
}

type signMessageResponse struct {
	Message string `json:"message"`
}

// Language is a backend language entry.
type Language struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	ForeignName string `json:"foreignName"`
	Enable      bool   `json:"enable"`
}

// Authenticate turns authentication material into a bearer token.
// Interactive material requires a live signature over a freshly fetched
// challenge; proof material is submitted as-is. A 404 on sign-in triggers
// the sign-up fallback, whose success is indistinguishable from sign-in
// for the caller. A 403 surfaces as core.ErrGeoRestricted and never falls
// into sign-up, and neither do network failures.
func (n *Negotiator) Authenticate(ctx context.Context, material core.AuthMaterial) (string, error) {
	if material.Address == "" {
		return "", core.ErrNoAddress
	}

	signature := material.Proof
	if material.Interactive {
		message, err := n.fetchSignMessage(ctx, material.Address)
		if err != nil {
			return "", err
		}

		signature, err = n.signer.Sign(ctx, message, material.Address)
		if err != nil {
			var sigErr *core.SigningError
			if errors.As(err, &sigErr) {
				return "", err
			}
			return "", &core.SigningError{Address: material.Address, Err: err}
		}
	}

	token, created, err := n.createSession(ctx, material.Address, signature)
	if err != nil {
		return "", err
	}

	if created {
		n.setupAccount(ctx, token)
	}

	return token, nil
}

// fetchSignMessage requests the challenge message the wallet must sign
// verbatim. One challenge per attempt, never cached.
func (n *Negotiator) fetchSignMessage(ctx context.Context, address string) (string, error) {
	path := signMessagePath + "?address=" + url.QueryEscape(address)
	raw, err := n.api.Call(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to fetch sign message: %w", err)
	}

	var resp signMessageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("invalid sign message response: %w", err)
	}
	if resp.Message == "" {
		return "", fmt.Errorf("backend returned an empty sign message")
	}

	return resp.Message, nil
}

// createSession signs in and falls back to sign-up on unknown identity.
// The second return value reports whether a fresh account was created.
func (n *Negotiator) createSession(ctx context.Context, address, signature string) (string, bool, error) {
	body := authRequest{Address: address, Signature: signature, Wallet: n.wallet}

	created := false
	raw, err := n.api.Call(ctx, http.MethodPost, signInPath, body, "")
	if errors.Is(err, core.ErrUnknownIdentity) {
		created = true
		raw, err = n.api.Call(ctx, http.MethodPost, signUpPath, body, "")
	}
	if err != nil {
		return "", false, err
	}

	var resp authResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", false, fmt.Errorf("invalid auth response: %w", err)
	}
	if resp.AccessToken == "" {
		return "", false, fmt.Errorf("backend returned an empty access token")
	}

	return resp.AccessToken, created, nil
}

// setupAccount assigns the default language to a freshly created account.
// Best effort: failures are logged and swallowed, the session is already
// established and must not be failed by account cosmetics.
func (n *Negotiator) setupAccount(ctx context.Context, token string) {
	raw, err := n.api.Call(ctx, http.MethodGet, languagePath, nil, token)
	if err != nil {
		n.log.Warn("failed to fetch languages for new account", "error", err)
		return
	}

	var languages []Language
	if err := json.Unmarshal(raw, &languages); err != nil {
		n.log.Warn("invalid language list for new account", "error", err)
		return
	}

	var language *Language
	for i := range languages {
		if languages[i].Enable && languages[i].Symbol == defaultLanguageSymbol {
			language = &languages[i]
			break
		}
	}
	if language == nil {
		return
	}

	update := map[string]any{"language": language}
	if _, err := n.api.Call(ctx, http.MethodPut, userPath, update, token); err != nil {
		n.log.Warn("failed to set language on new account", "error", err)
	}
}
