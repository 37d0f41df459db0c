package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// BalanceDescriptor is one asset balance handed to the services web flow,
// rendered as "amount@ASSET".
type BalanceDescriptor struct {
	Amount decimal.Decimal
	Asset  string
}

func (b BalanceDescriptor) String() string {
	return b.Amount.String() + "@" + b.Asset
}

// Composer builds the outbound URL that hands a session token plus context
// over to the backend's embedded web flow. Pure: no side effects, and no
// failure mode beyond a malformed service segment.
type Composer struct {
	base        url.URL
	blockchain  string
	redirectURI string
	locale      string
}

// NewComposer parses the services base URL once. blockchain, redirectURI
// and locale are embedded in every link; locale may be empty.
func NewComposer(baseURL, blockchain, redirectURI, locale string) (*Composer, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid services URL: %w", err)
	}
	return &Composer{
		base:        *base,
		blockchain:  blockchain,
		redirectURI: redirectURI,
		locale:      locale,
	}, nil
}

// BuildServiceURL composes the hand-off link. service selects the web flow
// (e.g. "buy", "sell") and may be empty for the service landing page.
// Every dynamic component is percent-encoded.
func (c *Composer) BuildServiceURL(token string, balances []BalanceDescriptor, service string) (*url.URL, error) {
	u := c.base
	if service != "" {
		if strings.ContainsAny(service, "/?#") {
			return nil, fmt.Errorf("invalid service segment %q", service)
		}
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + service
	}

	rendered := make([]string, 0, len(balances))
	for _, b := range balances {
		rendered = append(rendered, b.String())
	}

	query := u.Query()
	query.Set("session", token)
	if c.blockchain != "" {
		query.Set("blockchain", c.blockchain)
	}
	if len(rendered) > 0 {
		query.Set("balances", strings.Join(rendered, ","))
	}
	if c.locale != "" {
		query.Set("lang", c.locale)
	}
	if c.redirectURI != "" {
		query.Set("redirect-uri", c.redirectURI)
	}
	u.RawQuery = query.Encode()

	return &u, nil
}
