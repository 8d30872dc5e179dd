package google

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/instrumentation"
)

// Errors identifying which half of token acquisition failed. Use errors.Is.
var (
	ErrAssertion = errors.New("assertion signing failed")
	ErrExchange  = errors.New("token exchange failed")
)

// TokenProvider is an interface for providing Calendar access tokens.
// This abstraction allows the service-account flow to be cached or replaced in tests.
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// ServiceAccountTokenProvider signs a fresh assertion and exchanges it on
// every call.
type ServiceAccountTokenProvider struct {
	signer    *AssertionSigner
	exchanger *TokenExchanger
	metrics   *instrumentation.Metrics
	now       func() time.Time
}

// NewServiceAccountTokenProvider creates a provider from a signer and exchanger.
func NewServiceAccountTokenProvider(signer *AssertionSigner, exchanger *TokenExchanger) *ServiceAccountTokenProvider {
	return &ServiceAccountTokenProvider{
		signer:    signer,
		exchanger: exchanger,
		now:       time.Now,
	}
}

// NewServiceAccountTokenProviderWithMetrics creates a provider that records
// token exchange outcomes.
func NewServiceAccountTokenProviderWithMetrics(signer *AssertionSigner, exchanger *TokenExchanger, metrics *instrumentation.Metrics) *ServiceAccountTokenProvider {
	p := NewServiceAccountTokenProvider(signer, exchanger)
	p.metrics = metrics
	return p
}

// Token signs an assertion and exchanges it for an access token.
func (p *ServiceAccountTokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	assertion, err := p.signer.Sign(p.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssertion, err)
	}

	token, err := p.exchanger.Exchange(ctx, assertion)
	if err != nil {
		p.record(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("%w: %w", ErrExchange, err)
	}

	p.record(ctx, instrumentation.OAuthResultSuccess)
	return token, nil
}

func (p *ServiceAccountTokenProvider) record(ctx context.Context, result string) {
	if p.metrics != nil {
		p.metrics.RecordTokenExchange(ctx, result)
	}
}

// CachingTokenProvider reuses the last token from the wrapped provider
// until it is no longer valid.
type CachingTokenProvider struct {
	next TokenProvider

	mu    sync.Mutex
	token *oauth2.Token
}

// NewCachingTokenProvider wraps next with an expiry-aware cache.
func NewCachingTokenProvider(next TokenProvider) *CachingTokenProvider {
	return &CachingTokenProvider{next: next}
}

// Token returns the cached token while it is valid, otherwise fetches a new one.
func (c *CachingTokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid() {
		return c.token, nil
	}

	token, err := c.next.Token(ctx)
	if err != nil {
		return nil, err
	}
	c.token = token
	return token, nil
}
