package google

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenExchanger trades signed assertions for access tokens at the token
// endpoint using the JWT-bearer grant (RFC 7523).
type TokenExchanger struct {
	tokenURL   string
	httpClient *http.Client
}

// NewTokenExchanger creates an exchanger posting to tokenURL. A nil client
// uses http.DefaultClient.
func NewTokenExchanger(tokenURL string, httpClient *http.Client) *TokenExchanger {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenExchanger{
		tokenURL:   tokenURL,
		httpClient: httpClient,
	}
}

// Exchange posts the assertion and returns the issued token. A rejection by
// the endpoint is returned as *oauth2.RetrieveError. There is no retry.
func (e *TokenExchanger) Exchange(ctx context.Context, assertion string) (*oauth2.Token, error) {
	conf := &clientcredentials.Config{
		TokenURL:  e.tokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
		EndpointParams: url.Values{
			"grant_type": {JWTBearerGrantType},
			"assertion":  {assertion},
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	return conf.Token(ctx)
}
