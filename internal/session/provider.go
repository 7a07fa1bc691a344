package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"
)

// Identity is what a completed sign-in yields.
type Identity struct {
	Subject string
	Email   string
	Name    string
	IDToken string
}

// Provider drives the authorization code flow against an identity provider.
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

// OIDCConfig configures the relying party.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	HTTPClient   *http.Client
}

type oidcProvider struct {
	party rp.RelyingParty
}

// NewOIDCProvider discovers the issuer and returns a Provider requesting the
// openid, profile and email scopes.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (Provider, error) {
	var opts []rp.Option
	if cfg.HTTPClient != nil {
		opts = append(opts, rp.WithHTTPClient(cfg.HTTPClient))
	}
	party, err := rp.NewRelyingPartyOIDC(ctx, cfg.Issuer, cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI,
		[]string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail}, opts...)
	if err != nil {
		return nil, fmt.Errorf("discover issuer %s: %w", cfg.Issuer, err)
	}
	return &oidcProvider{party: party}, nil
}

func (p *oidcProvider) AuthURL(state string) string {
	return rp.AuthURL(state, p.party)
}

func (p *oidcProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	tokens, err := rp.CodeExchange[*oidc.IDTokenClaims](ctx, code, p.party)
	if err != nil {
		return Identity{}, fmt.Errorf("exchange code: %w", err)
	}
	claims := tokens.IDTokenClaims
	if claims == nil {
		return Identity{}, fmt.Errorf("exchange code: token response carried no id token")
	}
	return Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		IDToken: tokens.IDToken,
	}, nil
}

// LogoutURL builds the issuer's logout endpoint returning the browser to returnTo.
func LogoutURL(domain, clientID, returnTo string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("returnTo", returnTo)
	return "https://" + strings.TrimSuffix(domain, "/") + "/v2/logout?" + q.Encode()
}
