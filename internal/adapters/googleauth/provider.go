// Package googleauth supplies bearer tokens for a service account impersonating a Workspace user.
package googleauth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	"github.com/Liad-hossain/test-voice-export/internal/ports"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Config holds the inputs for a domain-wide delegated token source.
type Config struct {
	// CredentialsJSON is a service account key file.
	CredentialsJSON []byte
	// Subject is the user to impersonate. Empty means the service account itself.
	Subject string
	Scopes  []string
	// TokenURL overrides the token endpoint from the key file.
	TokenURL string
}

// Provider implements ports.TokenProvider on top of an oauth2 JWT token source.
// Tokens are cached and refreshed shortly before expiry.
type Provider struct {
	source oauth2.TokenSource
	email  string
}

var _ ports.TokenProvider = (*Provider)(nil)

// NewProvider parses the service account key and builds a reusable token source.
// ctx is only used to pick the HTTP client for the token exchange (see oauth2.HTTPClient).
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if len(cfg.CredentialsJSON) == 0 {
		return nil, apperrors.Auth("service account credentials are required")
	}
	if len(cfg.Scopes) == 0 {
		return nil, apperrors.Auth("at least one oauth scope is required")
	}

	jwtCfg, err := google.JWTConfigFromJSON(cfg.CredentialsJSON, cfg.Scopes...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeAuth, "parse service account credentials")
	}
	jwtCfg.Subject = strings.TrimSpace(cfg.Subject)
	if cfg.TokenURL != "" {
		jwtCfg.TokenURL = cfg.TokenURL
	}

	return &Provider{
		source: oauth2.ReuseTokenSource(nil, jwtCfg.TokenSource(ctx)),
		email:  jwtCfg.Email,
	}, nil
}

// Token returns a valid access token, exchanging the signed assertion when the cached one expired.
func (p *Provider) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.MapTransportError(err, "fetch access token")
	}
	tok, err := p.source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", apperrors.Wrapf(err, apperrors.ErrCodeAuth, "token exchange for %s rejected", p.email)
		}
		return "", apperrors.Wrapf(err, apperrors.ErrCodeAuth, "fetch access token for %s", p.email)
	}
	if tok.AccessToken == "" {
		return "", apperrors.Authf("token endpoint returned an empty access token for %s", p.email)
	}
	return tok.AccessToken, nil
}

// TokenSource exposes the cached source for Google API clients.
func (p *Provider) TokenSource() oauth2.TokenSource {
	return p.source
}

// Email is the service account the tokens are minted for.
func (p *Provider) Email() string {
	return p.email
}

// HTTPClient returns a client that attaches the bearer token to every request.
func (p *Provider) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, p.source)
}
