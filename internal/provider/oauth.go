package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"knowledge_sync/internal/domain"
)

const defaultRefreshLeeway = 5 * time.Minute

// OAuthRefresher refreshes expiring OAuth2 tokens with a refresh token.
type OAuthRefresher struct {
	config *oauth2.Config
	leeway time.Duration
	now    func() time.Time
}

func NewOAuthRefresher(cfg *oauth2.Config) *OAuthRefresher {
	return &OAuthRefresher{config: cfg, leeway: defaultRefreshLeeway, now: time.Now}
}

// RefreshIfNeeded returns rotated credentials when the access token expires
// within the leeway. The bool reports whether anything changed.
func (r *OAuthRefresher) RefreshIfNeeded(ctx context.Context, creds domain.Credentials) (domain.Credentials, bool, error) {
	if r == nil || r.config == nil || creds.RefreshToken == "" {
		return creds, false, nil
	}
	if creds.ExpiresAt != nil && creds.ExpiresAt.Sub(r.now()) > r.leeway {
		return creds, false, nil
	}

	// An expiry in the past forces the token source to hit the token endpoint.
	stale := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       r.now().Add(-time.Minute),
	}
	tok, err := r.config.TokenSource(ctx, stale).Token()
	if err != nil {
		return creds, false, fmt.Errorf("refresh token: %w", err)
	}

	next := domain.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		next.ExpiresAt = &exp
	}
	return next, next.AccessToken != creds.AccessToken, nil
}

// TokenSource returns a token source for already-fresh credentials.
func (r *OAuthRefresher) TokenSource(ctx context.Context, creds domain.Credentials) oauth2.TokenSource {
	tok := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}
	if creds.ExpiresAt != nil {
		tok.Expiry = *creds.ExpiresAt
	}
	if r == nil || r.config == nil {
		return oauth2.StaticTokenSource(tok)
	}
	return r.config.TokenSource(ctx, tok)
}
