// Package auth is the identity and token broker: it keeps one OAuth
// token source per owner, builds sign-in links whose state parameter is
// a signed owner/session claim, and exchanges authorization codes for
// tokens when the user completes sign-in.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// stateTTL bounds how long a sign-in link stays valid. It matches the
// flow's token wait so an expired link cannot resume an aborted flow.
const stateTTL = 5 * time.Minute

type Broker struct {
	log    *logrus.Entry
	cfg    *oauth2.Config
	secret []byte

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

func New(log *logrus.Logger, cfg *oauth2.Config, secret []byte) *Broker {
	return &Broker{
		log:     log.WithField("component", "auth"),
		cfg:     cfg,
		secret:  secret,
		sources: make(map[string]oauth2.TokenSource),
	}
}

// CachedToken returns a live access token for the owner, or empty if the
// user has to sign in (no cached token, or refresh failed).
func (b *Broker) CachedToken(_ context.Context, ownerKey string) (string, error) {
	b.mu.Lock()
	src, ok := b.sources[ownerKey]
	b.mu.Unlock()
	if !ok {
		return "", nil
	}
	token, err := src.Token()
	if err != nil {
		b.log.Warnf("token refresh failed for owner %s: %v", ownerKey, err)
		b.mu.Lock()
		delete(b.sources, ownerKey)
		b.mu.Unlock()
		return "", nil
	}
	return token.AccessToken, nil
}

// SignInLink builds the authorization URL for the owner/session pair.
func (b *Broker) SignInLink(ownerKey, sessionKey string) string {
	state, err := SignClaims(ownerKey, sessionKey, b.secret, stateTTL)
	if err != nil {
		b.log.Errorf("err signing state for owner %s: %v", ownerKey, err)
		return b.cfg.AuthCodeURL("", oauth2.AccessTypeOffline)
	}
	return b.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange validates the state, trades the authorization code for a
// token, caches a refreshing source for the owner and returns the pair
// the sign-in belongs to together with the access token.
func (b *Broker) Exchange(ctx context.Context, state, code string) (ownerKey, sessionKey, accessToken string, err error) {
	claims, err := ParseClaims(state, b.secret)
	if err != nil {
		return "", "", "", fmt.Errorf("err validating state: %w", err)
	}
	token, err := b.cfg.Exchange(ctx, code)
	if err != nil {
		return "", "", "", fmt.Errorf("err exchanging code: %w", err)
	}
	b.mu.Lock()
	b.sources[claims.OwnerKey] = b.cfg.TokenSource(context.Background(), token)
	b.mu.Unlock()
	return claims.OwnerKey, claims.SessionKey, token.AccessToken, nil
}
