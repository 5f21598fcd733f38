package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/yt-showcase/internal/metrics"
	"github.com/yt-showcase/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// LoadClientConfig reads a Google client-secret file and builds the OAuth config for scopes
func LoadClientConfig(path string, scopes []string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewAuthenticationError(fmt.Sprintf("failed to read client secret file %s", path), err)
	}

	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, models.NewAuthenticationError("invalid client secret file", err)
	}
	return cfg, nil
}

// Provider hands out a usable credential, refreshing and persisting it as needed
type Provider struct {
	oauth  *oauth2.Config
	store  Store
	scopes []string
	logger *slog.Logger

	// serializes load-refresh-save on the cache file
	mu sync.Mutex
}

// NewProvider creates a credential provider backed by store
func NewProvider(oauthCfg *oauth2.Config, store Store, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		oauth:  oauthCfg,
		store:  store,
		scopes: oauthCfg.Scopes,
		logger: logger,
	}
}

// Credential returns a valid credential. An expired credential with a refresh token is
// refreshed and written back. A missing or unusable one yields an
// AuthenticationRequired error; the consent flow is never started from here.
func (p *Provider) Credential(ctx context.Context) (*Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cred, err := p.store.Load()
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, models.NewAuthenticationRequired("no cached credential; run the authorize command")
	case errors.Is(err, ErrPassphraseRequired), errors.Is(err, ErrBadPassphrase):
		return nil, models.NewAuthenticationError("failed to open credential cache", err)
	case err != nil:
		p.logger.Warn("discarding unreadable credential cache", slog.Any("error", err))
		return nil, models.NewAuthenticationRequired("cached credential is unreadable; run the authorize command")
	}
	metrics.CredentialEvents.WithLabelValues("loaded").Inc()

	if !cred.Covers(p.scopes) {
		return nil, models.NewAuthenticationRequired("cached credential lacks the required scopes; run the authorize command")
	}
	if cred.Valid() {
		return cred, nil
	}
	if !cred.CanRefresh() {
		return nil, models.NewAuthenticationRequired("cached credential expired without a refresh token; run the authorize command")
	}

	p.logger.Info("refreshing expired credential", slog.Time("expiry", cred.Expiry))
	tok, err := p.oauth.TokenSource(ctx, cred.Token()).Token()
	if err != nil {
		return nil, models.NewAuthenticationError("failed to refresh credential", err)
	}
	metrics.CredentialEvents.WithLabelValues("refreshed").Inc()

	refreshed := FromToken(tok, cred.Scopes)
	if err := p.save(refreshed); err != nil {
		return nil, models.NewAuthenticationError("failed to persist refreshed credential", err)
	}
	return refreshed, nil
}

// Client returns an HTTP client that authorizes requests with the current credential.
// Tokens refreshed by the client while in use are persisted as well.
func (p *Provider) Client(ctx context.Context) (*http.Client, error) {
	cred, err := p.Credential(ctx)
	if err != nil {
		return nil, err
	}

	tok := cred.Token()
	src := &persistingSource{
		base:     oauth2.ReuseTokenSource(tok, p.oauth.TokenSource(ctx, tok)),
		provider: p,
		scopes:   cred.Scopes,
		last:     tok.AccessToken,
	}
	return oauth2.NewClient(ctx, src), nil
}

func (p *Provider) save(cred *Credential) error {
	if err := p.store.Save(cred); err != nil {
		return err
	}
	metrics.CredentialEvents.WithLabelValues("persisted").Inc()
	return nil
}

// persistingSource writes back tokens that differ from the last one it saw
type persistingSource struct {
	base     oauth2.TokenSource
	provider *Provider
	scopes   []string

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken

	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	metrics.CredentialEvents.WithLabelValues("refreshed").Inc()
	if err := s.provider.save(FromToken(tok, s.scopes)); err != nil {
		s.provider.logger.Error("failed to persist refreshed credential", slog.Any("error", err))
	}
	return tok, nil
}
