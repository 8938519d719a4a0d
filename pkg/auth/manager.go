// Package auth owns the OAuth2 credential lifecycle for the calendar
// integration: acquisition, caching, refresh, and revocation. The manager is
// the single writer of the persisted credential state.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/calendar/v3" // Used for calendar.CalendarEventsScope

	"github.com/buildzap/QuickNotesAI-sub002/pkg/statestore"
	"github.com/buildzap/QuickNotesAI-sub002/pkg/syncerr"
)

// State tracks the manager's lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateExpired
	StateRefreshing
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateExpired:
		return "expired"
	case StateRefreshing:
		return "refreshing"
	case StateRevoked:
		return "revoked"
	default:
		return "uninitialized"
	}
}

// RevokeEndpoint receives the best-effort revocation POST.
const RevokeEndpoint = "https://oauth2.googleapis.com/revoke"

// Config carries everything needed to construct the token client.
type Config struct {
	ClientID     string
	ClientSecret string
	APIKey       string
	RedirectURL  string
	// AuthorizedDomains lists the hosts allowed to run the consent flow.
	// The RedirectURL host must be a member.
	AuthorizedDomains []string
	// Principal scopes the persisted credential to the signed-in account.
	Principal string
	Scopes    []string
	// RevokeURL overrides the provider revocation endpoint.
	RevokeURL string

	SetupTimeout   time.Duration
	ConsentTimeout time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration
}

// ConsentFlow is the single asynchronous consent operation: it resolves to a
// token, a cancellation, or an error.
type ConsentFlow interface {
	Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)
}

// Manager is the token manager. All credential reads go through Token; the
// persisted state store is mutated here and nowhere else.
type Manager struct {
	cfg     Config
	store   *statestore.Store
	consent ConsentFlow
	log     *zap.Logger

	mu    sync.Mutex
	state State
	oauth *oauth2.Config
	cred  *oauth2.Token

	group singleflight.Group
}

// NewManager builds an uninitialized manager; call Init before Token.
func NewManager(cfg Config, store *statestore.Store, consent ConsentFlow, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Principal == "" {
		cfg.Principal = "default"
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{calendar.CalendarEventsScope}
	}
	if cfg.SetupTimeout <= 0 {
		cfg.SetupTimeout = 8 * time.Second
	}
	if cfg.ConsentTimeout <= 0 {
		cfg.ConsentTimeout = 5 * time.Minute
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = syncerr.DefaultAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = syncerr.DefaultBackoff
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = RevokeEndpoint
	}
	return &Manager{cfg: cfg, store: store, consent: consent, log: log}
}

// Init validates the configuration, constructs the token client, and loads
// any persisted credential. Validation failures are fatal ConfigInvalid
// errors; no retry applies.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateInitializing

	if m.cfg.ClientID == "" {
		m.state = StateUninitialized
		return syncerr.New(syncerr.KindConfigInvalid, "missing OAuth client id")
	}
	if m.cfg.APIKey == "" {
		m.state = StateUninitialized
		return syncerr.New(syncerr.KindConfigInvalid, "missing API key")
	}
	if err := m.checkAuthorizedDomain(); err != nil {
		m.state = StateUninitialized
		return err
	}

	m.oauth = &oauth2.Config{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		RedirectURL:  m.cfg.RedirectURL,
		Scopes:       m.cfg.Scopes,
		Endpoint:     google.Endpoint,
	}

	if m.store != nil {
		cred, found, err := m.store.Credential(m.cfg.Principal)
		if err != nil {
			m.log.Warn("could not load persisted credential", zap.Error(err))
		} else if found {
			m.cred = &oauth2.Token{
				AccessToken:  cred.AccessToken,
				RefreshToken: cred.RefreshToken,
				TokenType:    "Bearer",
				Expiry:       cred.Expiry,
			}
		}
	}

	if m.cred != nil && m.cred.Valid() {
		m.state = StateReady
	} else {
		m.state = StateExpired
	}
	m.log.Debug("token manager initialized", zap.String("state", m.state.String()))
	return nil
}

func (m *Manager) checkAuthorizedDomain() error {
	if len(m.cfg.AuthorizedDomains) == 0 {
		return nil
	}
	u, err := url.Parse(m.cfg.RedirectURL)
	if err != nil || u.Hostname() == "" {
		return syncerr.New(syncerr.KindConfigInvalid, fmt.Sprintf("unparsable redirect URL %q", m.cfg.RedirectURL))
	}
	host := u.Hostname()
	for _, domain := range m.cfg.AuthorizedDomains {
		if strings.EqualFold(host, domain) {
			return nil
		}
	}
	return syncerr.New(syncerr.KindConfigInvalid, fmt.Sprintf("origin %q is not an authorized domain", host))
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the cached credential while it is valid, refreshing or
// re-consenting otherwise. Concurrent callers during an acquisition await
// the same in-flight operation instead of triggering a second prompt.
func (m *Manager) Token(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	switch m.state {
	case StateUninitialized, StateInitializing:
		m.mu.Unlock()
		return nil, syncerr.New(syncerr.KindConfigInvalid, "token manager is not initialized")
	case StateRevoked:
		m.mu.Unlock()
		return nil, syncerr.New(syncerr.KindAuthExpired, "calendar access was disconnected")
	}
	if m.cred != nil && m.cred.Valid() {
		tok := *m.cred
		m.mu.Unlock()
		return &tok, nil
	}
	m.state = StateRefreshing
	m.mu.Unlock()

	result, err, _ := m.group.Do("token", func() (interface{}, error) {
		return m.acquire(ctx)
	})
	if err != nil {
		m.mu.Lock()
		if m.state == StateRefreshing {
			m.state = StateExpired
		}
		m.mu.Unlock()
		return nil, err
	}
	return result.(*oauth2.Token), nil
}

func (m *Manager) acquire(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	prior := m.cred
	oauthCfg := m.oauth
	m.mu.Unlock()

	var tok *oauth2.Token

	// Silent refresh first when a prior grant exists; the provider sees the
	// equivalent of prompt=''.
	if prior != nil && prior.RefreshToken != "" {
		err := syncerr.Retry(ctx, m.cfg.RetryAttempts, m.cfg.RetryBackoff, func() error {
			refreshed, refreshErr := oauthCfg.TokenSource(ctx, prior).Token()
			if refreshErr != nil {
				return refreshErr
			}
			tok = refreshed
			return nil
		})
		if err != nil {
			kind := syncerr.KindOf(err)
			if kind != syncerr.KindAuthExpired {
				return nil, err
			}
			// Grant gone; fall through to explicit consent.
			m.log.Info("silent refresh rejected, requesting consent")
			tok = nil
		}
	}

	if tok == nil {
		if m.consent == nil {
			return nil, syncerr.New(syncerr.KindAuthExpired, "no stored grant and no consent flow available")
		}
		consentCtx, cancel := context.WithTimeout(ctx, m.cfg.ConsentTimeout)
		defer cancel()
		granted, err := m.consent.Authorize(consentCtx, oauthCfg)
		if err != nil {
			return nil, syncerr.Classify(err)
		}
		tok = granted
	}

	// Refreshes may omit the refresh token; carry the prior one forward.
	if tok.RefreshToken == "" && prior != nil {
		tok.RefreshToken = prior.RefreshToken
	}

	m.mu.Lock()
	cached := *tok
	m.cred = &cached
	m.state = StateReady
	m.mu.Unlock()

	if m.store != nil {
		err := m.store.SaveCredential(m.cfg.Principal, statestore.Credential{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			Expiry:       tok.Expiry,
		})
		if err != nil {
			m.log.Warn("could not persist credential", zap.Error(err))
		}
	}

	return tok, nil
}

// Invalidate discards the cached access token so the next Token call
// refreshes, keeping the refresh token for the silent path.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred != nil {
		m.cred.Expiry = time.Now().Add(-time.Minute)
	}
	if m.state == StateReady {
		m.state = StateExpired
	}
}

// Revoke calls the provider revocation endpoint best-effort and clears all
// local credential state. It is idempotent; an unreachable endpoint never
// blocks the local clearing.
func (m *Manager) Revoke(ctx context.Context) error {
	m.mu.Lock()
	cred := m.cred
	m.cred = nil
	m.state = StateRevoked
	m.mu.Unlock()

	if cred != nil && cred.AccessToken != "" {
		m.revokeRemote(ctx, cred.AccessToken)
	}

	if m.store != nil {
		if err := m.store.ClearCredential(m.cfg.Principal); err != nil {
			return syncerr.Wrap(syncerr.KindTransient, "failed to clear stored credential", err)
		}
	}
	m.log.Info("calendar access revoked")
	return nil
}

func (m *Manager) revokeRemote(ctx context.Context, accessToken string) {
	reqCtx, cancel := context.WithTimeout(ctx, m.cfg.SetupTimeout)
	defer cancel()

	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, m.cfg.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		m.log.Warn("could not build revocation request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		m.log.Warn("revocation endpoint unreachable", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		m.log.Warn("revocation endpoint rejected token",
			zap.String("kind", string(syncerr.ClassifyStatus(resp.StatusCode).Kind)))
	}
}

// Client returns an HTTP client whose requests carry credentials from this
// manager, refreshing transparently as tokens expire.
func (m *Manager) Client(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, managerSource{ctx: ctx, m: m})
}

type managerSource struct {
	ctx context.Context
	m   *Manager
}

func (s managerSource) Token() (*oauth2.Token, error) {
	return s.m.Token(s.ctx)
}
