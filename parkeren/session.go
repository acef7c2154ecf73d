package parkeren

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	sessionPath       = "/api/session"
	sessionCookieName = "session"
	loginFlightKey    = "login"
	maxLoginBodySize  = 64 << 10
	maxConnsPerHost   = 10
	logoutTimeout     = 5 * time.Second
)

// SessionState represents the authentication state of a Session
type SessionState int

const (
	// StateUnauthenticated is the initial state; no credential is held
	StateUnauthenticated SessionState = iota
	// StateAuthenticating means a login exchange is in flight
	StateAuthenticating
	// StateAuthenticated means a credential is held and usable
	StateAuthenticated
	// StateInvalid means the last login failed; the next caller logs in again
	StateInvalid
	// StateClosed is terminal
	StateClosed
)

// String returns the string representation of a SessionState
func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateInvalid:
		return "INVALID"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Credential is the opaque session cookie handed out by the upstream
type Credential struct {
	Value     string
	ExpiresAt time.Time
}

// String keeps the cookie value out of formatted output
func (c Credential) String() string {
	if c.Value == "" {
		return "Credential{}"
	}
	return "Credential{[redacted]}"
}

// Expired reports whether the expiry hint has passed. A zero hint never expires.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Session owns the authenticated session against the upstream. All callers
// that need a credential while a login is in flight share that one login.
type Session struct {
	cfg      Config
	secrets  Secrets
	logger   zerolog.Logger
	recorder Recorder
	now      func() time.Time

	customClient *http.Client

	mu         sync.Mutex
	state      SessionState
	cred       Credential
	httpClient *http.Client

	flights singleflight.Group
}

// NewSession creates a Session. It holds no connection resources until Open.
func NewSession(cfg Config, secrets Secrets, logger zerolog.Logger, opts ...Option) *Session {
	o := newClientOptions(opts)
	cfg = cfg.normalize()
	return &Session{
		cfg:          cfg,
		secrets:      secrets,
		logger:       logger.With().Str("component", "session").Logger(),
		recorder:     o.recorder,
		now:          o.now,
		customClient: o.httpClient,
	}
}

// State returns the current session state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open allocates the HTTP transport. Calling it again is a no-op.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked()
}

func (s *Session) openLocked() error {
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if s.httpClient != nil {
		return nil
	}
	if err := s.cfg.validate(); err != nil {
		return err
	}

	if s.customClient != nil {
		s.httpClient = s.customClient
	} else {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxConnsPerHost = maxConnsPerHost
		transport.MaxIdleConnsPerHost = maxConnsPerHost
		s.httpClient = &http.Client{
			Timeout:   s.cfg.Timeout,
			Transport: transport,
		}
	}

	s.logger.Debug().
		Str("base_url", s.cfg.BaseURL).
		Dur("timeout", s.cfg.Timeout).
		Msg("Session opened")
	return nil
}

// client returns the HTTP client, opening the session lazily
func (s *Session) client() (*http.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(); err != nil {
		return nil, err
	}
	return s.httpClient, nil
}

// EnsureAuthenticated returns a usable credential. It does not touch the
// network when the session is already authenticated; otherwise it joins the
// in-flight login or starts one.
func (s *Session) EnsureAuthenticated(ctx context.Context) (Credential, error) {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return Credential{}, ErrSessionClosed
	case StateAuthenticated:
		if !s.cred.Expired(s.now()) {
			cred := s.cred
			s.mu.Unlock()
			return cred, nil
		}
		s.logger.Debug().Msg("Session expiry hint passed, re-authenticating")
		s.state = StateAuthenticating
	}
	if err := s.openLocked(); err != nil {
		s.mu.Unlock()
		return Credential{}, err
	}
	s.mu.Unlock()

	return s.join(ctx)
}

// Reauthenticate replaces a credential the upstream rejected. When another
// caller already replaced stale, the newer credential is returned without a
// second login.
func (s *Session) Reauthenticate(ctx context.Context, stale Credential) (Credential, error) {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return Credential{}, ErrSessionClosed
	case StateAuthenticated:
		if s.cred.Value != stale.Value && !s.cred.Expired(s.now()) {
			cred := s.cred
			s.mu.Unlock()
			return cred, nil
		}
		s.state = StateAuthenticating
	}
	s.mu.Unlock()

	s.logger.Info().Msg("Session rejected by upstream, re-authenticating")
	return s.join(ctx)
}

// join waits for the shared login. Giving up on ctx leaves the login running
// for the other waiters.
func (s *Session) join(ctx context.Context) (Credential, error) {
	ch := s.flights.DoChan(loginFlightKey, s.loginFlight)
	select {
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	}
}

// loginFlight runs at most once at a time under the singleflight group
func (s *Session) loginFlight() (any, error) {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return nil, ErrSessionClosed
	case StateAuthenticated:
		if !s.cred.Expired(s.now()) {
			cred := s.cred
			s.mu.Unlock()
			return cred, nil
		}
	}
	s.state = StateAuthenticating
	client := s.httpClient
	s.mu.Unlock()

	// Detached from every caller: abandoning a wait must not cancel the login.
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	cred, err := s.login(ctx, client)
	elapsed := time.Since(start)
	s.recorder.ObserveLogin(err == nil, elapsed)

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		// Closed mid-login: the upstream still holds the new session.
		if err == nil {
			s.logout(client, cred)
		}
		return nil, ErrSessionClosed
	}
	defer s.mu.Unlock()

	if err != nil {
		s.state = StateInvalid
		s.cred = Credential{}
		s.logger.Error().Err(err).Dur("elapsed", elapsed).Msg("Login failed")
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	s.state = StateAuthenticated
	s.cred = cred
	evt := s.logger.Info().Dur("elapsed", elapsed)
	if !cred.ExpiresAt.IsZero() {
		evt = evt.Time("expires_at", cred.ExpiresAt)
	}
	evt.Msg("Session acquired")
	return cred, nil
}

// login performs the Basic-auth exchange that yields the session cookie
func (s *Session) login(ctx context.Context, client *http.Client) (Credential, error) {
	if client == nil {
		return Credential{}, errors.New("session is not open")
	}
	if !s.secrets.Valid() {
		return Credential{}, errors.New("username and password are required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+sessionPath, nil)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to create login request: %w", err)
	}
	setStandardHeaders(req.Header)
	req.SetBasicAuth(s.secrets.Username, s.secrets.Password)

	s.logger.Debug().Object("secrets", s.secrets).Msg("Requesting new session")

	resp, err := client.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLoginBodySize))
	if err != nil {
		return Credential{}, fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome := Classify(resp.StatusCode, body)
		return Credential{}, fmt.Errorf("login rejected with status %d: %s", resp.StatusCode, outcome.Message)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookieName && cookie.Value != "" {
			return credentialFromCookie(cookie, s.now()), nil
		}
	}
	return Credential{}, errors.New("no session cookie in login response")
}

// credentialFromCookie derives the expiry hint from MaxAge or Expires
func credentialFromCookie(cookie *http.Cookie, now time.Time) Credential {
	cred := Credential{Value: cookie.Value}
	switch {
	case cookie.MaxAge > 0:
		cred.ExpiresAt = now.Add(time.Duration(cookie.MaxAge) * time.Second)
	case !cookie.Expires.IsZero():
		cred.ExpiresAt = cookie.Expires
	}
	return cred
}

// Close releases the session: best-effort logout, credential dropped, idle
// connections closed. Only the first call does any work.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	cred := s.cred
	authenticated := s.state == StateAuthenticated
	client := s.httpClient
	s.state = StateClosed
	s.cred = Credential{}
	s.httpClient = nil
	s.mu.Unlock()

	if authenticated && client != nil {
		s.logout(client, cred)
	}
	if client != nil && client != s.customClient {
		client.CloseIdleConnections()
	}

	s.logger.Debug().Msg("Session closed")
	return nil
}

// logout asks the upstream to drop the session; failures are only logged
func (s *Session) logout(client *http.Client, cred Credential) {
	ctx, cancel := context.WithTimeout(context.Background(), min(s.cfg.Timeout, logoutTimeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.cfg.BaseURL+sessionPath, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to create logout request")
		return
	}
	setStandardHeaders(req.Header)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cred.Value})

	resp, err := client.Do(req)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Logout request failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxLoginBodySize))

	s.logger.Debug().Int("status", resp.StatusCode).Msg("Logged out")
}

// setStandardHeaders applies the headers the upstream expects on every call
func setStandardHeaders(h http.Header) {
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	h.Set("X-Requested-With", "angular")
}
