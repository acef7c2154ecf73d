package parkeren

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Client is the scoped entry point to the visitor parking service. One Client
// owns one Session; the managers share its Executor.
type Client struct {
	session  *Session
	executor *Executor
	logger   zerolog.Logger

	Account      *AccountManager
	Reservations *ReservationManager
	Favorites    *FavoriteManager
	History      *HistoryManager
}

// NewClient creates a Client. No network traffic happens until the first call.
func NewClient(cfg Config, secrets Secrets, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if !secrets.Valid() {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidConfig)
	}
	if cfg.RetryCount < 0 {
		return nil, fmt.Errorf("%w: retry count must not be negative", ErrInvalidConfig)
	}

	o := newClientOptions(opts)
	logger = logger.Level(cfg.LogLevel).With().Str("client", "dhparkeren").Logger()

	session := NewSession(cfg, secrets, logger, opts...)
	executor := NewExecutor(session, logger, opts...)

	return &Client{
		session:      session,
		executor:     executor,
		logger:       logger,
		Account:      NewAccountManager(executor, logger),
		Reservations: NewReservationManager(executor, logger, o.now),
		Favorites:    NewFavoriteManager(executor, logger),
		History:      NewHistoryManager(executor, logger),
	}, nil
}

// Open allocates the transport. It fails with *ConnectionError when the base
// URL cannot be used.
func (c *Client) Open() error {
	return c.session.Open()
}

// Login establishes the session eagerly
func (c *Client) Login(ctx context.Context) error {
	if _, err := c.session.EnsureAuthenticated(ctx); err != nil {
		if errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrSessionClosed) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	return nil
}

// Execute runs a raw request through the retry and re-authentication policy
func (c *Client) Execute(ctx context.Context, req Request) Outcome {
	return c.executor.Execute(ctx, req)
}

// State returns the session state
func (c *Client) State() SessionState {
	return c.session.State()
}

// Close ends the session. Safe to call more than once.
func (c *Client) Close() error {
	return c.session.Close()
}

// WithSession opens a Client, runs fn and closes the Client on every exit path
func WithSession(cfg Config, secrets Secrets, logger zerolog.Logger, fn func(*Client) error, opts ...Option) error {
	client, err := NewClient(cfg, secrets, logger, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close session")
		}
	}()

	if err := client.Open(); err != nil {
		return err
	}
	return fn(client)
}
