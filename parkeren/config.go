package parkeren

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production endpoint of the visitor parking service
const DefaultBaseURL = "https://parkerendenhaag.denhaag.nl"

// Default client settings
const (
	DefaultTimeout     = 30 * time.Second
	DefaultRetryCount  = 5
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = 30 * time.Second
)

// Config holds the immutable client settings
type Config struct {
	BaseURL     string
	LogLevel    zerolog.Level
	Timeout     time.Duration
	RetryCount  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultConfig returns a Config pointing at the production service
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		LogLevel:    zerolog.InfoLevel,
		Timeout:     DefaultTimeout,
		RetryCount:  DefaultRetryCount,
		BackoffBase: DefaultBackoffBase,
		BackoffMax:  DefaultBackoffMax,
	}
}

// normalize fills zero values with defaults and trims the base URL
func (c Config) normalize() Config {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryCount < 0 {
		c.RetryCount = 0
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax < c.BackoffBase {
		c.BackoffMax = c.BackoffBase
	}
	return c
}

// validate checks that the base URL can be used to build a transport
func (c Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return &ConnectionError{BaseURL: c.BaseURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConnectionError{BaseURL: c.BaseURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &ConnectionError{BaseURL: c.BaseURL, Err: fmt.Errorf("missing host")}
	}
	return nil
}

// backoff returns the delay before retry number attempt (zero based)
func (c Config) backoff(attempt int) time.Duration {
	delay := c.BackoffBase
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= c.BackoffMax {
			return c.BackoffMax
		}
	}
	return min(delay, c.BackoffMax)
}

// Secrets holds the login credentials. The password never leaves this struct
// in formatted or logged output.
type Secrets struct {
	Username string
	Password string
}

// String implements fmt.Stringer without exposing the password
func (s Secrets) String() string {
	return fmt.Sprintf("Secrets{Username: %s, Password: [redacted]}", s.Username)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (s Secrets) MarshalZerologObject(e *zerolog.Event) {
	e.Str("username", s.Username)
}

// Valid reports whether both username and password are set
func (s Secrets) Valid() bool {
	return s.Username != "" && s.Password != ""
}
