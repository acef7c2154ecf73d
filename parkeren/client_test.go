package parkeren

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		secrets Secrets
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultConfig(),
			secrets: testSecrets(),
		},
		{
			name:    "missing password",
			cfg:     DefaultConfig(),
			secrets: Secrets{Username: "visitor"},
			wantErr: true,
		},
		{
			name:    "negative retry count",
			cfg:     Config{RetryCount: -1},
			secrets: testSecrets(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg, tt.secrets, zerolog.Nop())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StateUnauthenticated, client.State())
			require.NoError(t, client.Close())
		})
	}
}

func TestClientOpenRejectsBadBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "ftp://example.com"

	client, err := NewClient(cfg, testSecrets(), zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	var connErr *ConnectionError
	assert.ErrorAs(t, client.Open(), &connErr)
}

func TestClientConcurrentCallsShareSession(t *testing.T) {
	u := newFakeUpstream(t)
	u.setHandler(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1, "debit_minutes": 60}`))
	})

	client := newTestClient(t, u)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = client.Account.Get(context.Background())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), u.logins.Load())
	assert.Equal(t, int32(10), u.calls.Load())
}

func TestWithSessionClosesOnEveryPath(t *testing.T) {
	u := newFakeUpstream(t)

	var captured *Client
	err := WithSession(u.config(), testSecrets(), zerolog.Nop(), func(c *Client) error {
		captured = c
		return c.Login(context.Background())
	}, withSleeper(noSleep))
	require.NoError(t, err)
	assert.Equal(t, StateClosed, captured.State())
	assert.Equal(t, int32(1), u.logouts.Load())

	boom := errors.New("boom")
	err = WithSession(u.config(), testSecrets(), zerolog.Nop(), func(c *Client) error {
		captured = c
		if err := c.Login(context.Background()); err != nil {
			return err
		}
		return boom
	}, withSleeper(noSleep))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateClosed, captured.State())
	assert.Equal(t, int32(2), u.logouts.Load())
}

func TestClientLoginFailure(t *testing.T) {
	u := newFakeUpstream(t)
	u.configure(func(u *fakeUpstream) { u.failLogin = true })

	client := newTestClient(t, u)
	err := client.Login(context.Background())
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, StateInvalid, client.State())
}
