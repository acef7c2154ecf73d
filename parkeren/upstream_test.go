package parkeren

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeUpstream is an httptest server speaking the session protocol of the
// parking service. Calls other than login and logout go to handler once the
// session cookie has been checked.
type fakeUpstream struct {
	server *httptest.Server

	logins  atomic.Int32
	logouts atomic.Int32
	calls   atomic.Int32

	mu          sync.Mutex
	current     string
	failLogin   bool
	loginMaxAge int
	loginGate   chan struct{}
	handler     http.HandlerFunc
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{}
	u.server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.server.Close)
	return u
}

func (u *fakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == sessionPath {
		switch r.Method {
		case http.MethodGet:
			u.login(w, r)
		case http.MethodDelete:
			u.logouts.Add(1)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	u.calls.Add(1)
	if r.Header.Get("X-Requested-With") != "angular" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	u.mu.Lock()
	current := u.current
	handler := u.handler
	u.mu.Unlock()

	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != current {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if handler == nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
		return
	}
	handler(w, r)
}

func (u *fakeUpstream) login(w http.ResponseWriter, r *http.Request) {
	n := u.logins.Add(1)

	u.mu.Lock()
	gate := u.loginGate
	fail := u.failLogin
	maxAge := u.loginMaxAge
	u.mu.Unlock()

	if gate != nil {
		<-gate
	}

	user, pass, ok := r.BasicAuth()
	if fail || !ok || user != "visitor" || pass != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": "PV00005"}`))
		return
	}

	value := fmt.Sprintf("sess-%d", n)
	u.mu.Lock()
	u.current = value
	u.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: value, Path: "/", MaxAge: maxAge})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{}`))
}

// expire makes the upstream reject the current session cookie
func (u *fakeUpstream) expire() {
	u.mu.Lock()
	u.current = "expired"
	u.mu.Unlock()
}

func (u *fakeUpstream) setHandler(h http.HandlerFunc) {
	u.mu.Lock()
	u.handler = h
	u.mu.Unlock()
}

func (u *fakeUpstream) config() Config {
	cfg := DefaultConfig()
	cfg.BaseURL = u.server.URL
	cfg.Timeout = 5 * time.Second
	cfg.RetryCount = 3
	return cfg
}

func testSecrets() Secrets {
	return Secrets{Username: "visitor", Password: "secret"}
}

// noSleep skips backoff delays but still honours cancellation
func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newTestClient(t *testing.T, u *fakeUpstream, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{withSleeper(noSleep)}, opts...)
	client, err := NewClient(u.config(), testSecrets(), zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func (u *fakeUpstream) configure(fn func(u *fakeUpstream)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fn(u)
}
