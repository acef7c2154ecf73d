package parkeren

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxResponseBodySize = 4 << 20

// Executor issues requests through a Session with retry, backoff and
// classification. It never returns raw transport errors; every call ends in
// an Outcome.
type Executor struct {
	cfg      Config
	session  *Session
	logger   zerolog.Logger
	recorder Recorder
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor bound to session. The retry policy comes
// from the session's Config.
func NewExecutor(session *Session, logger zerolog.Logger, opts ...Option) *Executor {
	o := newClientOptions(opts)
	return &Executor{
		cfg:      session.cfg,
		session:  session,
		logger:   logger.With().Str("component", "executor").Logger(),
		recorder: o.recorder,
		sleep:    o.sleep,
	}
}

// Execute runs req to completion
func (e *Executor) Execute(ctx context.Context, req Request) Outcome {
	log := e.logger.With().
		Str("request_id", uuid.NewString()).
		Str("method", req.Method).
		Str("path", req.Path).
		Logger()
	start := time.Now()

	outcome := e.execute(ctx, log, req)

	evt := log.Debug()
	if !outcome.OK() {
		evt = log.Warn().Str("code", outcome.Code).Str("message", outcome.Message)
	}
	evt.Str("outcome", outcome.Kind.String()).
		Dur("elapsed", time.Since(start)).
		Msg("Request finished")

	return outcome
}

func (e *Executor) execute(ctx context.Context, log zerolog.Logger, req Request) Outcome {
	body, err := req.encodeBody()
	if err != nil {
		outcome := UnknownError(0, "")
		outcome.Cause = err
		return outcome
	}

	var cred Credential
	if req.RequiresAuth {
		cred, err = e.session.EnsureAuthenticated(ctx)
		if err != nil {
			return authOutcome(ctx, err)
		}
	}

	outcome := e.send(ctx, log, req, body, cred)
	if outcome.Kind != KindAuthExpired {
		return outcome
	}

	if !req.RequiresAuth {
		return AuthFailed(outcome.Err())
	}

	// One re-login and one replay, outside the transport retry budget.
	e.recorder.ObserveReauth()
	cred, err = e.session.Reauthenticate(ctx, cred)
	if err != nil {
		return authOutcome(ctx, err)
	}

	outcome = e.send(ctx, log, req, body, cred)
	if outcome.Kind == KindAuthExpired {
		return AuthFailed(errors.New("session rejected again after re-authentication"))
	}
	return outcome
}

// send performs the transport attempts for one credential
func (e *Executor) send(ctx context.Context, log zerolog.Logger, req Request, body []byte, cred Credential) Outcome {
	var outcome Outcome
	for attempt := 0; attempt <= e.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			delay := e.cfg.backoff(attempt - 1)
			log.Debug().Int("attempt", attempt+1).Dur("backoff", delay).Msg("Retrying request")
			if err := e.sleep(ctx, delay); err != nil {
				return TransportError(err)
			}
		}

		started := time.Now()
		outcome = e.roundTrip(ctx, req, body, cred)
		elapsed := time.Since(started)
		e.recorder.ObserveAttempt(req.Method, outcome.Kind, elapsed)

		evt := log.Debug()
		if outcome.Retryable() {
			evt = log.Warn().Str("error", outcome.Message)
		}
		evt.Int("attempt", attempt+1).
			Str("outcome", outcome.Kind.String()).
			Int("status", outcome.StatusCode).
			Dur("elapsed", elapsed).
			Msg("Request attempt")

		if !outcome.Retryable() || ctx.Err() != nil || errors.Is(outcome.Cause, ErrSessionClosed) {
			return outcome
		}
	}

	log.Error().Int("attempts", e.cfg.RetryCount+1).Msg("Max retries reached")
	return outcome
}

// roundTrip performs a single HTTP exchange and classifies the response
func (e *Executor) roundTrip(ctx context.Context, req Request, body []byte, cred Credential) Outcome {
	client, err := e.session.client()
	if err != nil {
		return TransportError(err)
	}

	// Applies even when WithHTTPClient supplied a client without a timeout.
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	httpReq, err := req.build(ctx, e.cfg.BaseURL, body, cred)
	if err != nil {
		return TransportError(err)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return TransportError(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return TransportError(fmt.Errorf("failed to read response body: %w", err))
	}

	return Classify(resp.StatusCode, data)
}

// authOutcome maps a session error to an outcome. A caller that gave up is
// reported as a transport error; everything else is an auth failure.
func authOutcome(ctx context.Context, err error) Outcome {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return TransportError(err)
	}
	return AuthFailed(err)
}
