package parkeren

import (
	"context"
	"time"
)

// RequestExecutor executes one logical call against the upstream
type RequestExecutor interface {
	Execute(ctx context.Context, req Request) Outcome
}

// Recorder receives per-attempt and per-login measurements
type Recorder interface {
	ObserveAttempt(method string, kind OutcomeKind, elapsed time.Duration)
	ObserveLogin(success bool, elapsed time.Duration)
	ObserveReauth()
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, OutcomeKind, time.Duration) {}
func (nopRecorder) ObserveLogin(bool, time.Duration)                   {}
func (nopRecorder) ObserveReauth()                                     {}
