// Package parkeren provides a client for the visitor parking service of The Hague.
//
// The package is organized into several components:
//
//   - Session: owns the session cookie and coalesces concurrent logins into one
//   - Executor: sends requests with bounded retry, exponential backoff and a
//     single re-authentication when the upstream rejects the session
//   - Classify: turns a status code and body into a typed Outcome
//   - Managers: account, reservations, favorites and history built on the executor
//
// # Usage
//
//	cfg := parkeren.DefaultConfig()
//	secrets := parkeren.Secrets{Username: "user", Password: "pass"}
//
//	err := parkeren.WithSession(cfg, secrets, logger, func(c *parkeren.Client) error {
//		account, err := c.Account.Get(ctx)
//		if err != nil {
//			return err
//		}
//		fmt.Println(account.Balance())
//		return nil
//	})
//
// # Errors
//
// Every call ends in an Outcome. Managers convert it with Outcome.Err into
// ErrTransport, ErrAuthFailed or an *APIError; use errors.Is and errors.As to
// inspect them:
//
//	var apiErr *parkeren.APIError
//	if errors.As(err, &apiErr) && apiErr.IsInsufficientBalance() {
//		// top up first
//	}
package parkeren
