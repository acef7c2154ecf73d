// Package validate holds the pure input checks applied before a request is
// sent upstream: license plate normalisation and reservation time windows.
//
// Functions return a *ValidationError describing the rejected field; callers
// check with errors.As or errors.Is(err, ErrInvalidInput).
package validate
