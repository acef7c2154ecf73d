package parkeren

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// deleteConcurrency bounds concurrent deletes sharing one session
const deleteConcurrency = 5

// BatchDeleteResult contains the results of a batch delete operation
type BatchDeleteResult struct {
	Requested  int
	Successful []int64
	Failed     []DeleteError
}

// Err returns the first failure, or nil when every delete succeeded
func (r BatchDeleteResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return r.Failed[0]
}

// DeleteError contains information about a failed delete operation
type DeleteError struct {
	ID  int64
	Err error
}

// Error implements the error interface
func (e DeleteError) Error() string {
	return fmt.Sprintf("failed to delete %d: %v", e.ID, e.Err)
}

func (e DeleteError) Unwrap() error {
	return e.Err
}

// batchDelete runs del for every id, collecting results instead of stopping
// at the first failure
func batchDelete(ctx context.Context, ids []int64, del func(context.Context, int64) error) BatchDeleteResult {
	result := BatchDeleteResult{Requested: len(ids)}
	if len(ids) == 0 {
		return result
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)

	successChan := make(chan int64, len(ids))
	errorChan := make(chan DeleteError, len(ids))

	for _, id := range ids {
		g.Go(func() error {
			if err := del(ctx, id); err != nil {
				errorChan <- DeleteError{ID: id, Err: err}
			} else {
				successChan <- id
			}
			return nil
		})
	}

	_ = g.Wait()
	close(successChan)
	close(errorChan)

	for id := range successChan {
		result.Successful = append(result.Successful, id)
	}
	for err := range errorChan {
		result.Failed = append(result.Failed, err)
	}
	return result
}
