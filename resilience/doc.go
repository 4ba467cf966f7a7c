// Package resilience provides retry with exponential backoff.
//
// Retry and RetryFunc stop early on context cancellation and on errors the
// RetryIf predicate rejects. DefaultRetryIf honours the Retryable flag of
// an errors.AppError, so non-retryable registry responses (4xx) and invalid
// input are returned immediately:
//
//	err := resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), func() error {
//	    return registerOnce(ctx)
//	})
package resilience
