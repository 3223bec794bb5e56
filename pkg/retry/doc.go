// Package retry provides the backoff and retry policy for transient download
// failures.
//
// The policy holds no state: Classify and NextDelay are pure functions of
// the error and attempt count. The download coordinator owns the retry loop
// and the attempt counter.
//
//	policy := retry.NewPolicy(&cfg.Retry)
//	if policy.ShouldRetry(err, attempt) {
//		retry.Wait(ctx, policy.NextDelay(attempt, err))
//	}
package retry
