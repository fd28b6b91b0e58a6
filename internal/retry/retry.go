package retry

import (
	"fmt"

	"go.uber.org/zap"
)

// Execute calls op until it succeeds, pausing on policy between attempts.
// The first attempt is free: up to maxRetries+1 calls are made in total.
// When every attempt fails, the last error is logged once and returned as is.
func Execute[T any](op func() (T, error), policy *Backoff, maxRetries int) (T, error) {
	if policy == nil {
		policy = Default()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	val, err := op()
	for i := 0; i < maxRetries && err != nil; i++ {
		policy.WaitAndAdvance()
		val, err = op()
	}
	if err != nil {
		zap.L().Error(
			fmt.Sprintf("Operation failed after %d retries: %+v", maxRetries, err),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
	}
	return val, err
}
