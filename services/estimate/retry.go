package estimate

import (
	"context"
	"errors"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/services"
	"macrotrack-go-worker/structs"
	"macrotrack-go-worker/utils"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Second, MaxBackoff: 10 * time.Second, Multiplier: 2}
}

// PolicyFromConfig reads the retry section, falling back to the defaults.
func PolicyFromConfig() RetryPolicy {
	policy := DefaultRetryPolicy()
	if utils.EnvConfig == nil {
		return policy
	}
	conf := utils.EnvConfig.Retry
	if conf.MaxAttempts > 0 {
		policy.MaxAttempts = conf.MaxAttempts
	}
	if conf.Multiplier >= 1 {
		policy.Multiplier = conf.Multiplier
	}
	policy.InitialBackoff = utils.ParseDuration(conf.InitialBackoff, policy.InitialBackoff)
	policy.MaxBackoff = utils.ParseDuration(conf.MaxBackoff, policy.MaxBackoff)
	return policy
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.MaxInterval = p.MaxBackoff
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0.1
	return b
}

// EstimateWithRetry calls estimator until it succeeds, attempts run out or
// ctx is done. Malformed payloads are retried; validation failures and
// client errors other than 429 are not.
func EstimateWithRetry(ctx context.Context, estimator Estimator, policy RetryPolicy, logger *logrus.Entry, description string, estimationContext structs.EstimationContext) (structs.EstimationResult, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	attempts := 0
	operation := func() (structs.EstimationResult, error) {
		attempts++
		result, err := estimator.Estimate(ctx, description, estimationContext)
		if err != nil && !retryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}
	notify := func(err error, next time.Duration) {
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{"attempt": attempts, "next_in": next.String()}).Warn("estimate failed, retrying")
		}
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy.backOff()),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
		backoff.WithNotify(notify),
	)
	if err == nil {
		return result, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	if apperr.IsValidation(err) {
		return result, err
	}
	if ctx.Err() != nil {
		return result, &apperr.EstimationError{Attempts: attempts, Reason: "estimate cancelled", Err: ctx.Err()}
	}
	var estimationErr *apperr.EstimationError
	if errors.As(err, &estimationErr) {
		return result, &apperr.EstimationError{Attempts: attempts, Reason: estimationErr.Reason, Err: estimationErr.Err}
	}
	return result, &apperr.EstimationError{Attempts: attempts, Reason: "estimate failed", Err: err}
}

func retryable(err error) bool {
	if apperr.IsValidation(err) {
		return false
	}
	var statusErr *services.HttpStatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code == http.StatusTooManyRequests || code >= 500
	}
	return true
}
