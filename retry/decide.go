package retry

import (
	"net/http"
	"time"
)

// DecideDataPlane evaluates a data-plane request outcome and returns a
// retry decision. It is a pure function: it reads state without mutating
// it. 429 responses are intentionally reported as Done here so the caller
// falls through to DecideThrottleRetry, which owns that status code.
func DecideDataPlane(status int, subStatus SubStatus, retry RetryState, op OperationInfo) Decision {
	switch {
	case status == http.StatusForbidden && subStatus == SubStatusWriteForbidden:
		return decideEndpointFailover(retry, op)

	case status == http.StatusNotFound && subStatus == SubStatusReadSessionNotAvailable:
		return decideSessionRetry(retry, op)

	case status == http.StatusServiceUnavailable:
		return decideServiceUnavailable(retry, op)

	case (status == http.StatusInternalServerError && op.IsReadOnly) ||
		(status == http.StatusGone && subStatus == SubStatusLeaseNotFound):
		return decideServiceUnavailable(retry, op)

	case status == http.StatusTooManyRequests:
		return done()

	default:
		return done()
	}
}

// DecideMetadataRetry evaluates a metadata-plane request outcome. Metadata
// operations retry on the next preferred location for a narrower set of
// statuses, bounded by the number of preferred locations configured (or 1,
// whichever is larger).
func DecideMetadataRetry(status int, subStatus SubStatus, retry RetryState, op OperationInfo) Decision {
	maxRetryCount := op.PreferredLocationCount
	if maxRetryCount < 1 {
		maxRetryCount = 1
	}

	shouldRetry := status == http.StatusServiceUnavailable ||
		status == http.StatusInternalServerError ||
		(status == http.StatusGone && subStatus == SubStatusLeaseNotFound) ||
		(status == http.StatusForbidden && subStatus == SubStatusDatabaseAccountNotFound)

	if shouldRetry {
		nextCount := retry.ServiceUnavailableCount + 1
		if nextCount > maxRetryCount {
			return abort()
		}
		return retryNextRegion(0)
	}

	if status == http.StatusTooManyRequests {
		return done()
	}

	return done()
}

// DecideThrottleRetry evaluates a 429 response and returns a retry
// decision, honoring both a max-attempt count and a max cumulative wait.
func DecideThrottleRetry(throttle ThrottleState, retryAfter *time.Duration) Decision {
	if throttle.Attempt >= throttle.MaxAttempts {
		return abort()
	}

	backoff := time.Duration(DefaultThrottleBackoffMS) * time.Millisecond
	if retryAfter != nil {
		backoff = *retryAfter
	}

	if throttle.CumulativeWait+backoff > throttle.MaxWait {
		return abort()
	}

	return retrySameEndpoint(backoff)
}

// decideEndpointFailover decides whether to failover to a different
// endpoint after a 403.3 write-forbidden response.
func decideEndpointFailover(retry RetryState, op OperationInfo) Decision {
	if retry.FailoverCount >= MaxFailoverRetries || !op.EndpointDiscoveryEnabled {
		return abort()
	}

	var delay time.Duration
	switch {
	case !op.IsReadOnly && retry.FailoverCount == 0:
		delay = 0
	default:
		delay = time.Duration(RetryIntervalMS) * time.Millisecond
	}

	return retryNextRegion(delay)
}

// decideSessionRetry decides whether to retry a 404.1022
// read-session-not-available response, either on every preferred location
// (multi-write accounts) or once on the primary write endpoint.
func decideSessionRetry(retry RetryState, op OperationInfo) Decision {
	if !op.EndpointDiscoveryEnabled {
		return abort()
	}

	nextCount := retry.SessionRetryCount + 1

	if op.CanUseMultiWrite {
		if nextCount > op.PreferredLocationCount {
			return abort()
		}
		return retryNextRegion(0)
	}

	if nextCount > 1 {
		return abort()
	}
	return retryOnWriteEndpoint(0)
}

// decideServiceUnavailable decides whether to retry a 503, read-path 500,
// or 410/lease-not-found response on the next preferred region.
func decideServiceUnavailable(retry RetryState, op OperationInfo) Decision {
	nextCount := retry.ServiceUnavailableCount + 1
	if nextCount > MaxServiceUnavailableRetries {
		return abort()
	}

	if !op.CanUseMultiWrite && !op.IsReadOnly {
		return abort()
	}

	if op.PreferredLocationCount <= 1 {
		return abort()
	}

	return retryNextRegion(0)
}
