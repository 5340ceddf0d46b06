package retry

import "net/http"

// ApplyForOutcome folds a data-plane decision into RetryState using the
// triggering status/sub-status to pick the right counter, since
// RetryNextRegion is returned by three distinct branches of DecideDataPlane
// (endpoint failover, session retry on a multi-write account, and
// service-unavailable failover) that each own a different counter.
func ApplyForOutcome(retry RetryState, status int, subStatus SubStatus, decision Decision) RetryState {
	switch {
	case status == http.StatusForbidden && subStatus == SubStatusWriteForbidden:
		return ApplyDataPlaneDecision(retry, decision)

	case status == http.StatusNotFound && subStatus == SubStatusReadSessionNotAvailable:
		if decision.Kind == RetryNextRegion || decision.Kind == RetryOnWriteEndpoint {
			return ApplySessionDecision(retry)
		}
		return retry

	case status == http.StatusServiceUnavailable,
		status == http.StatusInternalServerError,
		status == http.StatusGone && subStatus == SubStatusLeaseNotFound:
		if decision.Kind == RetryNextRegion {
			return ApplyServiceUnavailableDecision(retry)
		}
		return retry

	default:
		return ApplyDataPlaneDecision(retry, decision)
	}
}

// ApplyDataPlaneDecision folds a data-plane decision into a new RetryState.
// RetryNextRegion bumps the failover counter by default; callers that know
// the decision came from the service-unavailable branch should use
// ApplyServiceUnavailableDecision instead so the right counter advances.
func ApplyDataPlaneDecision(retry RetryState, decision Decision) RetryState {
	switch decision.Kind {
	case RetryNextRegion:
		retry.FailoverCount++
	case RetryOnWriteEndpoint:
		retry.SessionRetryCount++
	}
	return retry
}

// ApplyServiceUnavailableDecision advances the service-unavailable counter.
func ApplyServiceUnavailableDecision(retry RetryState) RetryState {
	retry.ServiceUnavailableCount++
	return retry
}

// ApplySessionDecision advances the session-retry counter.
func ApplySessionDecision(retry RetryState) RetryState {
	retry.SessionRetryCount++
	return retry
}

// ApplyMetadataDecision advances the metadata-plane retry counter. Metadata
// retries share the service-unavailable counter since both are bounded by
// the same preferred-location-count ceiling.
func ApplyMetadataDecision(retry RetryState) RetryState {
	retry.ServiceUnavailableCount++
	return retry
}

// ApplyThrottleDecision folds a throttle decision into a new ThrottleState.
func ApplyThrottleDecision(throttle ThrottleState, decision Decision) ThrottleState {
	if decision.Kind == RetrySameEndpoint {
		throttle.Attempt++
		throttle.CumulativeWait += decision.Delay
	}
	return throttle
}
