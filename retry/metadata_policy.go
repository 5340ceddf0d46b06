package retry

import (
	"net/http"
	"sync"
	"time"
)

// ThrottlePolicy configures the 429 backoff bounds a MetadataPolicy
// delegates to once its own status/sub-status check falls through.
type ThrottlePolicy struct {
	MaxAttempts int
	MaxWait     time.Duration
}

// MetadataPolicy wraps the metadata-plane decision core in a small piece of
// mutable state (the current retry count) so it can be driven one response
// at a time, mirroring how a per-request retry policy object is reused
// across physical attempts of the same logical operation.
//
// It is not safe for concurrent use by multiple goroutines evaluating the
// same logical operation; a fresh MetadataPolicy is expected per operation.
type MetadataPolicy struct {
	mu       sync.Mutex
	op       OperationInfo
	retry    RetryState
	throttle ThrottleState
}

// NewMetadataPolicy builds a MetadataPolicy for a single metadata-plane
// operation, bounding endpoint failover by the operation's preferred
// location count (or 1, whichever is larger) and 429 backoff by throttle.
func NewMetadataPolicy(op OperationInfo, throttle ThrottlePolicy) *MetadataPolicy {
	return &MetadataPolicy{
		op: op,
		throttle: ThrottleState{
			MaxAttempts: throttle.MaxAttempts,
			MaxWait:     throttle.MaxWait,
		},
	}
}

// ShouldRetry evaluates one response outcome, advances internal state if a
// retry is granted, and returns the decision for the caller to act on.
func (p *MetadataPolicy) ShouldRetry(status int, subStatus SubStatus, retryAfter *time.Duration) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	decision := DecideMetadataRetry(status, subStatus, p.retry, p.op)
	if decision.Kind == RetryNextRegion {
		p.retry = ApplyMetadataDecision(p.retry)
		return decision
	}
	if decision.Kind != Done || status != http.StatusTooManyRequests {
		return decision
	}

	// A 429 is deferred to the throttle path.
	throttleDecision := DecideThrottleRetry(p.throttle, retryAfter)
	if throttleDecision.Kind == RetrySameEndpoint {
		p.throttle = ApplyThrottleDecision(p.throttle, throttleDecision)
	}
	return throttleDecision
}

// RetryState returns a snapshot of the current retry counters, useful for
// logging and tests.
func (p *MetadataPolicy) RetryState() RetryState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retry
}
