// Package retry implements the retry decision core for document-database
// requests: pure functions that inspect a response outcome and the current
// retry state and return a decision, plus separate appliers that fold a
// decision into updated state. The orchestration loop in pipeline.go is the
// only piece that performs I/O or mutates anything.
package retry

import "time"

// SubStatus is a document-database sub-status code, carried alongside an
// HTTP status code on error responses to disambiguate the failure reason.
type SubStatus int

const (
	SubStatusNone                   SubStatus = 0
	SubStatusWriteForbidden         SubStatus = 3
	SubStatusDatabaseAccountNotFound SubStatus = 1008
	SubStatusReadSessionNotAvailable SubStatus = 1022
	SubStatusLeaseNotFound           SubStatus = 1046
)

// Default tuning constants for the decision core. These mirror the
// reference retry policy's fixed constants rather than being configurable
// per call, since they encode protocol-level retry contracts.
const (
	RetryIntervalMS             = 1000
	MaxFailoverRetries          = 120
	MaxServiceUnavailableRetries = 1
	DefaultThrottleBackoffMS    = 500
)

// OperationInfo describes the request being retried: enough for the
// decision functions to pick a strategy without holding the request itself.
type OperationInfo struct {
	IsReadOnly               bool
	PreferredLocationCount   int
	EndpointDiscoveryEnabled bool
	CanUseMultiWrite         bool
}

// RetryState tracks how many times each retry category has fired for a
// single logical operation, across however many physical attempts it took.
type RetryState struct {
	FailoverCount          int
	SessionRetryCount      int
	ServiceUnavailableCount int
}

// ThrottleState tracks 429 backoff progress independently of RetryState,
// since throttling can interleave with any other retry category.
type ThrottleState struct {
	Attempt      int
	MaxAttempts  int
	CumulativeWait time.Duration
	MaxWait        time.Duration
}

// DecisionKind enumerates the actions the orchestration loop can take in
// response to a Decide* call.
type DecisionKind int

const (
	// Done means the response is either a success or a non-retryable
	// failure that this decision function does not own; the caller should
	// fall through to the next applicable decision function or return.
	Done DecisionKind = iota
	// Abort means the response is a definite, non-retryable failure.
	Abort
	// RetryNextRegion means failover to the next preferred region.
	RetryNextRegion
	// RetrySameEndpoint means retry the same endpoint after Delay.
	RetrySameEndpoint
	// RetryOnWriteEndpoint means route to the primary write endpoint.
	RetryOnWriteEndpoint
)

// Decision is the outcome of evaluating a request result against the retry
// policy. It carries no reference to shared state; the caller applies it.
type Decision struct {
	Kind  DecisionKind
	Delay time.Duration
}

func done() Decision                         { return Decision{Kind: Done} }
func abort() Decision                        { return Decision{Kind: Abort} }
func retryNextRegion(d time.Duration) Decision      { return Decision{Kind: RetryNextRegion, Delay: d} }
func retrySameEndpoint(d time.Duration) Decision    { return Decision{Kind: RetrySameEndpoint, Delay: d} }
func retryOnWriteEndpoint(d time.Duration) Decision { return Decision{Kind: RetryOnWriteEndpoint, Delay: d} }
