package retry

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func readOp(preferredCount int) OperationInfo {
	return OperationInfo{IsReadOnly: true, PreferredLocationCount: preferredCount, EndpointDiscoveryEnabled: true}
}

func writeOp(multiWrite bool, preferredCount int) OperationInfo {
	return OperationInfo{IsReadOnly: false, PreferredLocationCount: preferredCount, EndpointDiscoveryEnabled: true, CanUseMultiWrite: multiWrite}
}

func TestWriteForbiddenTriggersFailover(t *testing.T) {
	decision := DecideDataPlane(http.StatusForbidden, SubStatusWriteForbidden, RetryState{}, writeOp(false, 2))
	assert.Equal(t, RetryNextRegion, decision.Kind)
}

func TestWriteForbiddenAbortsAtMaxRetries(t *testing.T) {
	decision := DecideDataPlane(http.StatusForbidden, SubStatusWriteForbidden, RetryState{FailoverCount: MaxFailoverRetries}, writeOp(false, 2))
	assert.Equal(t, Abort, decision.Kind)
}

func TestSessionNotAvailableRetriesOnWriteEndpointSingleWrite(t *testing.T) {
	decision := DecideDataPlane(http.StatusNotFound, SubStatusReadSessionNotAvailable, RetryState{}, readOp(2))
	assert.Equal(t, RetryOnWriteEndpoint, decision.Kind)
}

func TestSessionNotAvailableRetriesNextRegionMultiWrite(t *testing.T) {
	decision := DecideDataPlane(http.StatusNotFound, SubStatusReadSessionNotAvailable, RetryState{}, writeOp(true, 3))
	assert.Equal(t, RetryNextRegion, decision.Kind)
}

func TestSessionNotAvailableAbortsAfterAllRegions(t *testing.T) {
	decision := DecideDataPlane(http.StatusNotFound, SubStatusReadSessionNotAvailable, RetryState{SessionRetryCount: 3}, writeOp(true, 3))
	assert.Equal(t, Abort, decision.Kind)
}

func TestServiceUnavailableRetriesReadWithPreferredLocations(t *testing.T) {
	decision := DecideDataPlane(http.StatusServiceUnavailable, SubStatusNone, RetryState{}, readOp(3))
	assert.Equal(t, RetryNextRegion, decision.Kind)
}

func TestServiceUnavailableAbortsWriteWithoutMultiWrite(t *testing.T) {
	decision := DecideDataPlane(http.StatusServiceUnavailable, SubStatusNone, RetryState{}, writeOp(false, 3))
	assert.Equal(t, Abort, decision.Kind)
}

func TestServiceUnavailableAbortsAfterMaxRetries(t *testing.T) {
	decision := DecideDataPlane(http.StatusServiceUnavailable, SubStatusNone, RetryState{ServiceUnavailableCount: MaxServiceUnavailableRetries}, readOp(3))
	assert.Equal(t, Abort, decision.Kind)
}

func TestInternalErrorRetriesForReads(t *testing.T) {
	decision := DecideDataPlane(http.StatusInternalServerError, SubStatusNone, RetryState{}, readOp(3))
	assert.Equal(t, RetryNextRegion, decision.Kind)
}

func TestInternalErrorDoneForWrites(t *testing.T) {
	decision := DecideDataPlane(http.StatusInternalServerError, SubStatusNone, RetryState{}, writeOp(false, 3))
	assert.Equal(t, Done, decision.Kind)
}

func TestGoneLeaseNotFoundRetries(t *testing.T) {
	decision := DecideDataPlane(http.StatusGone, SubStatusLeaseNotFound, RetryState{}, readOp(3))
	assert.Equal(t, RetryNextRegion, decision.Kind)
}

func TestTooManyRequestsReturnsDoneForThrottlePath(t *testing.T) {
	decision := DecideDataPlane(http.StatusTooManyRequests, SubStatusNone, RetryState{}, readOp(3))
	assert.Equal(t, Done, decision.Kind)
}

func TestSuccessReturnsDone(t *testing.T) {
	decision := DecideDataPlane(http.StatusOK, SubStatusNone, RetryState{}, readOp(3))
	assert.Equal(t, Done, decision.Kind)
}

func TestMetadataServiceUnavailableRetries(t *testing.T) {
	decision := DecideMetadataRetry(http.StatusServiceUnavailable, SubStatusNone, RetryState{}, readOp(3))
	assert.Equal(t, RetryNextRegion, decision.Kind)
}

func TestMetadataAccountNotFoundRetries(t *testing.T) {
	decision := DecideMetadataRetry(http.StatusForbidden, SubStatusDatabaseAccountNotFound, RetryState{}, readOp(3))
	assert.Equal(t, RetryNextRegion, decision.Kind)
}

func TestMetadataAbortsAfterMaxRetries(t *testing.T) {
	decision := DecideMetadataRetry(http.StatusServiceUnavailable, SubStatusNone, RetryState{ServiceUnavailableCount: 3}, readOp(3))
	assert.Equal(t, Abort, decision.Kind)
}

func TestThrottleRetriesWithBackoff(t *testing.T) {
	backoff := 200 * time.Millisecond
	decision := DecideThrottleRetry(ThrottleState{MaxAttempts: 5, MaxWait: 30 * time.Second}, &backoff)
	assert.Equal(t, RetrySameEndpoint, decision.Kind)
	assert.Equal(t, backoff, decision.Delay)
}

func TestThrottleAbortsAtMaxAttempts(t *testing.T) {
	backoff := 200 * time.Millisecond
	decision := DecideThrottleRetry(ThrottleState{Attempt: 5, MaxAttempts: 5, MaxWait: 30 * time.Second}, &backoff)
	assert.Equal(t, Abort, decision.Kind)
}

func TestThrottleAbortsWhenCumulativeExceedsMax(t *testing.T) {
	retryAfter := 2 * time.Second
	decision := DecideThrottleRetry(ThrottleState{
		Attempt:        1,
		MaxAttempts:    5,
		CumulativeWait: 9 * time.Second,
		MaxWait:        10 * time.Second,
	}, &retryAfter)
	assert.Equal(t, Abort, decision.Kind)
}

func TestThrottleUsesDefaultBackoffWhenRetryAfterAbsent(t *testing.T) {
	decision := DecideThrottleRetry(ThrottleState{MaxAttempts: 5, MaxWait: 30 * time.Second}, nil)
	assert.Equal(t, RetrySameEndpoint, decision.Kind)
	assert.Equal(t, time.Duration(DefaultThrottleBackoffMS)*time.Millisecond, decision.Delay)
}
