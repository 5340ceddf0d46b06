package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDataPlaneDecisionIncrementsFailover(t *testing.T) {
	decision := Decision{Kind: RetryNextRegion}
	updated := ApplyDataPlaneDecision(RetryState{}, decision)
	assert.Equal(t, 1, updated.FailoverCount)
}

func TestApplyDataPlaneDecisionIncrementsSessionForWriteEndpoint(t *testing.T) {
	decision := Decision{Kind: RetryOnWriteEndpoint}
	updated := ApplyDataPlaneDecision(RetryState{}, decision)
	assert.Equal(t, 1, updated.SessionRetryCount)
}

func TestApplySessionDecisionIncrementsSessionCount(t *testing.T) {
	updated := ApplySessionDecision(RetryState{})
	assert.Equal(t, 1, updated.SessionRetryCount)
}

func TestApplyServiceUnavailableDecisionIncrementsCount(t *testing.T) {
	updated := ApplyServiceUnavailableDecision(RetryState{})
	assert.Equal(t, 1, updated.ServiceUnavailableCount)
}

func TestApplyMetadataDecisionIncrementsServiceUnavailableCount(t *testing.T) {
	updated := ApplyMetadataDecision(RetryState{})
	assert.Equal(t, 1, updated.ServiceUnavailableCount)
}

func TestApplyThrottleDecisionIncrementsAndAccumulates(t *testing.T) {
	decision := Decision{Kind: RetrySameEndpoint, Delay: 500 * time.Millisecond}
	updated := ApplyThrottleDecision(ThrottleState{}, decision)
	assert.Equal(t, 1, updated.Attempt)
	assert.Equal(t, 500*time.Millisecond, updated.CumulativeWait)
}

func TestApplyThrottleDecisionIgnoresNonRetryDecisions(t *testing.T) {
	updated := ApplyThrottleDecision(ThrottleState{Attempt: 2}, Decision{Kind: Abort})
	assert.Equal(t, 2, updated.Attempt)
}
