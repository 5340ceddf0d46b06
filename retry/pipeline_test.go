package retry

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/meridian-go/core"
)

func TestPipelineExecuteSucceedsOnFirstAttempt(t *testing.T) {
	p := NewPipeline(readOp(3))
	calls := 0
	outcome, err := p.Execute(context.Background(), func(ctx context.Context, attempt int, endpoint url.URL) (Outcome, error) {
		calls++
		return Outcome{Status: http.StatusOK}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusOK, outcome.Status)
}

func TestPipelineExecuteFailsOverThenSucceeds(t *testing.T) {
	p := NewPipeline(writeOp(false, 2))
	p.MaxAttempts = 5
	calls := 0
	outcome, err := p.Execute(context.Background(), func(ctx context.Context, attempt int, endpoint url.URL) (Outcome, error) {
		calls++
		if calls == 1 {
			return Outcome{Status: http.StatusForbidden, SubStatus: SubStatusWriteForbidden}, nil
		}
		return Outcome{Status: http.StatusOK}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, http.StatusOK, outcome.Status)
}

func TestPipelineExecuteAbortsOnNonRetryableFailure(t *testing.T) {
	p := NewPipeline(writeOp(false, 2))
	p.ThrottlePolicy.MaxAttempts = 0
	calls := 0
	_, err := p.Execute(context.Background(), func(ctx context.Context, attempt int, endpoint url.URL) (Outcome, error) {
		calls++
		return Outcome{Status: http.StatusBadRequest}, nil
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPipelineExecuteRespectsContextCancellation(t *testing.T) {
	p := NewPipeline(readOp(3))
	p.MaxAttempts = 5
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := p.Execute(ctx, func(ctx context.Context, attempt int, endpoint url.URL) (Outcome, error) {
		calls++
		return Outcome{Status: http.StatusTooManyRequests}, nil
	})
	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, calls)
}

func TestPipelineExecuteExhaustsMaxAttempts(t *testing.T) {
	p := NewPipeline(writeOp(true, 3))
	p.MaxAttempts = 2
	retryAfter := time.Millisecond
	calls := 0
	_, err := p.Execute(context.Background(), func(ctx context.Context, attempt int, endpoint url.URL) (Outcome, error) {
		calls++
		return Outcome{Status: http.StatusTooManyRequests, RetryAfter: &retryAfter}, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMaxRetriesExceeded)
	assert.Equal(t, 2, calls)
}

// fakeRouter is a minimal in-package stand-in for routing.CallRouter, used
// to exercise Pipeline.Execute's routing-tier wiring without importing the
// routing package (which already imports retry, so the import would cycle
// from a test file too).
type fakeRouter struct {
	endpoints []url.URL
	index     int
	failed    map[url.URL]bool

	resolveCalls       int
	failedCalls        []url.URL
	nextRegion         []bool
	writeEndpointCalls int
}

func newFakeRouter(endpoints ...url.URL) *fakeRouter {
	return &fakeRouter{endpoints: endpoints, failed: make(map[url.URL]bool)}
}

func (f *fakeRouter) Resolve() (url.URL, bool) {
	f.resolveCalls++
	for i := 0; i < len(f.endpoints); i++ {
		candidate := f.endpoints[(f.index+i)%len(f.endpoints)]
		if !f.failed[candidate] {
			return candidate, true
		}
	}
	return url.URL{}, false
}

func (f *fakeRouter) MarkFailed(endpoint url.URL) {
	f.failed[endpoint] = true
	f.failedCalls = append(f.failedCalls, endpoint)
}

func (f *fakeRouter) RouteNextRegion(usePreferred bool, failoverCount int) {
	f.nextRegion = append(f.nextRegion, usePreferred)
	if usePreferred {
		f.index = 0
	} else {
		f.index = failoverCount
	}
}

func (f *fakeRouter) RouteWriteEndpoint() {
	f.writeEndpointCalls++
	f.index = 0
}

func TestPipelineExecuteReroutesOnNextRegion(t *testing.T) {
	east, _ := url.Parse("https://east.example.com")
	west, _ := url.Parse("https://west.example.com")
	router := newFakeRouter(*east, *west)

	p := NewPipeline(writeOp(false, 2))
	p.Router = router
	p.MaxAttempts = 5

	var seen []url.URL
	calls := 0
	outcome, err := p.Execute(context.Background(), func(ctx context.Context, attempt int, endpoint url.URL) (Outcome, error) {
		calls++
		seen = append(seen, endpoint)
		if calls == 1 {
			return Outcome{Status: http.StatusForbidden, SubStatus: SubStatusWriteForbidden}, nil
		}
		return Outcome{Status: http.StatusOK}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, http.StatusOK, outcome.Status)
	assert.Equal(t, *east, seen[0])
	assert.Equal(t, *west, seen[1], "second attempt must reroute away from the failed endpoint")
	assert.Equal(t, []url.URL{*east}, router.failedCalls)
	assert.Equal(t, []bool{false}, router.nextRegion, "write-forbidden failover walks by failover count, not preferred order")
}

func TestPipelineExecuteRoutesToWriteEndpointOnSessionRetry(t *testing.T) {
	read, _ := url.Parse("https://read.example.com")
	router := newFakeRouter(*read)

	p := NewPipeline(readOp(2))
	p.MaxAttempts = 3
	p.Router = router

	calls := 0
	_, err := p.Execute(context.Background(), func(ctx context.Context, attempt int, endpoint url.URL) (Outcome, error) {
		calls++
		if calls == 1 {
			return Outcome{Status: http.StatusNotFound, SubStatus: SubStatusReadSessionNotAvailable}, nil
		}
		return Outcome{Status: http.StatusOK}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, router.writeEndpointCalls)
	assert.Empty(t, router.failedCalls, "session-not-available does not indicate an unhealthy endpoint")
}

func TestMetadataPolicyShouldRetryAdvancesState(t *testing.T) {
	policy := NewMetadataPolicy(readOp(3), ThrottlePolicy{MaxAttempts: 5, MaxWait: 5 * time.Second})
	decision := policy.ShouldRetry(http.StatusServiceUnavailable, SubStatusNone, nil)
	assert.Equal(t, RetryNextRegion, decision.Kind)
	assert.Equal(t, 1, policy.RetryState().ServiceUnavailableCount)
}

func TestMetadataPolicyFallsThroughToThrottle(t *testing.T) {
	policy := NewMetadataPolicy(readOp(3), ThrottlePolicy{MaxAttempts: 5, MaxWait: 5 * time.Second})
	decision := policy.ShouldRetry(http.StatusTooManyRequests, SubStatusNone, nil)
	assert.Equal(t, RetrySameEndpoint, decision.Kind)
}
