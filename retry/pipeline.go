package retry

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/meridiandb/meridian-go/core"
)

// Outcome is what a single physical attempt produced: either a successful
// result or an error carrying enough information for the decision core to
// classify it.
type Outcome struct {
	Status     int
	SubStatus  SubStatus
	RetryAfter *time.Duration
	Err        error
}

// AttemptFunc performs one physical attempt at the operation against
// endpoint and reports its outcome. It must not retry internally; the
// Pipeline owns retries. endpoint is the zero value when no Router is
// wired in.
type AttemptFunc func(ctx context.Context, attempt int, endpoint url.URL) (Outcome, error)

// Router is the routing-tier contract the orchestration loop drives on
// RetryNextRegion/RetryOnWriteEndpoint decisions: resolve an endpoint for
// the current call, mark one failed so it is never chosen again within
// this call (spec §5), and apply the routing-state transition the decision
// calls for. Defined here, rather than by importing the routing package,
// because routing already imports retry for OperationInfo; importing it
// back would cycle. routing.CallRouter implements this interface.
type Router interface {
	// Resolve returns the endpoint the next physical attempt should target,
	// or false if none are available.
	Resolve() (url.URL, bool)
	// MarkFailed records endpoint as unusable for the remainder of this call.
	MarkFailed(endpoint url.URL)
	// RouteNextRegion applies the RetryNextRegion routing transition.
	// usePreferred selects preferred-location order (index reset to the
	// first preferred location) over failover order (index advances to
	// failoverCount, the teacher's registration-order walk).
	RouteNextRegion(usePreferred bool, failoverCount int)
	// RouteWriteEndpoint applies the RetryOnWriteEndpoint routing
	// transition: the next attempt always targets the primary write
	// endpoint.
	RouteWriteEndpoint()
}

// Pipeline drives the data-plane decision core across physical attempts of
// a single logical operation, sleeping between attempts and recording a
// telemetry span and debug log line per attempt. When Router is set it
// also drives the routing tier: resolving the endpoint for each attempt,
// marking failed endpoints, and rerouting on region/write-endpoint
// decisions, matching the §4.1 state machine's resolve→send→observe loop.
type Pipeline struct {
	Op             OperationInfo
	Router         Router
	Logger         core.Logger
	Telemetry      core.Telemetry
	MaxAttempts    int
	ThrottlePolicy ThrottlePolicy
}

// NewPipeline builds a Pipeline with no-op logging/telemetry and no Router
// by default; callers wire in their own via the exported fields.
func NewPipeline(op OperationInfo) *Pipeline {
	return &Pipeline{
		Op:          op,
		Logger:      core.NoOpLogger{},
		Telemetry:   core.NoOpTelemetry{},
		MaxAttempts: MaxFailoverRetries,
		ThrottlePolicy: ThrottlePolicy{
			MaxAttempts: 5,
			MaxWait:     10 * time.Second,
		},
	}
}

// Execute runs fn repeatedly, applying the data-plane and throttle decision
// cores to each outcome, until a decision resolves to Done/Abort, the
// context is canceled, or MaxAttempts physical attempts have been made.
func (p *Pipeline) Execute(ctx context.Context, fn AttemptFunc) (Outcome, error) {
	retryState := RetryState{}
	throttleState := ThrottleState{MaxAttempts: p.ThrottlePolicy.MaxAttempts, MaxWait: p.ThrottlePolicy.MaxWait}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		var endpoint url.URL
		if p.Router != nil {
			resolved, ok := p.Router.Resolve()
			if !ok {
				return Outcome{}, core.WrapError("retry.Execute", core.KindTransport, core.ErrDiscoveryUnavailable)
			}
			endpoint = resolved
		}

		spanCtx, span := p.Telemetry.StartSpan(ctx, "retry.attempt")
		span.SetAttribute("attempt", attempt)

		outcome, err := fn(spanCtx, attempt, endpoint)

		p.Logger.Debug("retry attempt completed", map[string]interface{}{
			"attempt":    attempt,
			"endpoint":   endpoint.String(),
			"status":     outcome.Status,
			"sub_status": int(outcome.SubStatus),
			"error":      errString(err),
		})

		if err == nil && outcome.Status > 0 && outcome.Status < 300 {
			span.End()
			return outcome, nil
		}

		decision := DecideDataPlane(outcome.Status, outcome.SubStatus, retryState, p.Op)
		if decision.Kind == Done {
			if outcome.Status == http.StatusTooManyRequests {
				decision = DecideThrottleRetry(throttleState, outcome.RetryAfter)
				if decision.Kind == RetrySameEndpoint {
					throttleState = ApplyThrottleDecision(throttleState, decision)
				}
			}
		} else {
			retryState = ApplyForOutcome(retryState, outcome.Status, outcome.SubStatus, decision)
			p.route(decision, outcome, endpoint, retryState)
		}

		span.SetAttribute("decision", decisionName(decision.Kind))
		span.End()

		if decision.Kind == Done || decision.Kind == Abort {
			if err != nil {
				return outcome, err
			}
			return outcome, core.NewHTTPResponseError("retry.Execute", outcome.Status, int(outcome.SubStatus), "")
		}

		if decision.Delay > 0 {
			if sleepErr := sleepWithContext(ctx, decision.Delay, attempt); sleepErr != nil {
				return outcome, sleepErr
			}
		}
	}

	return Outcome{}, core.ErrMaxRetriesExceeded
}

// route applies the routing-tier transition a RetryNextRegion/
// RetryOnWriteEndpoint decision calls for. It is a no-op when no Router is
// wired in, which keeps Pipeline usable in tests that only exercise the
// decision core.
func (p *Pipeline) route(decision Decision, outcome Outcome, endpoint url.URL, retryState RetryState) {
	if p.Router == nil {
		return
	}
	switch decision.Kind {
	case RetryNextRegion:
		markFailed, usePreferred := routingHint(outcome.Status, outcome.SubStatus)
		if markFailed {
			p.Router.MarkFailed(endpoint)
		}
		p.Router.RouteNextRegion(usePreferred, retryState.FailoverCount)
	case RetryOnWriteEndpoint:
		p.Router.RouteWriteEndpoint()
	}
}

// routingHint derives how a RetryNextRegion decision should update the
// routing tier from the outcome that triggered it. Write-forbidden
// failover marks the current endpoint failed and walks endpoints in
// registration order (the failover-count index); service-unavailable
// failover also marks the endpoint failed but resets to the first
// preferred location; session-not-available failover on a multi-write
// account indicates nothing wrong with the endpoint itself, so it does not
// mark it failed; like service-unavailable failover, it resets to the
// first preferred location.
func routingHint(status int, subStatus SubStatus) (markFailed, usePreferred bool) {
	switch {
	case status == http.StatusForbidden && subStatus == SubStatusWriteForbidden:
		return true, false
	case status == http.StatusServiceUnavailable,
		status == http.StatusInternalServerError,
		status == http.StatusGone && subStatus == SubStatusLeaseNotFound:
		return true, true
	default:
		return false, true
	}
}

func decisionName(k DecisionKind) string {
	switch k {
	case Done:
		return "done"
	case Abort:
		return "abort"
	case RetryNextRegion:
		return "retry_next_region"
	case RetrySameEndpoint:
		return "retry_same_endpoint"
	case RetryOnWriteEndpoint:
		return "retry_on_write_endpoint"
	default:
		return "unknown"
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// sleepWithContext waits for d, a sine-smoothed jitter applied the same way
// the rest of this codebase's backoff loops do, or returns ctx.Err() if the
// context is canceled first.
func sleepWithContext(ctx context.Context, d time.Duration, attempt int) error {
	jittered := jitter(d, attempt)
	timer := time.NewTimer(jittered)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// jitter applies up to 10% sine-based smoothing to a backoff duration,
// avoiding synchronized retry storms across concurrent callers without the
// spikiness of pure random jitter.
func jitter(d time.Duration, attempt int) time.Duration {
	if d <= 0 {
		return d
	}
	factor := 1 + 0.1*math.Sin(float64(attempt))
	return time.Duration(float64(d) * factor)
}
