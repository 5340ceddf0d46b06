package routing

import (
	"context"
	"net/url"

	"github.com/meridiandb/meridian-go/retry"
)

// CallRouter adapts an EndpointManager and a single call's RoutingState to
// retry.Router, so retry.Pipeline.Execute can drive endpoint resolution
// and rerouting without this package's types leaking into the retry
// package. This package already imports retry for OperationInfo, so the
// reverse import would cycle.
//
// A CallRouter is scoped to one logical operation; construct a fresh one
// per Pipeline.Execute call, matching the teacher's per-call RoutingState.
type CallRouter struct {
	ctx     context.Context
	manager *EndpointManager
	op      retry.OperationInfo
	state   RoutingState
}

// NewCallRouter builds a CallRouter for a single logical operation against
// manager, starting from a fresh RoutingState.
func NewCallRouter(ctx context.Context, manager *EndpointManager, op retry.OperationInfo) *CallRouter {
	return &CallRouter{ctx: ctx, manager: manager, op: op, state: NewRoutingState()}
}

// State returns a snapshot of the routing state accumulated so far, useful
// for logging and tests.
func (r *CallRouter) State() RoutingState { return r.state }

// Resolve implements retry.Router. It reuses the last resolved endpoint
// when one is cached and re-resolves (refreshing discovery first) after a
// reroute clears it.
func (r *CallRouter) Resolve() (url.URL, bool) {
	if r.state.ResolvedEndpoint != nil {
		return *r.state.ResolvedEndpoint, true
	}
	if err := r.manager.RefreshLocation(r.ctx, false); err != nil {
		return url.URL{}, false
	}
	endpoint, ok := r.manager.Resolve(r.op, r.state)
	if !ok {
		return url.URL{}, false
	}
	r.state.ResolvedEndpoint = &endpoint
	return endpoint, true
}

// MarkFailed implements retry.Router.
func (r *CallRouter) MarkFailed(endpoint url.URL) {
	r.state = MarkEndpointFailed(r.state, endpoint)
}

// RouteNextRegion implements retry.Router.
func (r *CallRouter) RouteNextRegion(usePreferred bool, failoverCount int) {
	r.state = ApplyRoutingForNextRegion(r.state, retry.RetryState{FailoverCount: failoverCount}, usePreferred)
}

// RouteWriteEndpoint implements retry.Router.
func (r *CallRouter) RouteWriteEndpoint() {
	r.state = ApplyRoutingForWriteEndpoint(r.state)
}
