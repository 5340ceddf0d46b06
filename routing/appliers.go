package routing

import (
	"net/url"

	"github.com/meridiandb/meridian-go/retry"
)

// ApplyRoutingForNextRegion updates routing state for a RetryNextRegion
// decision. When usePreferred is true the next attempt targets the first
// preferred location. Otherwise it sets LocationIndex to the failover count
// and clears UsePreferredLocations; EndpointManager.Resolve then walks the
// write endpoints from the first registered one, skipping failed ones, and
// does not read LocationIndex.
func ApplyRoutingForNextRegion(routing RoutingState, state retry.RetryState, usePreferred bool) RoutingState {
	next := routing.clone()
	if usePreferred {
		next.LocationIndex = 0
	} else {
		next.LocationIndex = state.FailoverCount
	}
	next.UsePreferredLocations = usePreferred
	next.ResolvedEndpoint = nil
	return next
}

// ApplyRoutingForWriteEndpoint updates routing state for a
// RetryOnWriteEndpoint decision (the single-write session-retry path): the
// next attempt always targets the primary write endpoint.
func ApplyRoutingForWriteEndpoint(routing RoutingState) RoutingState {
	next := routing.clone()
	next.LocationIndex = 0
	next.UsePreferredLocations = false
	next.ResolvedEndpoint = nil
	return next
}

// MarkEndpointFailed records endpoint as failed so Resolve skips it on
// subsequent attempts for this logical operation.
func MarkEndpointFailed(routing RoutingState, endpoint url.URL) RoutingState {
	next := routing.clone()
	next.FailedEndpoints[endpoint] = struct{}{}
	return next
}
