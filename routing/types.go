// Package routing holds the third tier of the retry decision core: the
// location topology a Decision is resolved against. types.go and
// appliers.go are pure — RoutingState in, RoutingState out — while
// EndpointManager owns the only I/O (refreshing the topology) and the
// only mutable, lockable state in this package.
package routing

import "net/url"

// RoutingState tracks which preferred location a retry should target next,
// and which endpoints have already failed for the current logical
// operation. It is immutable from the caller's point of view: every
// Apply* function returns a new value.
type RoutingState struct {
	LocationIndex         int
	UsePreferredLocations bool
	ResolvedEndpoint      *url.URL
	FailedEndpoints       map[url.URL]struct{}
}

// NewRoutingState returns a RoutingState with an initialized failed-endpoint
// set, defaulting to the first preferred location.
func NewRoutingState() RoutingState {
	return RoutingState{
		UsePreferredLocations: true,
		FailedEndpoints:       make(map[url.URL]struct{}),
	}
}

// clone returns a shallow copy of routing with its own failed-endpoints map,
// so appliers never mutate the caller's state in place.
func (routing RoutingState) clone() RoutingState {
	next := routing
	next.FailedEndpoints = make(map[url.URL]struct{}, len(routing.FailedEndpoints))
	for ep := range routing.FailedEndpoints {
		next.FailedEndpoints[ep] = struct{}{}
	}
	return next
}
