package routing

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/meridiandb/meridian-go/core"
	"github.com/meridiandb/meridian-go/retry"
)

// SnapshotCache persists a resolved topology snapshot across process
// restarts or across a fleet of clients. EndpointManager treats it as an
// optional second-level cache behind its own in-memory one.
type SnapshotCache interface {
	Load(ctx context.Context, accountName string) ([]url.URL, bool, error)
	Store(ctx context.Context, accountName string, endpoints []url.URL, ttl time.Duration) error
}

// LocationDiscoverer fetches the current preferred-location topology for an
// account from the control plane. It is the only piece of this package that
// talks to the control plane.
type LocationDiscoverer interface {
	DiscoverWriteEndpoints(ctx context.Context, accountName string) ([]url.URL, error)
	DiscoverReadEndpoints(ctx context.Context, accountName string) ([]url.URL, error)
}

// EndpointManager resolves a RoutingState and OperationInfo into a concrete
// endpoint, caching the last discovered topology and refreshing it at most
// once per TTL no matter how many goroutines request it concurrently.
type EndpointManager struct {
	accountName string
	discoverer  LocationDiscoverer
	cache       SnapshotCache
	ttl         time.Duration
	logger      core.Logger

	mu             sync.RWMutex
	writeEndpoints []url.URL
	readEndpoints  []url.URL
	refreshedAt    time.Time
	refreshing     chan struct{}
}

// NewEndpointManager builds an EndpointManager for accountName. cache may be
// nil, in which case only the in-memory topology is used.
func NewEndpointManager(accountName string, discoverer LocationDiscoverer, cache SnapshotCache, ttl time.Duration, logger core.Logger) *EndpointManager {
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	return &EndpointManager{
		accountName: accountName,
		discoverer:  discoverer,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
	}
}

// PreferredLocationCount returns how many write or read endpoints (per
// isReadOnly) are currently known, without triggering a refresh.
func (m *EndpointManager) PreferredLocationCount(isReadOnly bool) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if isReadOnly {
		return len(m.readEndpoints)
	}
	return len(m.writeEndpoints)
}

// RefreshLocation refreshes the cached topology from the discoverer, or
// from the snapshot cache if it still holds a fresh value and force is
// false. Concurrent callers collapse onto a single in-flight refresh.
func (m *EndpointManager) RefreshLocation(ctx context.Context, force bool) error {
	m.mu.Lock()
	if !force && time.Since(m.refreshedAt) < m.ttl && !m.refreshedAt.IsZero() {
		m.mu.Unlock()
		return nil
	}
	if m.refreshing != nil {
		wait := m.refreshing
		m.mu.Unlock()
		select {
		case <-wait:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	m.refreshing = done
	m.mu.Unlock()

	err := m.doRefresh(ctx, force)

	m.mu.Lock()
	m.refreshing = nil
	m.mu.Unlock()
	close(done)

	return err
}

func (m *EndpointManager) doRefresh(ctx context.Context, force bool) error {
	if !force && m.cache != nil {
		if endpoints, ok, err := m.cache.Load(ctx, m.accountName); err == nil && ok {
			m.mu.Lock()
			m.writeEndpoints = endpoints
			m.readEndpoints = endpoints
			m.refreshedAt = time.Now()
			m.mu.Unlock()
			return nil
		}
	}

	writeEndpoints, err := m.discoverer.DiscoverWriteEndpoints(ctx, m.accountName)
	if err != nil {
		return core.WrapError("routing.RefreshLocation", core.KindTransport, err)
	}
	readEndpoints, err := m.discoverer.DiscoverReadEndpoints(ctx, m.accountName)
	if err != nil {
		return core.WrapError("routing.RefreshLocation", core.KindTransport, err)
	}

	m.mu.Lock()
	m.writeEndpoints = writeEndpoints
	m.readEndpoints = readEndpoints
	m.refreshedAt = time.Now()
	m.mu.Unlock()

	if m.cache != nil {
		if err := m.cache.Store(ctx, m.accountName, writeEndpoints, m.ttl); err != nil {
			m.logger.Warn("routing: failed to persist endpoint snapshot", map[string]interface{}{"error": err.Error()})
		}
	}

	return nil
}

// Resolve picks the endpoint for routing and op, skipping any endpoint
// already marked failed in routing.FailedEndpoints. When
// routing.UsePreferredLocations is false the call has been routed onto the
// primary write endpoint (single-write session recovery, spec §3); that
// overrides op.IsReadOnly, since a read can be sent to the write endpoint
// but never the reverse.
func (m *EndpointManager) Resolve(op retry.OperationInfo, routing RoutingState) (url.URL, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	endpoints := m.writeEndpoints
	if op.IsReadOnly && routing.UsePreferredLocations {
		endpoints = m.readEndpoints
	}
	if len(endpoints) == 0 {
		return url.URL{}, false
	}

	index := routing.LocationIndex
	if !routing.UsePreferredLocations {
		index = 0
	}
	for attempt := 0; attempt < len(endpoints); attempt++ {
		candidate := endpoints[(index+attempt)%len(endpoints)]
		if _, failed := routing.FailedEndpoints[candidate]; !failed {
			return candidate, true
		}
	}
	return url.URL{}, false
}
