package discovery

import (
	"context"
	"sync"

	"github.com/sharego/core/pkg/wsadapter"
)

// MemoryAdapter is a wsadapter.DiscoveryAdapter backed by an in-process
// registry instead of real mDNS traffic, standing in for ZeroconfAdapter
// in tests the way pkg/wstransport's in-memory adapters stand in for a
// real WebSocket.
type MemoryAdapter struct {
	mu      sync.Mutex
	entries map[string]wsadapter.DiscoveredService
}

// memoryRegistry is shared process-wide so one MemoryAdapter can
// advertise and another can browse, mirroring real mDNS multicast.
var (
	memoryRegistryMu sync.Mutex
	memoryRegistry   = map[string]map[string]wsadapter.DiscoveredService{}
)

// NewMemoryAdapter creates an adapter with nothing advertised.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{entries: map[string]wsadapter.DiscoveredService{}}
}

// Advertise implements wsadapter.DiscoveryAdapter.
func (m *MemoryAdapter) Advertise(serviceType string, port int, txt map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	svc := wsadapter.DiscoveredService{
		Name:      txt[txtKeySessionId],
		Address:   "127.0.0.1:" + itoa(port),
		SessionId: txt[txtKeySessionId],
		PublicKey: txt[txtKeyPublicKey],
	}

	memoryRegistryMu.Lock()
	services := memoryRegistry[serviceType]
	if services == nil {
		services = map[string]wsadapter.DiscoveredService{}
		memoryRegistry[serviceType] = services
	}
	services[svc.SessionId] = svc
	memoryRegistryMu.Unlock()

	m.entries[serviceType] = svc
	return nil
}

// Browse implements wsadapter.DiscoveryAdapter: it snapshots the
// registry once and emits every currently-advertised entry, then closes
// the channel (no live multicast to simulate).
func (m *MemoryAdapter) Browse(ctx context.Context, serviceType string) (<-chan wsadapter.DiscoveredService, error) {
	memoryRegistryMu.Lock()
	services := memoryRegistry[serviceType]
	snapshot := make([]wsadapter.DiscoveredService, 0, len(services))
	for _, svc := range services {
		snapshot = append(snapshot, svc)
	}
	memoryRegistryMu.Unlock()

	out := make(chan wsadapter.DiscoveredService, len(snapshot))
	go func() {
		defer close(out)
		for _, svc := range snapshot {
			select {
			case out <- svc:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// StopAdvertising implements wsadapter.DiscoveryAdapter.
func (m *MemoryAdapter) StopAdvertising() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	memoryRegistryMu.Lock()
	for serviceType, svc := range m.entries {
		if services := memoryRegistry[serviceType]; services != nil {
			delete(services, svc.SessionId)
		}
	}
	memoryRegistryMu.Unlock()

	m.entries = map[string]wsadapter.DiscoveredService{}
	return nil
}

// StopBrowsing implements wsadapter.DiscoveryAdapter. Browse above
// doesn't hold a live goroutine past its snapshot, so there is nothing
// to cancel; kept to satisfy the interface.
func (m *MemoryAdapter) StopBrowsing() error { return nil }

var _ wsadapter.DiscoveryAdapter = (*MemoryAdapter)(nil)
