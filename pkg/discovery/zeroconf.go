package discovery

import (
	"context"
	"crypto/rand"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"

	"github.com/sharego/core/pkg/wsadapter"
)

// mdnsServer is the interface for an active mDNS service registration,
// satisfied by *zeroconf.Server. Abstracted for dependency injection in
// tests, mirroring the teacher's MDNSServer/MDNSServerFactory split.
type mdnsServer interface {
	Shutdown()
}

// mdnsServerFactory creates mdnsServer instances.
type mdnsServerFactory interface {
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (mdnsServer, error)
}

type zeroconfServerFactory struct{}

func (zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (mdnsServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// mdnsResolver is the interface for mDNS service browsing, satisfied by
// *zeroconf.Resolver. Abstracted for dependency injection in tests.
type mdnsResolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

func newZeroconfResolver() (mdnsResolver, error) {
	return zeroconf.NewResolver(nil)
}

// ZeroconfConfig configures a ZeroconfAdapter.
type ZeroconfConfig struct {
	// Interfaces restricts advertising/browsing to these network
	// interfaces. Nil means all interfaces.
	Interfaces []net.Interface

	// ServerFactory creates mDNS service registrations. Nil uses the
	// real grandcat/zeroconf implementation; tests may inject a fake.
	ServerFactory mdnsServerFactory

	// Resolver browses for mDNS services. Nil uses the real
	// grandcat/zeroconf implementation; tests may inject a fake.
	Resolver mdnsResolver

	LoggerFactory logging.LoggerFactory
}

// ZeroconfAdapter is a wsadapter.DiscoveryAdapter backed by
// grandcat/zeroconf, advertising and browsing the single
// "_sharego._tcp" service this package cares about.
type ZeroconfAdapter struct {
	cfg ZeroconfConfig
	log logging.LeveledLogger

	mu       sync.Mutex
	server   mdnsServer
	resolver mdnsResolver
	cancel   context.CancelFunc
}

// NewZeroconfAdapter creates an adapter with no active advertisement or
// browse.
func NewZeroconfAdapter(cfg ZeroconfConfig) *ZeroconfAdapter {
	a := &ZeroconfAdapter{cfg: cfg}
	if cfg.LoggerFactory != nil {
		a.log = cfg.LoggerFactory.NewLogger("discovery")
	}
	return a
}

func (a *ZeroconfAdapter) factory() mdnsServerFactory {
	if a.cfg.ServerFactory != nil {
		return a.cfg.ServerFactory
	}
	return zeroconfServerFactory{}
}

// Advertise implements wsadapter.DiscoveryAdapter.
func (a *ZeroconfAdapter) Advertise(serviceType string, port int, txt map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return ErrAlreadyAdvertising
	}

	instance, err := randomInstanceName()
	if err != nil {
		return err
	}

	records := make([]string, 0, len(txt))
	for k, v := range txt {
		records = append(records, k+"="+v)
	}

	server, err := a.factory().Register(instance, serviceType, "local.", port, records, a.cfg.Interfaces)
	if err != nil {
		return err
	}
	a.server = server
	if a.log != nil {
		a.log.Infof("discovery: advertising %s instance=%s port=%d", serviceType, instance, port)
	}
	return nil
}

// Browse implements wsadapter.DiscoveryAdapter. The returned channel is
// closed when ctx is canceled.
func (a *ZeroconfAdapter) Browse(ctx context.Context, serviceType string) (<-chan wsadapter.DiscoveredService, error) {
	resolver := a.cfg.Resolver
	if resolver == nil {
		r, err := newZeroconfResolver()
		if err != nil {
			return nil, err
		}
		resolver = r
	}

	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.resolver = resolver
	a.cancel = cancel
	a.mu.Unlock()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	out := make(chan wsadapter.DiscoveredService, 16)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc, ok := toDiscoveredService(entry, port(entry))
				if !ok {
					continue
				}
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		if err := resolver.Browse(ctx, serviceType, "local.", entries); err != nil && a.log != nil {
			a.log.Warnf("discovery: browse %s failed: %v", serviceType, err)
		}
	}()

	return out, nil
}

func port(entry *zeroconf.ServiceEntry) int { return entry.Port }

func toDiscoveredService(entry *zeroconf.ServiceEntry, p int) (wsadapter.DiscoveredService, bool) {
	txt := decodeTXT(entry.Text)
	sid, ok := txt[txtKeySessionId]
	if !ok {
		return wsadapter.DiscoveredService{}, false
	}

	ip := preferredIPv4(entry)
	if ip == "" {
		return wsadapter.DiscoveredService{}, false
	}

	return wsadapter.DiscoveredService{
		Name:      entry.Instance,
		Address:   net.JoinHostPort(ip, itoa(p)),
		SessionId: sid,
		PublicKey: txt[txtKeyPublicKey],
	}, true
}

func preferredIPv4(entry *zeroconf.ServiceEntry) string {
	if len(entry.AddrIPv4) > 0 {
		return entry.AddrIPv4[0].String()
	}
	return ""
}

// StopAdvertising implements wsadapter.DiscoveryAdapter.
func (a *ZeroconfAdapter) StopAdvertising() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return ErrNotAdvertising
	}
	a.server.Shutdown()
	a.server = nil
	return nil
}

// StopBrowsing implements wsadapter.DiscoveryAdapter.
func (a *ZeroconfAdapter) StopBrowsing() error {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

var _ wsadapter.DiscoveryAdapter = (*ZeroconfAdapter)(nil)

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func randomInstanceName() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	const hex = "0123456789abcdef"
	out := make([]byte, 16)
	for i, b := range buf {
		out[2*i] = hex[b>>4]
		out[2*i+1] = hex[b&0x0f]
	}
	return string(out), nil
}
