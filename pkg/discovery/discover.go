package discovery

import (
	"context"
	"time"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/wsadapter"
)

// Found is the result of a successful DiscoverReceiver call.
type Found struct {
	Address   string
	SessionId string
	PublicKey string
}

// Options configures DiscoverReceiver.
type Options struct {
	// Adapter browses mDNS for "_sharego._tcp". Nil skips straight to
	// the subnet scan fallback.
	Adapter wsadapter.DiscoveryAdapter

	// SessionId is the code the user entered or scanned; only a service
	// whose TXT "sid" matches is accepted from mDNS.
	SessionId string

	// Port is the receiver's listen port, used by the subnet scan
	// fallback (mDNS carries its own port per service).
	Port int

	// LocalIP resolves this host's LAN IPv4 for the subnet fallback.
	// Required if Dialer is set and mDNS is skipped or comes up empty.
	LocalIP wsadapter.LocalIpResolver

	// Dialer opens the probe connections for the subnet fallback. Nil
	// disables the fallback entirely (mDNS-only discovery).
	Dialer wsadapter.WsClientAdapter

	// BrowseTimeout bounds the mDNS browse. Zero uses
	// config.MDNSBrowseTimeout.
	BrowseTimeout time.Duration
}

// DiscoverReceiver looks for a receiver advertising opts.SessionId,
// first via mDNS (if opts.Adapter is set) and falling back to a /24
// subnet WebSocket probe (if opts.Dialer is set). It returns a nil
// *Found, nil error if nothing was found before ctx was canceled or
// every avenue was exhausted.
func DiscoverReceiver(ctx context.Context, opts Options) (*Found, error) {
	if opts.Adapter != nil {
		found, err := browseForSessionId(ctx, opts.Adapter, opts.SessionId, opts.BrowseTimeout)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}

	if opts.Dialer == nil || opts.LocalIP == nil {
		return nil, nil
	}

	localIP, err := opts.LocalIP.LocalIPv4()
	if err != nil || localIP == "" {
		return nil, nil
	}

	addr, err := ScanSubnet(ctx, opts.Dialer, localIP, opts.Port)
	if err != nil || addr == "" {
		return nil, nil
	}
	return &Found{Address: addr, SessionId: opts.SessionId}, nil
}

// browseForSessionId runs a bounded mDNS browse and returns the first
// entry whose TXT session id matches want, or nil if none arrives
// before the timeout/ctx cancellation.
func browseForSessionId(ctx context.Context, adapter wsadapter.DiscoveryAdapter, want string, timeout time.Duration) (*Found, error) {
	if timeout <= 0 {
		timeout = config.MDNSBrowseTimeout
	}
	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	services, err := adapter.Browse(browseCtx, config.ServiceType)
	if err != nil {
		return nil, err
	}
	defer adapter.StopBrowsing()

	for {
		select {
		case svc, ok := <-services:
			if !ok {
				return nil, nil
			}
			if svc.SessionId == want {
				return &Found{Address: svc.Address, SessionId: svc.SessionId, PublicKey: svc.PublicKey}, nil
			}
		case <-browseCtx.Done():
			return nil, nil
		}
	}
}

// AdvertiseReceiver publishes a receiver's session over mDNS under
// config.ServiceType with TXT {sid, pk, v}.
func AdvertiseReceiver(adapter wsadapter.DiscoveryAdapter, port int, sid, publicKey string) error {
	txt := map[string]string{
		txtKeySessionId: sid,
		txtKeyPublicKey: publicKey,
		txtKeyVersion:   itoa(config.ProtocolVersion),
	}
	return adapter.Advertise(config.ServiceType, port, txt)
}
