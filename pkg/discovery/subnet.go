package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/wsadapter"
)

// subnetBase returns the "/24" prefix ("a.b.c.") of an IPv4 dotted
// address, or an empty string if ip isn't a well-formed IPv4 literal.
func subnetBase(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	v4 := parsed.To4()
	if v4 == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d.", v4[0], v4[1], v4[2])
}

// ScanSubnet probes hosts .1..254 of localIP's /24 subnet on port by
// attempting to open a WebSocket via dial, SubnetScanConcurrency at a
// time. The first successful open cancels the rest and its "ip:port" is
// returned. Returns "", nil if nothing answered before ctx is done.
func ScanSubnet(ctx context.Context, dial wsadapter.WsClientAdapter, localIP string, port int) (string, error) {
	base := subnetBase(localIP)
	if base == "" {
		return "", ErrLocalIPUnavailable
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		addr string
	}

	results := make(chan result, 1)
	sem := make(chan struct{}, config.SubnetScanConcurrency)
	var wg sync.WaitGroup

dispatch:
	for host := 1; host <= 254; host++ {
		host := host
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			addr := base + strconv.Itoa(host) + ":" + strconv.Itoa(port)
			probeCtx, probeCancel := context.WithTimeout(ctx, config.DiscoveryHostTimeout)
			defer probeCancel()

			conn, err := dial.Connect(probeCtx, "ws://"+addr)
			if err != nil {
				return
			}
			conn.Close()

			select {
			case results <- result{addr: addr}:
				cancel()
			default:
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	select {
	case r, ok := <-results:
		if !ok {
			return "", nil
		}
		return r.addr, nil
	case <-ctx.Done():
		// A successful probe sends to results and then calls cancel(),
		// so ctx.Done() can race the send itself ready here too. Give
		// results one last non-blocking check before giving up.
		select {
		case r, ok := <-results:
			if ok {
				return r.addr, nil
			}
		default:
		}
		return "", nil
	}
}

