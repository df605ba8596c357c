package wstransport

import (
	"net"
	"sort"
	"strings"

	"github.com/sharego/core/pkg/wsadapter"
)

// positiveInterfacePrefixes name physical Wi-Fi/Ethernet adapters. They
// rank above unmatched names but below names containing "wi-fi" or
// "ethernet" (see interfacePriority), per the heuristic in spec.md §6.
var positiveInterfacePrefixes = []string{"wlan", "wlp", "en", "eth", "enp"}

// negativeInterfacePrefixes name VPN, tunnel, container, and other
// virtual adapters that must never be selected, per spec.md §6.
var negativeInterfacePrefixes = []string{
	"utun", "tun", "tap", "ipsec", "ppp", "wg", "vmnet", "veth",
	"docker", "br-", "virbr", "vbox", "zt", "tailscale", "lo",
}

// NetLocalIpResolver implements wsadapter.LocalIpResolver over the host's
// real network interfaces, preferring a physical adapter's IPv4 address
// over a virtual one. Grounded on the teacher's interface-walking/
// IP-preference helpers for discovery addressing.
type NetLocalIpResolver struct{}

// NewNetLocalIpResolver returns a NetLocalIpResolver.
func NewNetLocalIpResolver() *NetLocalIpResolver { return &NetLocalIpResolver{} }

// LocalIPv4 returns the best private IPv4 (RFC1918) address for the
// current host, or ErrNoLocalAddress if none is found.
func (NetLocalIpResolver) LocalIPv4() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	type candidate struct {
		ip       string
		priority int
	}
	var candidates []candidate

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		priority, skip := interfacePriority(iface.Name)
		if skip {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil || ip4.IsLoopback() || !isPrivateIPv4(ip4) {
				continue
			}
			candidates = append(candidates, candidate{ip: ip4.String(), priority: priority})
		}
	}

	if len(candidates) == 0 {
		return "", ErrNoLocalAddress
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority > candidates[j].priority
	})
	return candidates[0].ip, nil
}

var _ wsadapter.LocalIpResolver = (*NetLocalIpResolver)(nil)

// interfacePriority scores iface by name against the heuristic in
// spec.md §6: negative prefixes are skipped outright, a Wi-Fi/Ethernet
// name or positive prefix outranks any other passing interface.
func interfacePriority(name string) (priority int, skip bool) {
	lower := strings.ToLower(name)
	for _, prefix := range negativeInterfacePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return 0, true
		}
	}
	if strings.Contains(lower, "wi-fi") || strings.Contains(lower, "ethernet") {
		return 2, false
	}
	for _, prefix := range positiveInterfacePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return 1, false
		}
	}
	return 0, false
}

// isPrivateIPv4 reports whether ip falls in one of the RFC1918 ranges.
func isPrivateIPv4(ip net.IP) bool {
	return ip[0] == 10 ||
		(ip[0] == 172 && ip[1] >= 16 && ip[1] <= 31) ||
		(ip[0] == 192 && ip[1] == 168)
}
