package wstransport

import (
	"net"
	"testing"
)

func TestInterfacePriority(t *testing.T) {
	cases := []struct {
		name         string
		wantPriority int
		wantSkip     bool
	}{
		{"en0", 1, false},
		{"eth0", 1, false},
		{"wlan0", 1, false},
		{"wlp3s0", 1, false},
		{"enp4s0", 1, false},
		{"Wi-Fi", 2, false},
		{"Ethernet", 2, false},
		{"utun0", 0, true},
		{"tun0", 0, true},
		{"tap0", 0, true},
		{"wg0", 0, true},
		{"vmnet1", 0, true},
		{"veth1234", 0, true},
		{"docker0", 0, true},
		{"br-abcdef", 0, true},
		{"virbr0", 0, true},
		{"vbox0", 0, true},
		{"lo0", 0, true},
		{"some-custom-adapter", 0, false},
	}
	for _, c := range cases {
		gotPriority, gotSkip := interfacePriority(c.name)
		if gotPriority != c.wantPriority || gotSkip != c.wantSkip {
			t.Errorf("interfacePriority(%q) = (%d, %v), want (%d, %v)",
				c.name, gotPriority, gotSkip, c.wantPriority, c.wantSkip)
		}
	}
}

func TestIsPrivateIPv4(t *testing.T) {
	cases := []struct {
		ip   string
		want bool
	}{
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.10", true},
		{"172.32.0.1", false},
		{"172.15.0.1", false},
		{"8.8.8.8", false},
		{"169.254.1.1", false},
	}
	for _, c := range cases {
		ip := net.ParseIP(c.ip).To4()
		if ip == nil {
			t.Fatalf("failed to parse %q", c.ip)
		}
		if got := isPrivateIPv4(ip); got != c.want {
			t.Errorf("isPrivateIPv4(%q) = %v, want %v", c.ip, got, c.want)
		}
	}
}

func TestLocalIPv4ResolverImplementsInterface(t *testing.T) {
	r := NewNetLocalIpResolver()
	// LocalIPv4 depends on the host's real network interfaces, so this
	// only checks it returns without panicking and, when it does find
	// an address, that the address is a well-formed private IPv4.
	ip, err := r.LocalIPv4()
	if err != nil {
		return
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		t.Fatalf("LocalIPv4() = %q, want a valid IPv4 literal", ip)
	}
}
