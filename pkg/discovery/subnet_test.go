package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/sharego/core/pkg/wsadapter"
)

type fakeConn struct{}

func (fakeConn) Send([]byte) error                 { return nil }
func (fakeConn) OnMessage(wsadapter.MessageHandler) {}
func (fakeConn) OnClose(wsadapter.CloseHandler)     {}
func (fakeConn) Close() error                       { return nil }

// onlyHostDialer succeeds only for the given "ip:port" address and
// fails every other dial, simulating exactly one host on the subnet
// answering the probe.
type onlyHostDialer struct {
	wantAddr string
}

func (d onlyHostDialer) Connect(ctx context.Context, url string) (wsadapter.Conn, error) {
	if url == "ws://"+d.wantAddr {
		return fakeConn{}, nil
	}
	return nil, fmt.Errorf("connection refused")
}

func TestSubnetBase(t *testing.T) {
	cases := []struct {
		ip   string
		want string
	}{
		{"192.168.1.42", "192.168.1."},
		{"10.0.0.5", "10.0.0."},
		{"not-an-ip", ""},
		{"::1", ""},
	}
	for _, c := range cases {
		if got := subnetBase(c.ip); got != c.want {
			t.Errorf("subnetBase(%q) = %q, want %q", c.ip, got, c.want)
		}
	}
}

func TestScanSubnetFindsTheOneHost(t *testing.T) {
	dialer := onlyHostDialer{wantAddr: "192.168.1.77:4040"}

	addr, err := ScanSubnet(context.Background(), dialer, "192.168.1.200", 4040)
	if err != nil {
		t.Fatalf("ScanSubnet: %v", err)
	}
	if addr != "192.168.1.77:4040" {
		t.Fatalf("addr = %q, want 192.168.1.77:4040", addr)
	}
}

func TestScanSubnetNoneAnswer(t *testing.T) {
	dialer := onlyHostDialer{wantAddr: "10.0.0.254:4040"}

	addr, err := ScanSubnet(context.Background(), dialer, "192.168.1.1", 4040)
	if err != nil {
		t.Fatalf("ScanSubnet: %v", err)
	}
	if addr != "" {
		t.Fatalf("addr = %q, want empty", addr)
	}
}

func TestScanSubnetMalformedLocalIP(t *testing.T) {
	dialer := onlyHostDialer{wantAddr: "192.168.1.1:4040"}
	_, err := ScanSubnet(context.Background(), dialer, "not-an-ip", 4040)
	if err != ErrLocalIPUnavailable {
		t.Fatalf("err = %v, want ErrLocalIPUnavailable", err)
	}
}
