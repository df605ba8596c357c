package transport_test

import (
	"context"
	"testing"
	"time"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/transport"
	"github.com/sharego/core/pkg/wstransport"
)

func newPair(t *testing.T) (*transport.Transport, *transport.Transport) {
	t.Helper()
	server := transport.New(transport.Config{ServerAdapter: wstransport.NewInMemoryServerAdapter()})
	addr, err := server.Listen(0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	client := transport.New(transport.Config{ClientAdapter: wstransport.NewInMemoryClientAdapter()})
	netAddr, err := transport.ValidateAddress(addr)
	if err != nil {
		t.Fatalf("ValidateAddress(%q): %v", addr, err)
	}
	if err := client.Connect(context.Background(), netAddr); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	waitForState(t, server, transport.StateConnected)
	return server, client
}

func waitForState(t *testing.T, tr *transport.Transport, want transport.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tr.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("transport never reached state %v, stuck at %v", want, tr.State())
}

func TestListenConnectLifecycle(t *testing.T) {
	server, client := newPair(t)
	defer server.Close()
	defer client.Close()

	if server.State() != transport.StateConnected {
		t.Errorf("server.State() = %v, want Connected", server.State())
	}
	if client.State() != transport.StateConnected {
		t.Errorf("client.State() = %v, want Connected", client.State())
	}
}

func TestSendReceive(t *testing.T) {
	server, client := newPair(t)
	defer server.Close()
	defer client.Close()

	received := make(chan []byte, 1)
	server.OnData(func(data []byte) { received <- data })

	if err := client.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case data := <-received:
		if string(data) != "hello" {
			t.Errorf("received %q, want %q", data, "hello")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSendRejectsOversizedMessage(t *testing.T) {
	server, client := newPair(t)
	defer server.Close()
	defer client.Close()

	big := make([]byte, config.MaxMessageSize+1)
	if err := client.Send(big); err != transport.ErrMessageTooLarge {
		t.Errorf("got %v, want ErrMessageTooLarge", err)
	}
}

func TestSendBeforeConnectFails(t *testing.T) {
	client := transport.New(transport.Config{ClientAdapter: wstransport.NewInMemoryClientAdapter()})
	if err := client.Send([]byte("x")); err != transport.ErrTransportNotBound {
		t.Errorf("got %v, want ErrTransportNotBound", err)
	}
}

func TestDiscoveryProbeReturnsToListening(t *testing.T) {
	server := transport.New(transport.Config{ServerAdapter: wstransport.NewInMemoryServerAdapter()})
	addr, err := server.Listen(0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Close()

	netAddr, err := transport.ValidateAddress(addr)
	if err != nil {
		t.Fatalf("ValidateAddress: %v", err)
	}

	probe := transport.New(transport.Config{ClientAdapter: wstransport.NewInMemoryClientAdapter()})
	if err := probe.Connect(context.Background(), netAddr); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitForState(t, server, transport.StateConnected)

	if err := probe.Close(); err != nil {
		t.Fatalf("probe.Close: %v", err)
	}

	waitForState(t, server, transport.StateListening)
}

func TestValidateAddressRejectsGarbage(t *testing.T) {
	if _, err := transport.ValidateAddress("not-an-address"); err != transport.ErrInvalidAddress {
		t.Errorf("got %v, want ErrInvalidAddress", err)
	}
}
