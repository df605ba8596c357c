package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/crypto"
	"github.com/sharego/core/pkg/protocol"
	"github.com/sharego/core/pkg/session"
	"github.com/sharego/core/pkg/transport"
	"github.com/sharego/core/pkg/wstransport"
)

// newTransports returns a fresh, unconnected server/client Transport
// pair. The session under test drives Listen/Connect itself (via
// StartAsReceiver/StartAsSender), so these must not be pre-connected.
func newTransports(t *testing.T) (*transport.Transport, *transport.Transport) {
	t.Helper()
	server := transport.New(transport.Config{ServerAdapter: wstransport.NewInMemoryServerAdapter()})
	client := transport.New(transport.Config{ClientAdapter: wstransport.NewInMemoryClientAdapter()})
	return server, client
}

// dialAddr resolves serverTr's local address into the NetworkAddress a
// sender session needs to pass to StartAsSender.
func dialAddr(t *testing.T, serverTr *transport.Transport) config.NetworkAddress {
	t.Helper()
	addr, err := transport.ValidateAddress(serverTr.LocalAddress())
	if err != nil {
		t.Fatalf("ValidateAddress(%q): %v", serverTr.LocalAddress(), err)
	}
	return addr
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

// pairedSessions drives a full receiver/sender handshake to StateActive
// and returns both sessions, matching spec.md §8 scenario S3.
func pairedSessions(t *testing.T) (receiver, sender *session.Session) {
	t.Helper()
	serverTr, clientTr := newTransports(t)

	pendingOnReceiver := make(chan session.PairingRequest, 1)

	receiver = session.New(session.RoleReceiver, "RECVR1", session.Listeners{
		OnPairingRequest: func(r session.PairingRequest) { pendingOnReceiver <- r },
	}, session.Config{DeviceName: "Receiver Device"})

	if err := receiver.StartAsReceiver(context.Background(), serverTr, 0); err != nil {
		t.Fatalf("StartAsReceiver: %v", err)
	}
	waitFor(t, func() bool { return receiver.State() == session.StateWaitingForSender }, "receiver never reached WaitingForSender")

	sender = session.New(session.RoleSender, receiver.Id(), session.Listeners{}, session.Config{DeviceName: "Sender Device"})
	if err := sender.StartAsSender(context.Background(), clientTr, dialAddr(t, serverTr), nil); err != nil {
		t.Fatalf("StartAsSender: %v", err)
	}

	select {
	case <-pendingOnReceiver:
	case <-time.After(2 * time.Second):
		t.Fatal("receiver never saw a pairing request")
	}

	if err := receiver.ApprovePairing(); err != nil {
		t.Fatalf("ApprovePairing: %v", err)
	}

	waitFor(t, func() bool { return receiver.State() == session.StateActive }, "receiver never reached Active")
	waitFor(t, func() bool { return sender.State() == session.StateActive }, "sender never reached Active")
	return receiver, sender
}

func TestHandshakeReachesActive(t *testing.T) {
	receiver, sender := pairedSessions(t)
	defer receiver.Close()
	defer sender.Close()

	if receiver.State() != session.StateActive {
		t.Errorf("receiver.State() = %v, want Active", receiver.State())
	}
	if sender.State() != session.StateActive {
		t.Errorf("sender.State() = %v, want Active", sender.State())
	}
}

func TestDataDeliveryAndAck(t *testing.T) {
	receiver, sender := pairedSessions(t)
	defer receiver.Close()
	defer sender.Close()

	received := make(chan []byte, 1)
	acked := make(chan config.SequenceNumber, 1)

	receiver.AttachListeners(session.Listeners{
		OnDataReceived: func(data []byte) { received <- data },
	})
	sender.AttachListeners(session.Listeners{
		OnDataAcknowledged: func(seq config.SequenceNumber) { acked <- seq },
	})

	seq, err := sender.SendData([]byte("hello from sender"))
	if err != nil {
		t.Fatalf("SendData: %v", err)
	}

	select {
	case data := <-received:
		if string(data) != "hello from sender" {
			t.Errorf("received %q, want %q", data, "hello from sender")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for data")
	}

	select {
	case ackSeq := <-acked:
		if ackSeq != seq {
			t.Errorf("ack seq = %d, want %d", ackSeq, seq)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ack")
	}
}

func TestSendDataOutsideActiveFails(t *testing.T) {
	serverTr, _ := newTransports(t)
	receiver := session.New(session.RoleReceiver, "RECVR2", session.Listeners{}, session.Config{})
	if err := receiver.StartAsReceiver(context.Background(), serverTr, 0); err != nil {
		t.Fatalf("StartAsReceiver: %v", err)
	}
	defer receiver.Close()

	if _, err := receiver.SendData([]byte("x")); err != session.ErrNotActive {
		t.Errorf("got %v, want ErrNotActive", err)
	}
}

func TestRejectPairingMovesToClosed(t *testing.T) {
	serverTr, clientTr := newTransports(t)

	pending := make(chan session.PairingRequest, 1)
	receiver := session.New(session.RoleReceiver, "RECVR3", session.Listeners{
		OnPairingRequest: func(r session.PairingRequest) { pending <- r },
	}, session.Config{})
	if err := receiver.StartAsReceiver(context.Background(), serverTr, 0); err != nil {
		t.Fatalf("StartAsReceiver: %v", err)
	}
	waitFor(t, func() bool { return receiver.State() == session.StateWaitingForSender }, "receiver never reached WaitingForSender")

	senderRejected := make(chan struct{}, 1)
	sender := session.New(session.RoleSender, receiver.Id(), session.Listeners{
		OnStateChanged: func(st session.State) {
			if st == session.StateRejected {
				senderRejected <- struct{}{}
			}
		},
	}, session.Config{})
	if err := sender.StartAsSender(context.Background(), clientTr, dialAddr(t, serverTr), nil); err != nil {
		t.Fatalf("StartAsSender: %v", err)
	}

	select {
	case <-pending:
	case <-time.After(2 * time.Second):
		t.Fatal("receiver never saw a pairing request")
	}

	if err := receiver.RejectPairing("no thanks"); err != nil {
		t.Fatalf("RejectPairing: %v", err)
	}

	waitFor(t, func() bool { return receiver.State() == session.StateClosed }, "receiver never reached Closed")

	select {
	case <-senderRejected:
	case <-time.After(2 * time.Second):
		t.Fatal("sender never observed Rejected")
	}
	waitFor(t, func() bool { return sender.State() == session.StateClosed }, "sender never reached Closed")
}

func TestFirstHelloWinsSecondIgnored(t *testing.T) {
	serverTr, clientTr := newTransports(t)

	pending := make(chan session.PairingRequest, 1)
	receiver := session.New(session.RoleReceiver, "RECVR4", session.Listeners{
		OnPairingRequest: func(r session.PairingRequest) { pending <- r },
	}, session.Config{})
	if err := receiver.StartAsReceiver(context.Background(), serverTr, 0); err != nil {
		t.Fatalf("StartAsReceiver: %v", err)
	}
	waitFor(t, func() bool { return receiver.State() == session.StateWaitingForSender }, "receiver never reached WaitingForSender")

	sender := session.New(session.RoleSender, receiver.Id(), session.Listeners{}, session.Config{})
	if err := sender.StartAsSender(context.Background(), clientTr, dialAddr(t, serverTr), nil); err != nil {
		t.Fatalf("StartAsSender: %v", err)
	}

	select {
	case <-pending:
	case <-time.After(2 * time.Second):
		t.Fatal("receiver never saw a pairing request")
	}

	// PendingApproval means onHello already ran once. Inject a second,
	// well-formed HELLO with a fresh keypair and a higher seq: it passes
	// the replay check but onHello's helloReceived guard must drop it,
	// leaving the receiver in PendingApproval rather than reverting to
	// Handshaking.
	impostor, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	msg := protocol.Hello(receiver.Id(), 99, config.Base64PublicKey(crypto.ToBase64(impostor.PublicKey[:])), "Impostor")
	data, err := protocol.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	if err := clientTr.Send(data); err != nil {
		t.Fatalf("Send: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if receiver.State() != session.StatePendingApproval {
		t.Errorf("receiver.State() = %v after second HELLO, want PendingApproval", receiver.State())
	}

	receiver.Close()
	sender.Close()
}

func TestApprovePairingOutsidePendingApprovalFails(t *testing.T) {
	serverTr, _ := newTransports(t)
	receiver := session.New(session.RoleReceiver, "RECVR5", session.Listeners{}, session.Config{})
	if err := receiver.StartAsReceiver(context.Background(), serverTr, 0); err != nil {
		t.Fatalf("StartAsReceiver: %v", err)
	}
	defer receiver.Close()

	if err := receiver.ApprovePairing(); err != session.ErrInvalidTransition {
		t.Errorf("got %v, want ErrInvalidTransition", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	receiver, sender := pairedSessions(t)

	if err := receiver.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := receiver.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	waitFor(t, func() bool { return receiver.State() == session.StateClosed }, "receiver never reached Closed")

	sender.Close()
}

func TestMultipleSendsEachAcked(t *testing.T) {
	receiver, sender := pairedSessions(t)
	defer receiver.Close()
	defer sender.Close()

	received := make(chan []byte, 3)
	acked := make(chan config.SequenceNumber, 3)
	receiver.AttachListeners(session.Listeners{OnDataReceived: func(data []byte) { received <- data }})
	sender.AttachListeners(session.Listeners{OnDataAcknowledged: func(seq config.SequenceNumber) { acked <- seq }})

	want := []string{"one", "two", "three"}
	for _, text := range want {
		if _, err := sender.SendData([]byte(text)); err != nil {
			t.Fatalf("SendData(%q): %v", text, err)
		}
	}

	for i := range want {
		select {
		case data := <-received:
			if string(data) != want[i] {
				t.Errorf("received[%d] = %q, want %q", i, data, want[i])
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
	for range want {
		select {
		case <-acked:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for ack")
		}
	}
}
