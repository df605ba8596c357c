package session

import "github.com/sharego/core/pkg/config"

// PairingRequest is exposed to the receiver's UI once the sender's AUTH
// proof has been verified and the session reaches PendingApproval.
type PairingRequest struct {
	DeviceName string
	PeerPublicKey [32]byte
}

// Listeners is the typed callback table a Session's owner attaches to
// observe it. Each field is optional; a nil field is simply not called.
// This replaces a string-keyed event-name lookup with compile-time
// checked fields, one per Event.
type Listeners struct {
	OnStateChanged     func(State)
	OnPairingRequest   func(PairingRequest)
	OnDataReceived     func([]byte)
	OnDataAcknowledged func(config.SequenceNumber)
	OnError            func(error)
}

func (l Listeners) fireStateChanged(s State) {
	if l.OnStateChanged != nil {
		l.OnStateChanged(s)
	}
}

func (l Listeners) firePairingRequest(r PairingRequest) {
	if l.OnPairingRequest != nil {
		l.OnPairingRequest(r)
	}
}

func (l Listeners) fireDataReceived(data []byte) {
	if l.OnDataReceived != nil {
		l.OnDataReceived(data)
	}
}

func (l Listeners) fireDataAcknowledged(seq config.SequenceNumber) {
	if l.OnDataAcknowledged != nil {
		l.OnDataAcknowledged(seq)
	}
}

func (l Listeners) fireError(err error) {
	if l.OnError != nil {
		l.OnError(err)
	}
}
