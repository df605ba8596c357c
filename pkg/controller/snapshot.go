package controller

import (
	"time"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/protocol"
	"github.com/sharego/core/pkg/session"
)

// Item is a UI-held bookkeeping record for one piece of data sent or
// received over an active session: purely in-memory, discarded on
// EndSession. ID is a UI-local correlation id (distinct from the wire
// sequence number), stable before a Seq is known to have been ACKed —
// see SPEC_FULL.md §C.
type Item struct {
	ID        string
	Seq       config.SequenceNumber
	Text      string
	Timestamp time.Time
	Acked     bool
}

// Snapshot is the immutable value describing a session's full
// observable state at one point in time. Listeners receive cloned
// copies; they never mutate a delivered Snapshot.
type Snapshot struct {
	State          session.State
	SessionId      config.SessionId
	QrPayload      string
	LocalAddress   string
	PairingRequest *session.PairingRequest
	ReceivedItems  []Item
	SentItems      []Item
	Error          error
}

// clone returns a deep-enough copy: slices are copied so appends by the
// controller never race a reader iterating a previously published
// Snapshot.
func (s Snapshot) clone() Snapshot {
	out := s
	out.ReceivedItems = append([]Item(nil), s.ReceivedItems...)
	out.SentItems = append([]Item(nil), s.SentItems...)
	return out
}

// encodeQrPayload renders p as the string published in Snapshot.QrPayload.
func encodeQrPayload(p *protocol.QrPayload) (string, error) {
	data, err := protocol.EncodeQrPayload(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
