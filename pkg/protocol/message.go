package protocol

import "github.com/sharego/core/pkg/config"

// Message is the JSON control frame envelope. Every control message
// carries the first four fields; the rest are populated or left zero
// depending on Type (see the table in codec.go's validateFields).
type Message struct {
	V    int                   `json:"v"`
	Type MessageType           `json:"type"`
	Sid  config.SessionId      `json:"sid"`
	Seq  config.SequenceNumber `json:"seq"`

	// HELLO
	PK         config.Base64PublicKey `json:"pk,omitempty"`
	DeviceName string                 `json:"deviceName,omitempty"`

	// CHALLENGE
	Nonce config.Base64Nonce `json:"nonce,omitempty"`

	// AUTH
	Proof config.Base64Proof `json:"proof,omitempty"`

	// REJECT
	Reason string `json:"reason,omitempty"`

	// ACK
	AckSeq config.SequenceNumber `json:"ackSeq,omitempty"`
}

// Hello builds a HELLO message.
func Hello(sid config.SessionId, seq config.SequenceNumber, pk config.Base64PublicKey, deviceName string) *Message {
	return &Message{V: config.ProtocolVersion, Type: MessageHello, Sid: sid, Seq: seq, PK: pk, DeviceName: deviceName}
}

// Challenge builds a CHALLENGE message.
func Challenge(sid config.SessionId, seq config.SequenceNumber, nonce config.Base64Nonce, pk config.Base64PublicKey) *Message {
	return &Message{V: config.ProtocolVersion, Type: MessageChallenge, Sid: sid, Seq: seq, Nonce: nonce, PK: pk}
}

// Auth builds an AUTH message.
func Auth(sid config.SessionId, seq config.SequenceNumber, proof config.Base64Proof) *Message {
	return &Message{V: config.ProtocolVersion, Type: MessageAuth, Sid: sid, Seq: seq, Proof: proof}
}

// Accept builds an ACCEPT message.
func Accept(sid config.SessionId, seq config.SequenceNumber) *Message {
	return &Message{V: config.ProtocolVersion, Type: MessageAccept, Sid: sid, Seq: seq}
}

// Reject builds a REJECT message with an optional reason.
func Reject(sid config.SessionId, seq config.SequenceNumber, reason string) *Message {
	return &Message{V: config.ProtocolVersion, Type: MessageReject, Sid: sid, Seq: seq, Reason: reason}
}

// Ack builds an ACK message acknowledging ackSeq.
func Ack(sid config.SessionId, seq, ackSeq config.SequenceNumber) *Message {
	return &Message{V: config.ProtocolVersion, Type: MessageAck, Sid: sid, Seq: seq, AckSeq: ackSeq}
}

// Close builds a CLOSE message.
func Close(sid config.SessionId, seq config.SequenceNumber) *Message {
	return &Message{V: config.ProtocolVersion, Type: MessageClose, Sid: sid, Seq: seq}
}
