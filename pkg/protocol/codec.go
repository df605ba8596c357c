package protocol

import (
	"encoding/json"

	"github.com/sharego/core/pkg/config"
)

// EncodeMessage serializes m as a compact JSON control frame.
func EncodeMessage(m *Message) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage parses and validates a JSON control frame. It rejects a
// version mismatch, an unknown type, and any type-specific field that is
// missing or the wrong shape, all with ErrMalformedMessage family errors.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, ErrMalformedMessage
	}
	if m.V != config.ProtocolVersion {
		return nil, ErrUnsupportedProtocolVersion
	}
	if !m.Type.IsValid() {
		return nil, ErrUnknownMessageType
	}
	if !m.Sid.IsValid() {
		return nil, ErrMissingField
	}
	if err := validateFields(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// validateFields enforces the presence of type-specific fields per the
// table in §4.2: HELLO needs pk+deviceName, CHALLENGE needs nonce+pk,
// AUTH needs proof, ACK needs a non-zero ackSeq. ACCEPT/CLOSE carry no
// extra fields; REJECT's optional reason is checked only structurally by
// the JSON decode itself.
func validateFields(m *Message) error {
	switch m.Type {
	case MessageHello:
		if m.PK == "" || m.DeviceName == "" {
			return ErrMissingField
		}
	case MessageChallenge:
		if m.Nonce == "" || m.PK == "" {
			return ErrMissingField
		}
	case MessageAuth:
		if m.Proof == "" {
			return ErrMissingField
		}
	case MessageAck:
		if m.AckSeq == 0 {
			return ErrMissingField
		}
	}
	return nil
}

// FrameKind identifies how an inbound byte slice should be interpreted,
// per the first-byte discrimination rule in §4.2.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameData
	FrameControl
)

// ClassifyFrame inspects the first byte of data to pick a decode path.
// An empty slice, or a first byte that is neither 0x01 nor '{', yields
// FrameUnknown so the caller can drop it.
func ClassifyFrame(data []byte) FrameKind {
	if len(data) == 0 {
		return FrameUnknown
	}
	switch data[0] {
	case DataFrameTag:
		return FrameData
	case jsonFrameTag:
		return FrameControl
	default:
		return FrameUnknown
	}
}
