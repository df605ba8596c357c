package protocol

import (
	"encoding/json"

	"github.com/sharego/core/pkg/config"
)

// QrPayload is the JSON object encoded into the bootstrap QR code (and
// usable as-is for out-of-band transfer of the same information).
type QrPayload struct {
	V    int                    `json:"v"`
	Sid  config.SessionId       `json:"sid"`
	Addr config.NetworkAddress  `json:"addr"`
	PK   config.Base64PublicKey `json:"pk"`
	Exp  int                    `json:"exp"`
}

// EncodeQrPayload serializes p to JSON.
func EncodeQrPayload(p *QrPayload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodeQrPayload parses and validates a QR payload: v must equal
// ProtocolVersion, sid and addr must be present and well-formed, pk must
// be non-empty (its base64 content and length are not checked here), and
// exp must be strictly positive.
func DecodeQrPayload(data []byte) (*QrPayload, error) {
	var p QrPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, ErrMalformedMessage
	}
	if p.V != config.ProtocolVersion {
		return nil, ErrUnsupportedProtocolVersion
	}
	if !p.Sid.IsValid() {
		return nil, ErrMissingField
	}
	if p.Addr == "" {
		return nil, ErrMissingField
	}
	if _, err := config.ParseNetworkAddress(string(p.Addr)); err != nil {
		return nil, ErrMissingField
	}
	if p.PK == "" {
		return nil, ErrMissingField
	}
	if p.Exp <= 0 {
		return nil, ErrMissingField
	}
	return &p, nil
}
