package protocol

import "testing"

func TestQrPayloadRoundTrip(t *testing.T) {
	p := &QrPayload{V: 1, Sid: testSid, Addr: "192.168.1.10:4040", PK: "cGsxMjM", Exp: 10}
	data, err := EncodeQrPayload(p)
	if err != nil {
		t.Fatalf("EncodeQrPayload: %v", err)
	}

	want := `{"v":1,"sid":"ABCDEF","addr":"192.168.1.10:4040","pk":"cGsxMjM","exp":10}`
	if string(data) != want {
		t.Errorf("encoded = %s, want %s", data, want)
	}

	got, err := DecodeQrPayload(data)
	if err != nil {
		t.Fatalf("DecodeQrPayload: %v", err)
	}
	if *got != *p {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestDecodeQrPayloadRejectsMissingFields(t *testing.T) {
	cases := []string{
		`{"v":2,"sid":"ABCDEF","addr":"1.2.3.4:80","pk":"x","exp":10}`,
		`{"v":1,"sid":"bad","addr":"1.2.3.4:80","pk":"x","exp":10}`,
		`{"v":1,"sid":"ABCDEF","addr":"not-an-address","pk":"x","exp":10}`,
		`{"v":1,"sid":"ABCDEF","addr":"1.2.3.4:80","pk":"","exp":10}`,
		`{"v":1,"sid":"ABCDEF","addr":"1.2.3.4:80","pk":"x","exp":0}`,
		`{"v":1,"sid":"ABCDEF","addr":"1.2.3.4:80","pk":"x","exp":-5}`,
	}
	for _, raw := range cases {
		if _, err := DecodeQrPayload([]byte(raw)); err == nil {
			t.Errorf("%s: expected error, got none", raw)
		}
	}
}

func TestDecodeQrPayloadRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeQrPayload([]byte(`{`)); err != ErrMalformedMessage {
		t.Errorf("got %v, want ErrMalformedMessage", err)
	}
}
