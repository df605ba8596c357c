package discovery

import (
	"strconv"
	"strings"
)

// TXT record key constants for the "_sharego._tcp" service (spec.md §4.6).
const (
	txtKeySessionId = "sid"
	txtKeyPublicKey = "pk"
	txtKeyVersion   = "v"
)

// encodeTXT builds the "key=value" TXT record strings advertised
// alongside a receiver's mDNS service.
func encodeTXT(sid, pk string, version int) []string {
	return []string{
		txtKeySessionId + "=" + sid,
		txtKeyPublicKey + "=" + pk,
		txtKeyVersion + "=" + strconv.Itoa(version),
	}
}

// decodeTXT parses "key=value" TXT record strings into a plain map,
// ignoring malformed or unrecognized entries.
func decodeTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, r := range records {
		k, v, ok := strings.Cut(r, "=")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}
