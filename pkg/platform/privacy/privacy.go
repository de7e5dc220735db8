// Package privacy provides helpers for handling personally identifiable
// information before it reaches logs, traces or audit streams.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
)

// hashPrefixLen is the number of hex characters kept from the digest.
const hashPrefixLen = 16

// HashIDNumber returns a stable, non-reversible reference to an identity
// number: the first 16 hex characters of its SHA-256 digest.
func HashIDNumber(idNumber string) string {
	if idNumber == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(idNumber))
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}

// AnonymizeIP zeroes the host portion of an address: the last octet for IPv4,
// everything after the /48 prefix for IPv6. Returns "unknown" for empty input
// and "invalid" for unparseable addresses.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}
