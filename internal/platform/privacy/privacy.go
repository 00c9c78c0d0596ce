// Package privacy masks cardholder data and client addresses before they
// are stored, echoed, or logged.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

// MaskPAN keeps the first six and last four digits of a card number and
// replaces the rest with '*'. Numbers too short to mask are fully hidden.
func MaskPAN(number string) string {
	if len(number) < 10 {
		return strings.Repeat("*", len(number))
	}
	return number[:6] + strings.Repeat("*", len(number)-10) + number[len(number)-4:]
}

// BIN returns the issuer prefix of a card number, or "" when it is too short.
func BIN(number string) string {
	if len(number) < 10 {
		return ""
	}
	return number[:6]
}

// Last4 returns the last four digits of a card number, or "" when it is too short.
func Last4(number string) string {
	if len(number) < 10 {
		return ""
	}
	return number[len(number)-4:]
}

// AnonymizeIP truncates a client address to its network: IPv4 to /24 and
// IPv6 to /48. A trailing port is dropped. Returns "unknown" for an empty
// address and "invalid" for one that does not parse.
func AnonymizeIP(addr string) string {
	if addr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	parsed := net.ParseIP(addr)
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
