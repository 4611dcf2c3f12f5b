package envelope

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultLoopbackTestIP is substituted for loopback origins so local runs
// resolve to the localized amount table.
const DefaultLoopbackTestIP = "1.55.0.1"

// ClientIP picks the origin address: the first forwarded-for entry when the
// header is present, the transport peer address otherwise.
func ClientIP(forwardedFor, peer string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}

	return peer
}

// NormalizeIP remaps loopback addresses to the configured test address. The
// remap happens before hashing and before geo lookup.
func NormalizeIP(ip, testIP string) string {
	if ip == "127.0.0.1" || ip == "::1" {
		return testIP
	}

	return ip
}

// DeriveKey computes the stable session key for an (ip, user agent) pair.
// Empty inputs are valid and hash to a well-defined constant.
func DeriveKey(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}
