package ratelimit

import "strings"

// UnknownIdentifier is the shared bucket for callers with no usable identity.
const UnknownIdentifier = "unknown"

// ResolveIdentifier picks the key a request is counted under. The order is:
// an explicit caller-supplied id, then the authenticated user id, then the
// network address, then the shared "unknown" bucket. User and address keys
// are prefixed so the two namespaces cannot collide.
func ResolveIdentifier(explicit, userID, remoteAddr string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	if s := strings.TrimSpace(userID); s != "" {
		return "user:" + s
	}
	if s := strings.TrimSpace(remoteAddr); s != "" {
		return "ip:" + s
	}
	return UnknownIdentifier
}
