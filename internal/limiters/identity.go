package limiters

import "strings"

// NormalizeIdentity canonicalizes an identity before key building: trimmed
// and lower-cased, so "User@Example.com " and "user@example.com" share one
// counter.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
