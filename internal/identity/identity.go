// Package identity resolves the user identifier the conversation store is
// keyed by.
package identity

import "strings"

// Guest is the identifier used when no authenticated identity is available.
// Guest sessions share one persisted collection across restarts.
const Guest = "guest"

// Resolve returns the trimmed identity, or Guest when none was supplied.
// The result is always non-empty; it is decided once at session start.
func Resolve(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return Guest
	}
	return id
}
