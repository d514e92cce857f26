package engine

import "strings"

// translation maps a case-insensitive substring of raw engine error text to
// a short user-facing message. The table is advisory only: it changes the
// string surfaced to the user, never control flow.
type translation struct {
	substr  string
	message string
}

var translations = []translation{
	{"wrong password", "Wrong password for this repository."},
	{"no such file", "Repository not initialized. Run init first."},
	{"repository does not exist", "Repository not initialized. Run init first."},
	{"connection refused", "Network error. Is the server reachable?"},
	{"network", "Network error. Is the server reachable?"},
	{"dial", "Network error. Is the server reachable?"},
	{"permission denied", "Access denied. Please check permissions."},
	{"already initialized", "Repository already exists."},
	{"is already locked", "Repository is locked. Please wait or unlock it manually."},
}

// Translate maps raw engine error text to a user-facing message. Unmatched
// text passes through verbatim; empty text becomes a generic message.
func Translate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "Unknown error"
	}

	lower := strings.ToLower(trimmed)
	for _, t := range translations {
		if strings.Contains(lower, t.substr) {
			return t.message
		}
	}
	return trimmed
}
