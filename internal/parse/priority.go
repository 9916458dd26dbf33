package parse

import "strings"

// priorityLadder maps message keywords to inferred syslog priorities for
// formats that carry no explicit severity. Tier order is significant: the
// first tier containing a matching keyword wins, so a message with both
// "error" and "warning" classifies as priority 3.
var priorityLadder = []struct {
	priority int
	keywords []string
}{
	{2, []string{"panic", "fatal", "critical"}},
	{3, []string{"error", "failed", "failure", "cannot", "unable to", "segfault", "exception"}},
	{4, []string{"warning", "warn", "timeout", "timed out", "retrying", "deprecated", "denied", "refused"}},
	{5, []string{"started", "stopped", "connected", "disconnected", "loaded", "finished"}},
}

// InferPriority derives a syslog priority from message content.
// Matching is case-insensitive substring; unknown content maps to 6 (info).
func InferPriority(message string) int {
	lower := strings.ToLower(message)
	for _, tier := range priorityLadder {
		for _, kw := range tier.keywords {
			if strings.Contains(lower, kw) {
				return tier.priority
			}
		}
	}
	return 6
}
