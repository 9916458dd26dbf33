// Package normalize collapses variable substrings in log messages so that
// structurally identical messages group under one key. The result is a
// grouping key, not a rendering string.
package normalize

import (
	"regexp"
	"strings"
)

// substitution is one step of the cascade. Order matters: later patterns
// assume earlier ones already collapsed higher-precedence forms, and every
// pattern requires digits or lowercase hex so placeholders survive repeated
// passes unchanged (normalization is idempotent).
type substitution struct {
	re   *regexp.Regexp
	repl string
}

var cascade = []substitution{
	// Identifiers with fixed shapes first.
	{regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`), "<UUID>"},
	{regexp.MustCompile(`\b(?:[0-9a-fA-F]{2}:){5}[0-9a-fA-F]{2}\b`), "<MAC>"},
	// IPv6 needs either all eight groups or a "::" so HH:MM:SS times survive.
	{regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`), "<IPV6>"},
	{regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:)+:(?:[0-9a-fA-F]{1,4}:)*[0-9a-fA-F]{0,4}\b`), "<IPV6>"},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "<IP>"},

	// Timestamps and dates before generic numbers.
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?\b`), "<TIMESTAMP>"},
	{regexp.MustCompile(`\b\d{1,2}:\d{2}:\d{2}(?:\.\d+)?\b`), "<TIME>"},
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), "<DATE>"},
	{regexp.MustCompile(`\b\d{1,4}/\d{1,2}/\d{1,4}\b`), "<DATE>"},

	// Hex runs: container IDs, then prefixed and bare hex.
	{regexp.MustCompile(`\b[a-f0-9]{12,64}\b`), "<ID>"},
	{regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`), "<HEX>"},
	{regexp.MustCompile(`\b[a-f0-9]{8,}\b`), "<HEX>"},

	// Structured text tokens. The path pattern anchors on the preceding
	// character so it cannot fire inside a URL or other token.
	{regexp.MustCompile(`(^|[^:/\w])((?:/[\w<>.\-]+){2,}/?)`), "${1}<PATH>"},
	{regexp.MustCompile(`\bhttps?://\S+`), "<URL>"},
	{regexp.MustCompile(`\b[\w.+\-]+@[\w.\-]+\.[A-Za-z]{2,}\b`), "<EMAIL>"},

	// Quantities.
	{regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:B|KB|MB|GB|TB|KiB|MiB|GiB|TiB|bytes?)\b`), "<SIZE>"},
	{regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:ns|us|µs|ms|s|sec|secs|seconds?|min|mins|minutes?|h|hrs?|hours?)\b`), "<DURATION>"},

	// Network and process references.
	{regexp.MustCompile(`\bport \d+\b`), "port <PORT>"},
	{regexp.MustCompile(`:\d{2,5}\b`), ":<PORT>"},
	{regexp.MustCompile(`\[\d+\]`), "[<PID>]"},
	{regexp.MustCompile(`(?i)\b(pid[ =:]+)\d+\b`), "${1}<PID>"},
	{regexp.MustCompile(`(?i)\b((?:session|request|transaction)(?:[-_ ]?id)?[=: ]+)[\w\-]{4,}`), "${1}<ID>"},

	// Counters, percentages, long numbers, versions.
	{regexp.MustCompile(`\(\d+/\d+\)`), "(<N>/<M>)"},
	{regexp.MustCompile(`\b\d+/\d+\b`), "<N>/<M>"},
	{regexp.MustCompile(`\b\d+(?:\.\d+)?%`), "<PCT>"},
	{regexp.MustCompile(`\b\d{5,}\b`), "<NUM>"},
	{regexp.MustCompile(`\bv?\d+(?:\.\d+){1,3}\b`), "<VERSION>"},
}

var whitespace = regexp.MustCompile(`\s+`)

// Message applies the substitution cascade and collapses whitespace.
// Two messages differing only in substituted substrings normalize to the
// identical key, and Message(Message(x)) == Message(x) for all inputs.
func Message(msg string) string {
	for _, sub := range cascade {
		msg = sub.re.ReplaceAllString(msg, sub.repl)
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(msg, " "))
}
