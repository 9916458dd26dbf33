package model

import "time"

// TimestampLayout is the canonical wall-clock format carried by LogEntry
// and written by the entry exporter. Timestamps are rendered in UTC.
const TimestampLayout = "2006-01-02 15:04:05"

// LogEntry represents a single parsed log line. It is the canonical type for
// transport (channel protocol), aggregation, and display. Ownership passes
// from producer to consumer; entries are never mutated after parsing.
type LogEntry struct {
	LineNum   int    // 1-based position within the source
	Timestamp string // "2006-01-02 15:04:05" in UTC, "" when unknown
	Unix      int64  // unix seconds, 0 when no timestamp could be derived
	Priority  int    // syslog priority 0 (emerg) .. 7 (debug)
	Service   string // syslog identifier or systemd unit, "unknown" if absent
	Message   string
}

// TimestampSecs returns the entry timestamp as unix seconds.
// The second return is false when no timestamp could be derived.
func (e *LogEntry) TimestampSecs() (int64, bool) {
	if e.Unix == 0 {
		return 0, false
	}
	return e.Unix, true
}

// MinuteBucket returns the minute-granularity time bucket key
// ("2006-01-02 15:04"), or "" when the entry has no timestamp.
func (e *LogEntry) MinuteBucket() string {
	secs, ok := e.TimestampSecs()
	if !ok {
		return ""
	}
	return time.Unix(secs-secs%60, 0).UTC().Format("2006-01-02 15:04")
}

// HourBucket returns the hour-granularity time bucket key
// ("2006-01-02 15:00"), or "" when the entry has no timestamp.
func (e *LogEntry) HourBucket() string {
	secs, ok := e.TimestampSecs()
	if !ok {
		return ""
	}
	return time.Unix(secs-secs%3600, 0).UTC().Format("2006-01-02 15:00")
}

// TimeBucket aggregates entries whose timestamps fall in one interval.
type TimeBucket struct {
	Total    int
	Errors   int // priority <= 3
	Warnings int // priority == 4
}

// Severity classifies a detected pattern signal.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// SignalKind names the temporal shape a pattern signal describes.
type SignalKind int

const (
	SignalSpike SignalKind = iota
	SignalBurst
	SignalRecurring
	SignalIncreasing
	SignalHighVolume
)

// Label returns the short display label for the signal kind.
func (k SignalKind) Label() string {
	switch k {
	case SignalSpike:
		return "SPIKE"
	case SignalBurst:
		return "BURST"
	case SignalRecurring:
		return "RECURRING"
	case SignalIncreasing:
		return "INCREASING"
	case SignalHighVolume:
		return "HIGH VOLUME"
	default:
		return "UNKNOWN"
	}
}

// PatternSignal is one detector finding. Signals are recomputed fresh on
// every detection pass and never mutated in place.
type PatternSignal struct {
	Kind        SignalKind
	Message     string // normalized message, truncated for display
	Description string
	Severity    Severity
	Count       int
	Detail      string
}

// PriorityNames maps syslog priority 0-7 to its display name.
var PriorityNames = [8]string{
	"EMERG", "ALERT", "CRIT", "ERR", "WARNING", "NOTICE", "INFO", "DEBUG",
}

// PriorityName returns the display name for a priority, or "?" when the
// value is outside 0-7.
func PriorityName(p int) string {
	if p < 0 || p > 7 {
		return "?"
	}
	return PriorityNames[p]
}
