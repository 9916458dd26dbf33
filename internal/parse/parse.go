// Package parse turns raw log lines into model.LogEntry values. It accepts
// traditional syslog text, systemd-journal JSON records, and the two
// persisted-export forms written by the export package.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/jlogtools/jlog/internal/model"
)

// syslogLine matches "Mon D HH:MM:SS[.frac] host service[pid]?: message".
// The month is a case-sensitive three-letter English abbreviation and the
// format omits the year; see syslogTime for the current-year assumption.
var syslogLine = regexp.MustCompile(
	`^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) +(\d{1,2}) (\d{2}):(\d{2}):(\d{2})(?:\.\d+)? (\S+) ([^\s:\[\]]+)(?:\[(\d+)\])?: (.*)$`)

// exportLine matches the plaintext persisted-entry form
// "<timestamp> <service>[<priority>]: <message>".
var exportLine = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) (\S+)\[(\d)\]: (.*)$`)

var monthsByName = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

var jsonPool fastjson.ParserPool

// Line parses one raw line into a LogEntry, trying the syslog text form,
// the plaintext export form, and JSON (journal or export record) in that
// order. It returns nil when no accepted format matches; callers count
// failures and keep going, a bad line is never fatal to the stream.
func Line(raw string, lineNum int) *model.LogEntry {
	line := strings.TrimSpace(raw)
	if line == "" {
		return nil
	}

	if entry := parseSyslogText(line, lineNum); entry != nil {
		return entry
	}
	if entry := parseExportText(line, lineNum); entry != nil {
		return entry
	}
	if strings.HasPrefix(line, "{") {
		return parseJSON(line, lineNum)
	}
	return nil
}

func parseSyslogText(line string, lineNum int) *model.LogEntry {
	m := syslogLine.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	message := m[9]
	secs := syslogTime(m[1], m[2], m[3], m[4], m[5])

	return &model.LogEntry{
		LineNum:   lineNum,
		Timestamp: formatUnix(secs),
		Unix:      secs,
		Priority:  InferPriority(message),
		Service:   m[7],
		Message:   message,
	}
}

// syslogTime combines the parsed month/day/time with the current local
// year. Syslog text omits the year, so logs spanning a year boundary are a
// known approximation of this format, not of this parser.
func syslogTime(mon, day, hh, mm, ss string) int64 {
	month, ok := monthsByName[mon]
	if !ok {
		return 0
	}
	d, _ := strconv.Atoi(day)
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	s, _ := strconv.Atoi(ss)
	return time.Date(time.Now().Year(), month, d, h, m, s, 0, time.Local).Unix()
}

func parseExportText(line string, lineNum int) *model.LogEntry {
	m := exportLine.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	priority, err := strconv.Atoi(m[3])
	if err != nil || priority > 7 {
		priority = 6
	}

	return &model.LogEntry{
		LineNum:   lineNum,
		Timestamp: m[1],
		Unix:      parseTimestamp(m[1]),
		Priority:  priority,
		Service:   m[2],
		Message:   m[4],
	}
}

func parseJSON(line string, lineNum int) *model.LogEntry {
	p := jsonPool.Get()
	defer jsonPool.Put(p)

	v, err := p.Parse(line)
	if err != nil {
		return nil
	}

	if v.Exists("MESSAGE") || v.Exists("PRIORITY") || v.Exists("__REALTIME_TIMESTAMP") {
		return journalEntry(v, lineNum)
	}
	if v.Exists("message") || v.Exists("priority") {
		return exportEntry(v, lineNum)
	}
	return nil
}

// journalEntry maps a journalctl JSON record. Unrecognized fields are
// ignored; missing fields fall back to documented defaults.
func journalEntry(v *fastjson.Value, lineNum int) *model.LogEntry {
	service := string(v.GetStringBytes("SYSLOG_IDENTIFIER"))
	if service == "" {
		service = string(v.GetStringBytes("_SYSTEMD_UNIT"))
	}
	if service == "" {
		service = model.UnknownService
	}

	var secs int64
	if ts := string(v.GetStringBytes("__REALTIME_TIMESTAMP")); ts != "" {
		if micros, err := strconv.ParseInt(ts, 10, 64); err == nil {
			secs = micros / 1_000_000
		}
	}

	return &model.LogEntry{
		LineNum:   lineNum,
		Timestamp: formatUnix(secs),
		Unix:      secs,
		Priority:  journalPriority(v),
		Service:   service,
		Message:   string(v.GetStringBytes("MESSAGE")),
	}
}

// journalPriority reads PRIORITY as the string digit journalctl emits,
// tolerating a bare number. Unmapped values default to 6 (info).
func journalPriority(v *fastjson.Value) int {
	if b := v.GetStringBytes("PRIORITY"); len(b) > 0 {
		if n, err := strconv.Atoi(string(b)); err == nil && n >= 0 && n <= 7 {
			return n
		}
		return 6
	}
	if pv := v.Get("PRIORITY"); pv != nil && pv.Type() == fastjson.TypeNumber {
		if n := pv.GetInt(); n >= 0 && n <= 7 {
			return n
		}
	}
	return 6
}

// exportEntry maps the JSON-lines persisted-export record
// {"line":N,"timestamp":"...","priority":P,"service":"...","message":"..."}.
// The stored line number is ignored: replay position is positional.
func exportEntry(v *fastjson.Value, lineNum int) *model.LogEntry {
	priority := 6
	if pv := v.Get("priority"); pv != nil && pv.Type() == fastjson.TypeNumber {
		if n := pv.GetInt(); n >= 0 && n <= 7 {
			priority = n
		}
	}

	service := string(v.GetStringBytes("service"))
	if service == "" {
		service = model.UnknownService
	}

	ts := string(v.GetStringBytes("timestamp"))

	return &model.LogEntry{
		LineNum:   lineNum,
		Timestamp: ts,
		Unix:      parseTimestamp(ts),
		Priority:  priority,
		Service:   service,
		Message:   string(v.GetStringBytes("message")),
	}
}

func parseTimestamp(ts string) int64 {
	if ts == "" {
		return 0
	}
	t, err := time.ParseInLocation(model.TimestampLayout, ts, time.UTC)
	if err != nil {
		return 0
	}
	return t.Unix()
}

func formatUnix(secs int64) string {
	if secs == 0 {
		return ""
	}
	return time.Unix(secs, 0).UTC().Format(model.TimestampLayout)
}
