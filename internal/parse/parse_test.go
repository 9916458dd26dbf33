package parse

import (
	"testing"
	"time"

	"github.com/jlogtools/jlog/internal/model"
)

func localUnix(month time.Month, day, h, m, s int) int64 {
	return time.Date(time.Now().Year(), month, day, h, m, s, 0, time.Local).Unix()
}

func TestLineSyslogText(t *testing.T) {
	raw := "Jan 15 10:30:05 myhost sshd[1234]: Failed password for root from 10.0.0.5 port 22"
	entry := Line(raw, 7)
	if entry == nil {
		t.Fatal("Line returned nil for valid syslog text")
	}

	if entry.LineNum != 7 {
		t.Errorf("LineNum = %d, want 7", entry.LineNum)
	}
	if entry.Service != "sshd" {
		t.Errorf("Service = %q, want sshd", entry.Service)
	}
	if entry.Priority != 3 {
		t.Errorf("Priority = %d, want 3 (message contains 'failed')", entry.Priority)
	}
	if entry.Message != "Failed password for root from 10.0.0.5 port 22" {
		t.Errorf("Message = %q", entry.Message)
	}

	want := localUnix(time.January, 15, 10, 30, 5)
	if entry.Unix != want {
		t.Errorf("Unix = %d, want %d", entry.Unix, want)
	}
	if entry.Timestamp != time.Unix(want, 0).UTC().Format(model.TimestampLayout) {
		t.Errorf("Timestamp = %q does not render Unix %d", entry.Timestamp, want)
	}
}

func TestLineSyslogVariants(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		service  string
		priority int
		message  string
	}{
		{
			name:     "no pid",
			raw:      "Feb  3 04:05:06 host kernel: usb 1-1: device descriptor read, error -71",
			service:  "kernel",
			priority: 3,
			message:  "usb 1-1: device descriptor read, error -71",
		},
		{
			name:     "fractional seconds",
			raw:      "Mar 12 23:59:59.123 node01 systemd[1]: Started Daily apt upgrade timer.",
			service:  "systemd",
			priority: 5,
			message:  "Started Daily apt upgrade timer.",
		},
		{
			name:     "plain info",
			raw:      "Dec  1 00:00:01 host cron[991]: (root) CMD (run-parts /etc/cron.hourly)",
			service:  "cron",
			priority: 6,
			message:  "(root) CMD (run-parts /etc/cron.hourly)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Line(tt.raw, 1)
			if entry == nil {
				t.Fatalf("Line(%q) = nil", tt.raw)
			}
			if entry.Service != tt.service {
				t.Errorf("Service = %q, want %q", entry.Service, tt.service)
			}
			if entry.Priority != tt.priority {
				t.Errorf("Priority = %d, want %d", entry.Priority, tt.priority)
			}
			if entry.Message != tt.message {
				t.Errorf("Message = %q, want %q", entry.Message, tt.message)
			}
			if entry.Unix == 0 {
				t.Error("Unix = 0, want a parsed timestamp")
			}
		})
	}
}

func TestLineJournalJSON(t *testing.T) {
	// 1705314605 is 2024-01-15 10:30:05 UTC.
	raw := `{"__REALTIME_TIMESTAMP":"1705314605000000","PRIORITY":"4","SYSLOG_IDENTIFIER":"nginx","MESSAGE":"upstream timed out while reading response"}`
	entry := Line(raw, 3)
	if entry == nil {
		t.Fatal("Line returned nil for valid journal JSON")
	}

	if entry.Unix != 1705314605 {
		t.Errorf("Unix = %d, want 1705314605", entry.Unix)
	}
	if entry.Timestamp != "2024-01-15 10:30:05" {
		t.Errorf("Timestamp = %q, want 2024-01-15 10:30:05", entry.Timestamp)
	}
	if entry.Priority != 4 {
		t.Errorf("Priority = %d, want 4", entry.Priority)
	}
	if entry.Service != "nginx" {
		t.Errorf("Service = %q, want nginx", entry.Service)
	}
}

func TestLineJournalJSONDefaults(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		service  string
		priority int
		unix     int64
	}{
		{
			name:     "unit fallback",
			raw:      `{"_SYSTEMD_UNIT":"docker.service","PRIORITY":"6","MESSAGE":"hello"}`,
			service:  "docker.service",
			priority: 6,
		},
		{
			name:     "missing identity and priority",
			raw:      `{"MESSAGE":"orphan record"}`,
			service:  model.UnknownService,
			priority: 6,
		},
		{
			name:     "numeric priority",
			raw:      `{"PRIORITY":3,"SYSLOG_IDENTIFIER":"app","MESSAGE":"broke"}`,
			service:  "app",
			priority: 3,
		},
		{
			name:     "out of range priority",
			raw:      `{"PRIORITY":"99","SYSLOG_IDENTIFIER":"app","MESSAGE":"odd"}`,
			service:  "app",
			priority: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Line(tt.raw, 1)
			if entry == nil {
				t.Fatalf("Line(%q) = nil", tt.raw)
			}
			if entry.Service != tt.service {
				t.Errorf("Service = %q, want %q", entry.Service, tt.service)
			}
			if entry.Priority != tt.priority {
				t.Errorf("Priority = %d, want %d", entry.Priority, tt.priority)
			}
			if entry.Unix != tt.unix {
				t.Errorf("Unix = %d, want %d", entry.Unix, tt.unix)
			}
			if entry.Timestamp != "" && tt.unix == 0 {
				t.Errorf("Timestamp = %q, want empty without a source timestamp", entry.Timestamp)
			}
		})
	}
}

func TestLineExportText(t *testing.T) {
	entry := Line("2024-01-15 10:30:05 sshd[3]: Failed password for admin", 12)
	if entry == nil {
		t.Fatal("Line returned nil for export text")
	}
	if entry.Unix != 1705314605 {
		t.Errorf("Unix = %d, want 1705314605", entry.Unix)
	}
	if entry.Service != "sshd" {
		t.Errorf("Service = %q, want sshd", entry.Service)
	}
	if entry.Priority != 3 {
		t.Errorf("Priority = %d, want 3", entry.Priority)
	}
	if entry.Message != "Failed password for admin" {
		t.Errorf("Message = %q", entry.Message)
	}
}

func TestLineExportJSON(t *testing.T) {
	raw := `{"line":99,"timestamp":"2024-01-15 10:30:05","priority":4,"service":"app","message":"disk space warning"}`
	entry := Line(raw, 5)
	if entry == nil {
		t.Fatal("Line returned nil for export JSON")
	}
	if entry.LineNum != 5 {
		t.Errorf("LineNum = %d, want positional 5 (stored line ignored)", entry.LineNum)
	}
	if entry.Unix != 1705314605 {
		t.Errorf("Unix = %d, want 1705314605", entry.Unix)
	}
	if entry.Priority != 4 {
		t.Errorf("Priority = %d, want 4", entry.Priority)
	}
	if entry.Service != "app" {
		t.Errorf("Service = %q, want app", entry.Service)
	}
}

func TestLineRejects(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"not a log line at all",
		"{not json",
		`{"unrelated":"record"}`,
		"Jxn 15 10:30:05 host svc: bad month",
	}
	for _, raw := range tests {
		if entry := Line(raw, 1); entry != nil {
			t.Errorf("Line(%q) = %+v, want nil", raw, entry)
		}
	}
}
