package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

// collect drains the producer until its channel closes or the deadline hits.
func collect(t *testing.T, r *FileReader, deadline time.Duration) []Message {
	t.Helper()
	var out []Message
	timer := time.After(deadline)
	for {
		select {
		case msg, ok := <-r.Messages():
			if !ok {
				return out
			}
			out = append(out, msg)
		case <-timer:
			t.Fatalf("producer did not finish within %v (%d messages so far)", deadline, len(out))
		}
	}
}

func TestFileReaderOneShot(t *testing.T) {
	content := "Jan 15 10:30:05 host sshd[1234]: Failed password for root\n" +
		"this line is unparseable\n" +
		`{"PRIORITY":"4","SYSLOG_IDENTIFIER":"nginx","MESSAGE":"upstream timed out"}` + "\n" +
		"\n" +
		"Jan 15 10:31:00 host cron[99]: session opened\n"
	r := NewFileReader(writeTemp(t, content), ModeOneShot)

	msgs := collect(t, r, 5*time.Second)
	if len(msgs) == 0 {
		t.Fatal("no messages received")
	}

	var entries int
	var completed *CompletedMessage
	for _, msg := range msgs {
		switch m := msg.(type) {
		case EntryMessage:
			entries++
			if m.Entry == nil {
				t.Error("EntryMessage with nil entry")
			}
		case CompletedMessage:
			completed = &m
		case ErrorMessage:
			t.Fatalf("unexpected error: %s", m.Err)
		}
	}

	if entries != 3 {
		t.Errorf("entries = %d, want 3", entries)
	}
	if completed == nil {
		t.Fatal("no CompletedMessage")
	}
	if completed.TotalLines != 5 {
		t.Errorf("TotalLines = %d, want 5", completed.TotalLines)
	}
	if completed.Entries != 3 {
		t.Errorf("Entries = %d, want 3", completed.Entries)
	}
	// The blank line does not count as a parse error.
	if completed.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", completed.ParseErrors)
	}
}

func TestFileReaderOneShotNoTrailingNewline(t *testing.T) {
	content := "Jan 15 10:30:05 host sshd[1]: connection refused\n" +
		"Jan 15 10:30:06 host sshd[1]: connection refused"
	r := NewFileReader(writeTemp(t, content), ModeOneShot)

	msgs := collect(t, r, 5*time.Second)
	var entries int
	for _, msg := range msgs {
		if _, ok := msg.(EntryMessage); ok {
			entries++
		}
	}
	if entries != 2 {
		t.Errorf("entries = %d, want 2 (final unterminated line must not be lost)", entries)
	}
}

func TestFileReaderMissingFile(t *testing.T) {
	r := NewFileReader(filepath.Join(t.TempDir(), "absent.log"), ModeOneShot)

	msgs := collect(t, r, 5*time.Second)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 error", len(msgs))
	}
	if _, ok := msgs[0].(ErrorMessage); !ok {
		t.Errorf("got %T, want ErrorMessage", msgs[0])
	}
}

func TestFileReaderTail(t *testing.T) {
	path := writeTemp(t, "Jan 15 10:30:05 host app[1]: preexisting line\n")
	r := NewFileReader(path, ModeTail)

	// Give the producer time to seek past existing content.
	time.Sleep(300 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("opening for append: %v", err)
	}
	if _, err := f.WriteString("Jan 15 10:30:06 host app[1]: appended error line\n"); err != nil {
		t.Fatalf("appending: %v", err)
	}
	f.Close()

	var entry *EntryMessage
	deadline := time.After(5 * time.Second)
wait:
	for {
		select {
		case msg, ok := <-r.Messages():
			if !ok {
				t.Fatal("channel closed before appended entry arrived")
			}
			if m, isEntry := msg.(EntryMessage); isEntry {
				entry = &m
				break wait
			}
		case <-deadline:
			t.Fatal("appended line never arrived")
		}
	}

	if entry.Entry.Message != "appended error line" {
		t.Errorf("Message = %q, want the appended line only", entry.Entry.Message)
	}

	r.Cancel()
	for {
		select {
		case _, ok := <-r.Messages():
			if !ok {
				return
			}
		case <-time.After(5 * time.Second):
			t.Fatal("producer did not stop after Cancel")
		}
	}
}
