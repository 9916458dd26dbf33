package source

import (
	"io"
	"testing"
	"time"
)

// closeRecorder stands in for the SSH client: closing it aborts the read
// side of the stream, as closing a real connection does.
type closeRecorder struct {
	pr     *io.PipeReader
	closed chan struct{}
}

func (c *closeRecorder) Close() error {
	close(c.closed)
	return c.pr.Close()
}

func TestSSHStreamCancelUnblocksIdleRead(t *testing.T) {
	pr, pw := io.Pipe()
	conn := &closeRecorder{pr: pr, closed: make(chan struct{})}
	r := &SSHReader{
		ch:  make(chan Message, DefaultBuffer),
		cmd: make(chan Command, 2),
	}

	done := make(chan struct{})
	go func() {
		r.stream(pr, conn)
		close(r.ch)
		close(done)
	}()

	go pw.Write([]byte("Jan 15 10:30:05 host sshd[1]: Failed password for root\n"))

	// Wait for the entry; after it the scanner is parked on a stream that
	// will never deliver another byte.
	deadline := time.After(5 * time.Second)
	sawEntry := false
	for !sawEntry {
		select {
		case msg := <-r.ch:
			if _, ok := msg.(EntryMessage); ok {
				sawEntry = true
			}
		case <-deadline:
			t.Fatal("no entry before cancel")
		}
	}

	r.Cancel()

	select {
	case <-conn.closed:
	case <-deadline:
		t.Fatal("cancel did not close the connection")
	}
	select {
	case <-done:
	case <-deadline:
		t.Fatal("stream did not return after cancel")
	}

	completed := false
	for msg := range r.ch {
		switch m := msg.(type) {
		case CompletedMessage:
			completed = true
			if m.Entries != 1 {
				t.Errorf("Entries = %d, want 1", m.Entries)
			}
		case ErrorMessage:
			t.Fatalf("cancel surfaced as an error: %s", m.Err)
		}
	}
	if !completed {
		t.Error("no CompletedMessage after cancel")
	}
}
