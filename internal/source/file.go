package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jlogtools/jlog/internal/parse"
)

const (
	fileReadBuffer   = 128 * 1024
	progressInterval = 50_000
	tailPollDelay    = 100 * time.Millisecond
)

// FileMode selects between reading a file once and tailing it live.
type FileMode int

const (
	ModeOneShot FileMode = iota
	ModeTail
)

// FileReader reads log lines from a local file in a background goroutine
// and emits protocol messages. In tail mode it seeks to the end first and
// treats EOF as a transient, retried condition.
type FileReader struct {
	path string
	mode FileMode
	ch   chan Message
	cmd  chan Command
}

// NewFileReader starts reading path immediately.
func NewFileReader(path string, mode FileMode) *FileReader {
	r := &FileReader{
		path: path,
		mode: mode,
		ch:   make(chan Message, DefaultBuffer),
		cmd:  make(chan Command, 2),
	}
	go r.run()
	return r
}

// Messages returns the read side of the producer channel. The channel is
// closed when the producer terminates.
func (r *FileReader) Messages() <-chan Message { return r.ch }

// Cancel asks the producer to stop at the next line boundary.
func (r *FileReader) Cancel() {
	select {
	case r.cmd <- CommandCancel:
	default:
	}
}

func (r *FileReader) run() {
	defer close(r.ch)

	f, err := os.Open(r.path)
	if err != nil {
		r.ch <- ErrorMessage{Err: fmt.Sprintf("open %s: %v", r.path, err)}
		return
	}
	defer f.Close()

	var fileSize int64
	if info, err := f.Stat(); err == nil {
		fileSize = info.Size()
	}

	if r.mode == ModeTail {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			r.ch <- ErrorMessage{Err: fmt.Sprintf("seek %s: %v", r.path, err)}
			return
		}
	}

	reader := bufio.NewReaderSize(f, fileReadBuffer)
	var linesRead, entriesSent, parseErrors int
	var bytesProcessed int64
	var partial strings.Builder // carries an incomplete line across EOF retries in tail mode

	processLine := func(line string) {
		linesRead++
		if entry := parse.Line(line, linesRead); entry != nil {
			r.ch <- EntryMessage{Entry: entry}
			entriesSent++
		} else if strings.TrimSpace(line) != "" {
			parseErrors++
		}
		if linesRead%progressInterval == 0 {
			r.ch <- ProgressMessage{Lines: linesRead, Percent: percentOf(bytesProcessed, fileSize)}
		}
	}

	for {
		if r.canceled() {
			r.ch <- CompletedMessage{TotalLines: linesRead, Entries: entriesSent, ParseErrors: parseErrors}
			return
		}

		chunk, err := reader.ReadString('\n')
		if chunk != "" {
			bytesProcessed += int64(len(chunk))
			partial.WriteString(chunk)
			if strings.HasSuffix(chunk, "\n") {
				line := partial.String()
				partial.Reset()
				processLine(line)
			}
		}

		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) {
			r.ch <- ErrorMessage{Err: fmt.Sprintf("read %s: %v", r.path, err)}
			return
		}

		// EOF: done in one-shot mode, transient in tail mode.
		if r.mode == ModeOneShot {
			if partial.Len() > 0 {
				processLine(partial.String())
			}
			r.ch <- CompletedMessage{TotalLines: linesRead, Entries: entriesSent, ParseErrors: parseErrors}
			return
		}
		time.Sleep(tailPollDelay)
	}
}

func (r *FileReader) canceled() bool {
	select {
	case cmd := <-r.cmd:
		return cmd == CommandCancel || cmd == CommandDisconnect
	default:
		return false
	}
}

func percentOf(processed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(processed) / float64(total) * 100
}
