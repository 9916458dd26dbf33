package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/jlogtools/jlog/internal/parse"
)

const stdinMaxLineSize = 1024 * 1024

// StdinReader reads log lines from an arbitrary stream, typically os.Stdin
// for piped input. It is one-shot: EOF on the stream completes the run.
type StdinReader struct {
	in  io.Reader
	ch  chan Message
	cmd chan Command
}

// NewStdinReader starts reading in a background goroutine.
func NewStdinReader(in io.Reader) *StdinReader {
	r := &StdinReader{
		in:  in,
		ch:  make(chan Message, DefaultBuffer),
		cmd: make(chan Command, 2),
	}
	go r.run()
	return r
}

// Messages returns the read side of the producer channel.
func (r *StdinReader) Messages() <-chan Message { return r.ch }

// Cancel asks the producer to stop at the next line boundary.
func (r *StdinReader) Cancel() {
	select {
	case r.cmd <- CommandCancel:
	default:
	}
}

func (r *StdinReader) run() {
	defer close(r.ch)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, stdinMaxLineSize), stdinMaxLineSize)

	var linesRead, entriesSent, parseErrors int
	for scanner.Scan() {
		select {
		case <-r.cmd:
			r.ch <- CompletedMessage{TotalLines: linesRead, Entries: entriesSent, ParseErrors: parseErrors}
			return
		default:
		}

		line := scanner.Text()
		linesRead++
		if entry := parse.Line(line, linesRead); entry != nil {
			r.ch <- EntryMessage{Entry: entry}
			entriesSent++
		} else if line != "" {
			parseErrors++
		}

		if linesRead%progressInterval == 0 {
			// Piped input has no knowable total, so percent stays 0.
			r.ch <- ProgressMessage{Lines: linesRead}
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			r.ch <- ErrorMessage{Err: fmt.Sprintf("stdin line exceeded %d bytes", stdinMaxLineSize)}
			return
		}
		r.ch <- ErrorMessage{Err: fmt.Sprintf("read stdin: %v", err)}
		return
	}

	r.ch <- CompletedMessage{TotalLines: linesRead, Entries: entriesSent, ParseErrors: parseErrors}
}
