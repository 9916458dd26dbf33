// Package source implements the producer/consumer protocol that feeds
// parsed entries into the aggregation pipeline. Producers run in background
// goroutines, own their I/O, and emit immutable messages on a buffered
// channel; a single consumer drains the channel in bounded batches and owns
// all aggregator mutation.
package source

import "github.com/jlogtools/jlog/internal/model"

const (
	// DefaultBuffer sizes the producer message channel. Producers are
	// rate-limited by their I/O source, so the buffer trades memory for
	// the absence of backpressure.
	DefaultBuffer = 50_000

	// DefaultBatchLimit caps how many messages one Drain call applies, so
	// the consumer stays responsive to other duties on its goroutine.
	DefaultBatchLimit = 5_000
)

// Message is one item on the producer-to-consumer channel.
type Message interface{ message() }

// EntryMessage carries one parsed entry. Source order is preserved per
// producer; only one active producer per aggregator run is supported.
type EntryMessage struct {
	Entry *model.LogEntry
}

// ProgressMessage reports producer progress. Percent is 0 when the total
// is unknowable, e.g. on live remote streams.
type ProgressMessage struct {
	Lines   int
	Percent float64
}

// CompletedMessage ends a one-shot producer run.
type CompletedMessage struct {
	TotalLines  int
	Entries     int
	ParseErrors int
}

// ErrorMessage reports a source failure. It terminates the producer but
// never resets accumulated state.
type ErrorMessage struct {
	Err string
}

// ConnectedMessage and DisconnectedMessage report connection state for
// stream-oriented producers.
type (
	ConnectedMessage    struct{}
	DisconnectedMessage struct{}
)

func (EntryMessage) message()        {}
func (ProgressMessage) message()     {}
func (CompletedMessage) message()    {}
func (ErrorMessage) message()        {}
func (ConnectedMessage) message()    {}
func (DisconnectedMessage) message() {}

// Command flows from consumer to producer. Delivery is advisory: producers
// check at line boundaries, so a blocked read delays the stop.
type Command int

const (
	// CommandCancel stops producing; no further messages follow an
	// in-flight send.
	CommandCancel Command = iota

	// CommandDisconnect tears down the underlying connection.
	CommandDisconnect
)
