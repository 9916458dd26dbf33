package source

import (
	"github.com/jlogtools/jlog/internal/aggregate"
	"github.com/jlogtools/jlog/internal/filter"
	"github.com/jlogtools/jlog/internal/model"
)

// Status is the consumer-side view of a producer run.
type Status struct {
	Lines       int
	Percent     float64
	Entries     int
	ParseErrors int
	Completed   bool
	Connected   bool
	Err         string
}

// Consumer drains a producer channel in bounded batches, applies the filter,
// and folds admitted entries into the aggregator. It is the only writer of
// the aggregator, so it must run on a single goroutine.
type Consumer struct {
	msgs     <-chan Message
	criteria *filter.Criteria
	agg      *aggregate.Aggregator
	sink     func(*model.LogEntry)
	status   Status
}

// NewConsumer wires a producer channel to an aggregator through a filter.
// sink, when non-nil, receives every admitted entry after aggregation; it is
// how export writers observe the stream.
func NewConsumer(msgs <-chan Message, criteria *filter.Criteria, agg *aggregate.Aggregator, sink func(*model.LogEntry)) *Consumer {
	return &Consumer{msgs: msgs, criteria: criteria, agg: agg, sink: sink}
}

// Status returns a copy of the current run status.
func (c *Consumer) Status() Status { return c.status }

// Drain applies up to DefaultBatchLimit pending messages without blocking
// and reports whether the producer may still send more. A closed channel is
// treated as completion even when no CompletedMessage arrived, which is how
// canceled producers terminate.
func (c *Consumer) Drain() (more bool) {
	for i := 0; i < DefaultBatchLimit; i++ {
		select {
		case msg, ok := <-c.msgs:
			if !ok {
				c.status.Completed = true
				c.status.Connected = false
				return false
			}
			c.apply(msg)
		default:
			return true
		}
	}
	return true
}

// Run blocks until the producer channel closes, applying every message.
func (c *Consumer) Run() Status {
	for msg := range c.msgs {
		c.apply(msg)
	}
	c.status.Completed = true
	c.status.Connected = false
	return c.status
}

func (c *Consumer) apply(msg Message) {
	switch m := msg.(type) {
	case EntryMessage:
		if !c.criteria.Matches(m.Entry) {
			return
		}
		c.agg.Process(m.Entry)
		c.status.Entries++
		if c.sink != nil {
			c.sink(m.Entry)
		}
	case ProgressMessage:
		c.status.Lines = m.Lines
		if m.Percent > 0 {
			c.status.Percent = m.Percent
		}
	case CompletedMessage:
		c.status.Lines = m.TotalLines
		c.status.ParseErrors = m.ParseErrors
		c.status.Percent = 100
		c.status.Completed = true
	case ErrorMessage:
		c.status.Err = m.Err
	case ConnectedMessage:
		c.status.Connected = true
	case DisconnectedMessage:
		c.status.Connected = false
	}
}
