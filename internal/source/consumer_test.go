package source

import (
	"strings"
	"testing"

	"github.com/jlogtools/jlog/internal/aggregate"
	"github.com/jlogtools/jlog/internal/detect"
	"github.com/jlogtools/jlog/internal/filter"
	"github.com/jlogtools/jlog/internal/model"
	"github.com/jlogtools/jlog/internal/parse"
)

func feedLines(t *testing.T, lines []string) <-chan Message {
	t.Helper()
	ch := make(chan Message, len(lines)+1)
	entries, parseErrors := 0, 0
	for i, line := range lines {
		if entry := parse.Line(line, i+1); entry != nil {
			ch <- EntryMessage{Entry: entry}
			entries++
		} else if strings.TrimSpace(line) != "" {
			parseErrors++
		}
	}
	ch <- CompletedMessage{TotalLines: len(lines), Entries: entries, ParseErrors: parseErrors}
	close(ch)
	return ch
}

func TestConsumerRunPipeline(t *testing.T) {
	// Five authentication failures recurring across three of five active
	// minutes, with info-level traffic filling the remaining buckets.
	lines := []string{
		"2024-01-15 10:00:05 sshd[3]: Failed password for root from 10.0.0.5 port 22",
		"2024-01-15 10:00:40 sshd[3]: Failed password for root from 10.0.0.9 port 51022",
		"2024-01-15 10:01:10 cron[6]: session opened for root",
		"2024-01-15 10:02:02 sshd[3]: Failed password for root from 172.16.0.4 port 22",
		"2024-01-15 10:02:55 sshd[3]: Failed password for root from 10.0.0.5 port 4022",
		"2024-01-15 10:03:20 systemd[6]: reloading unit files",
		"2024-01-15 10:04:30 sshd[3]: Failed password for root from 10.0.0.7 port 22",
	}

	agg := aggregate.New()
	c := NewConsumer(feedLines(t, lines), filter.NewCriteria(), agg, nil)

	status := c.Run()
	if !status.Completed {
		t.Fatal("status not completed after Run")
	}
	if status.Entries != 7 {
		t.Errorf("Entries = %d, want 7", status.Entries)
	}
	if status.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0", status.ParseErrors)
	}

	if agg.TotalEntries != 7 {
		t.Errorf("TotalEntries = %d, want 7", agg.TotalEntries)
	}
	if got := len(agg.TimeSeries); got != 5 {
		t.Errorf("TimeSeries buckets = %d, want 5", got)
	}

	key := "Failed password for root from <IP> port <PORT>"
	if agg.CountsByMessage[key] != 5 {
		t.Fatalf("CountsByMessage[%q] = %d, want 5 (got %v)", key, agg.CountsByMessage[key], agg.CountsByMessage)
	}

	signals := detect.Detect(agg)
	if len(signals) != 1 {
		t.Fatalf("got %d signals %v, want 1 recurring", len(signals), signals)
	}
	sig := signals[0]
	if sig.Kind != model.SignalRecurring {
		t.Errorf("Kind = %v, want recurring", sig.Kind)
	}
	if sig.Count != 5 {
		t.Errorf("Count = %d, want 5", sig.Count)
	}
	if sig.Message != key {
		t.Errorf("Message = %q, want %q", sig.Message, key)
	}
}

func TestConsumerAppliesFilter(t *testing.T) {
	lines := []string{
		"2024-01-15 10:00:05 sshd[3]: Failed password for root from 10.0.0.5 port 22",
		"2024-01-15 10:01:10 cron[6]: session opened for root",
		"2024-01-15 10:02:02 sshd[4]: warning: possible break-in attempt",
	}

	criteria := filter.NewCriteria()
	criteria.SetMaxPriority(4)

	agg := aggregate.New()
	var sunk []*model.LogEntry
	c := NewConsumer(feedLines(t, lines), criteria, agg, func(e *model.LogEntry) {
		sunk = append(sunk, e)
	})

	status := c.Run()
	if status.Entries != 2 {
		t.Errorf("admitted entries = %d, want 2", status.Entries)
	}
	if agg.TotalEntries != 2 {
		t.Errorf("TotalEntries = %d, want 2", agg.TotalEntries)
	}
	if len(sunk) != 2 {
		t.Errorf("sink received %d entries, want 2", len(sunk))
	}
	if agg.CountsByService["cron"] != 0 {
		t.Errorf("filtered service reached the aggregator")
	}
}

func TestConsumerDrainBatches(t *testing.T) {
	ch := make(chan Message, DefaultBatchLimit+100)
	entry := parse.Line("2024-01-15 10:00:05 app[6]: steady traffic", 1)
	for i := 0; i < DefaultBatchLimit+100; i++ {
		ch <- EntryMessage{Entry: entry}
	}

	agg := aggregate.New()
	c := NewConsumer(ch, filter.NewCriteria(), agg, nil)

	if more := c.Drain(); !more {
		t.Fatal("Drain reported no more while the channel is open")
	}
	if agg.TotalEntries != DefaultBatchLimit {
		t.Errorf("first drain applied %d entries, want batch cap %d", agg.TotalEntries, DefaultBatchLimit)
	}

	if more := c.Drain(); !more {
		t.Fatal("Drain reported no more while the channel is open")
	}
	if agg.TotalEntries != DefaultBatchLimit+100 {
		t.Errorf("after second drain applied %d, want %d", agg.TotalEntries, DefaultBatchLimit+100)
	}

	close(ch)
	if more := c.Drain(); more {
		t.Error("Drain reported more after channel close")
	}
	if !c.Status().Completed {
		t.Error("closed channel did not mark the run completed")
	}
}

func TestConsumerStatusTransitions(t *testing.T) {
	ch := make(chan Message, 8)
	ch <- ConnectedMessage{}
	ch <- ProgressMessage{Lines: 1000}
	ch <- ErrorMessage{Err: "read reset"}
	ch <- DisconnectedMessage{}
	close(ch)

	c := NewConsumer(ch, filter.NewCriteria(), aggregate.New(), nil)
	status := c.Run()

	if status.Lines != 1000 {
		t.Errorf("Lines = %d, want 1000", status.Lines)
	}
	if status.Err != "read reset" {
		t.Errorf("Err = %q, want read reset", status.Err)
	}
	if status.Connected {
		t.Error("still connected after DisconnectedMessage")
	}
	if !status.Completed {
		t.Error("closed channel must complete the run")
	}
}
