package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jlogtools/jlog/internal/aggregate"
	"github.com/jlogtools/jlog/internal/detect"
	"github.com/jlogtools/jlog/internal/filter"
	"github.com/jlogtools/jlog/internal/httpserver"
	"github.com/jlogtools/jlog/internal/model"
	"github.com/jlogtools/jlog/internal/report"
	"github.com/jlogtools/jlog/internal/source"
)

// producer is the common surface of file and SSH readers.
type producer interface {
	Messages() <-chan source.Message
	Cancel()
}

// runner owns one analysis run: a producer feeding a consumer feeding the
// aggregator. All aggregator access goes through the mutex so the HTTP
// snapshot path can run beside the drain loop.
type runner struct {
	mu        sync.Mutex
	sourceTag string
	agg       *aggregate.Aggregator
	consumer  *source.Consumer
	signals   []model.PatternSignal
}

func newRunner(sourceTag string, prod producer, criteria *filter.Criteria, sink func(*model.LogEntry)) *runner {
	agg := aggregate.New()
	return &runner{
		sourceTag: sourceTag,
		agg:       agg,
		consumer:  source.NewConsumer(prod.Messages(), criteria, agg, sink),
	}
}

// runToCompletion drains the producer until its channel closes, then runs
// detection once. Used by one-shot analysis.
func (r *runner) runToCompletion() source.Status {
	status := r.consumer.Run()
	r.signals = detect.Detect(r.agg)
	return status
}

// tick applies one bounded drain batch and refreshes detection.
func (r *runner) tick() source.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumer.Drain()
	r.signals = detect.Detect(r.agg)
	return r.consumer.Status()
}

// Snapshot implements httpserver.Provider.
func (r *runner) Snapshot() httpserver.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	signals := make([]model.PatternSignal, len(r.signals))
	copy(signals, r.signals)

	return httpserver.Snapshot{
		Source:  r.sourceTag,
		Status:  r.consumer.Status(),
		Totals:  r.agg.CountsByPriority,
		Series:  r.agg.SortedTimeSeries(),
		Top:     r.agg.TopMessages(model.DefaultTopN),
		Signals: signals,
		Report:  report.Build(r.sourceTag, r.agg, signals),
	}
}

// runLive drives a tailing or streaming producer until interrupted. It
// drains on a ticker, optionally serves the live report, and prints a status
// line between drains.
func runLive(r *runner, prod producer, cfg appConfig, serveAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if serveAddr != "" {
		srv := httpserver.NewServer(serveAddr, r)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("starting http server: %w", err)
		}
		fmt.Printf("live report at http://%s/\n", srv.Addr())
		g.Go(func() error {
			<-ctx.Done()
			return srv.Stop()
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.UpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				prod.Cancel()
				// Let the producer observe the cancel and close its channel,
				// then apply whatever is still buffered.
				for {
					status := r.tick()
					if status.Completed {
						return nil
					}
					time.Sleep(20 * time.Millisecond)
				}
			case <-ticker.C:
				status := r.tick()
				printStatusLine(status)
				if status.Completed {
					return nil
				}
			}
		}
	})

	err := g.Wait()
	fmt.Fprintln(os.Stdout)
	return err
}

func printStatusLine(status source.Status) {
	state := "reading"
	switch {
	case status.Err != "":
		state = "error"
	case status.Connected:
		state = "connected"
	case status.Completed:
		state = "done"
	}
	fmt.Printf("\r%-9s  lines %-10d entries %-10d parse errors %-6d", state, status.Lines, status.Entries, status.ParseErrors)
}
