// Package aggregate maintains bounded streaming statistics over an
// unbounded entry stream. The aggregator never retains raw entries: each
// processed entry folds into counters, histograms, a time-bucketed volume
// series, and per-normalized-message trend maps.
package aggregate

import (
	"sort"

	"github.com/jlogtools/jlog/internal/model"
	"github.com/jlogtools/jlog/internal/normalize"
)

// Aggregator is the single-writer accumulator for one analysis run. All
// Process calls happen on one consumer goroutine, so no internal locking is
// needed; statistics are monotonic within a run and a new run means a fresh
// Aggregator.
type Aggregator struct {
	TotalEntries     int
	CountsByPriority [8]int
	CountsByService  map[string]int
	CountsByMessage  map[string]int            // normalized, priority <= 4 only
	TimeSeries       map[string]*model.TimeBucket // minute bucket key
	MessageTrends    map[string]map[string]int    // message -> bucket -> count
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		CountsByService: map[string]int{},
		CountsByMessage: map[string]int{},
		TimeSeries:      map[string]*model.TimeBucket{},
		MessageTrends:   map[string]map[string]int{},
	}
}

// Process folds one filtered entry into the running state. This is the hot
// path: nothing here blocks, and per-call allocation is limited to map
// growth.
func (a *Aggregator) Process(e *model.LogEntry) {
	a.TotalEntries++
	if e.Priority >= 0 && e.Priority < 8 {
		a.CountsByPriority[e.Priority]++
	}

	a.CountsByService[e.Service]++

	bucket := e.MinuteBucket()
	if bucket != "" {
		tb := a.TimeSeries[bucket]
		if tb == nil {
			tb = &model.TimeBucket{}
			a.TimeSeries[bucket] = tb
		}
		tb.Total++
		if e.Priority <= 3 {
			tb.Errors++
		} else if e.Priority == 4 {
			tb.Warnings++
		}
	}

	// Only error-and-warning traffic feeds message grouping and trends.
	if e.Priority <= 4 {
		msg := normalize.Message(e.Message)
		if msg == "" {
			return
		}
		a.CountsByMessage[msg]++
		if bucket != "" {
			trend := a.MessageTrends[msg]
			if trend == nil {
				trend = map[string]int{}
				a.MessageTrends[msg] = trend
			}
			trend[bucket]++
		}
	}
}

// Count is a name/count pair used by the top-N accessors.
type Count struct {
	Name  string
	Count int
}

// TopServices returns up to n services ordered by count descending.
// Ties break on name so the order is deterministic within a run.
func (a *Aggregator) TopServices(n int) []Count {
	return topN(a.CountsByService, n)
}

// TopMessages returns up to n normalized messages ordered by count
// descending, same tie-break as TopServices.
func (a *Aggregator) TopMessages(n int) []Count {
	return topN(a.CountsByMessage, n)
}

func topN(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for name, count := range counts {
		out = append(out, Count{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// BucketCount is a bucket key with its aggregate, used by SortedTimeSeries.
type BucketCount struct {
	Bucket string
	model.TimeBucket
}

// SortedTimeSeries returns the volume series in chronological order.
func (a *Aggregator) SortedTimeSeries() []BucketCount {
	out := make([]BucketCount, 0, len(a.TimeSeries))
	for bucket, tb := range a.TimeSeries {
		out = append(out, BucketCount{Bucket: bucket, TimeBucket: *tb})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out
}

// AllTimeBuckets returns every minute bucket key seen in the run,
// ascending. Trend buckets are always a subset of the volume series, so the
// series keys are the full universe.
func (a *Aggregator) AllTimeBuckets() []string {
	out := make([]string, 0, len(a.TimeSeries))
	for bucket := range a.TimeSeries {
		out = append(out, bucket)
	}
	sort.Strings(out)
	return out
}

// ErrorWarningTotal returns the summed count across all grouped messages,
// i.e. the denominator for high-volume share calculations.
func (a *Aggregator) ErrorWarningTotal() int {
	total := 0
	for _, c := range a.CountsByMessage {
		total += c
	}
	return total
}

// TrendFor returns the sorted active buckets and counts for one message,
// for presentation layers that chart individual trends.
func (a *Aggregator) TrendFor(msg string) []Count {
	trend := a.MessageTrends[msg]
	if trend == nil {
		return nil
	}
	out := make([]Count, 0, len(trend))
	for bucket, count := range trend {
		out = append(out, Count{Name: bucket, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
