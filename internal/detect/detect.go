// Package detect surfaces temporal anomaly signals from the aggregator's
// trend data. Detection is pure: each pass recomputes every signal from the
// current state and returns a fresh, ranked slice.
package detect

import (
	"fmt"
	"sort"

	"github.com/jlogtools/jlog/internal/aggregate"
	"github.com/jlogtools/jlog/internal/model"
)

const maxSignals = 10

// Thresholds for the trend-shape rules. These values are contracts: the
// same input must always yield the same signals.
const (
	spikeMinActive     = 2
	spikeMinPeak       = 3
	spikeFactor        = 3.0
	spikeCriticalPeak  = 50
	burstMinTotal      = 5
	burstMaxBuckets    = 5
	burstMaxFraction   = 0.3
	recurringMinTotal  = 5
	recurringFraction  = 0.4
	recurringMinActive = 3
	increasingMinBkts  = 4
	increasingMinHalf  = 5
	highVolumeMinCount = 5
	highVolumeShare    = 0.25
	highVolumeCritical = 0.5
)

// Detect analyzes the aggregator's trend maps and returns at most ten
// signals, critical first, then by count descending, with remaining ties
// broken on message and kind so the same state always yields the same
// ranking. The shape rules are
// independent of one another, so a message may contribute more than one
// signal; only the high-volume rule skips messages that already signaled.
func Detect(agg *aggregate.Aggregator) []model.PatternSignal {
	seriesBuckets := len(agg.AllTimeBuckets())
	signals := make([]model.PatternSignal, 0, 16)
	claimed := map[string]struct{}{}

	for msg, trend := range agg.MessageTrends {
		shaped := shapeSignals(msg, trend, seriesBuckets)
		for _, sig := range shaped {
			claimed[sig.Message] = struct{}{}
		}
		signals = append(signals, shaped...)
	}

	// High-volume is independent of trend shape, but a message that already
	// produced a shape signal is not reported twice.
	volumeTotal := agg.ErrorWarningTotal()
	if volumeTotal > 0 {
		for msg, count := range agg.CountsByMessage {
			display := truncate(msg)
			if _, dup := claimed[display]; dup {
				continue
			}
			share := float64(count) / float64(volumeTotal)
			if count < highVolumeMinCount || share <= highVolumeShare {
				continue
			}
			severity := model.SeverityWarning
			if share > highVolumeCritical {
				severity = model.SeverityCritical
			}
			signals = append(signals, model.PatternSignal{
				Kind:        model.SignalHighVolume,
				Message:     display,
				Description: fmt.Sprintf("%d occurrences, %.0f%% of all error/warning volume", count, share*100),
				Severity:    severity,
				Count:       count,
			})
		}
	}

	// Ties must break deterministically: the pre-sort order comes from map
	// iteration, and the cap below discards whatever sorts past ten.
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Severity != signals[j].Severity {
			return signals[i].Severity < signals[j].Severity
		}
		if signals[i].Count != signals[j].Count {
			return signals[i].Count > signals[j].Count
		}
		if signals[i].Message != signals[j].Message {
			return signals[i].Message < signals[j].Message
		}
		return signals[i].Kind < signals[j].Kind
	})
	if len(signals) > maxSignals {
		signals = signals[:maxSignals]
	}
	return signals
}

// shapeSignals evaluates the four trend-shape rules for one message. The
// rules are deliberately independent: a trend that is both spiky and
// increasing reports both shapes.
func shapeSignals(msg string, trend map[string]int, seriesBuckets int) []model.PatternSignal {
	if seriesBuckets == 0 || len(trend) == 0 {
		return nil
	}

	active := len(trend)
	total := 0
	peak := 0
	for _, c := range trend {
		total += c
		if c > peak {
			peak = c
		}
	}
	// Average rate over the whole series, not just this message's active
	// buckets: a message absent from most of the run has a low baseline.
	avg := float64(total) / float64(seriesBuckets)
	fraction := float64(active) / float64(seriesBuckets)

	display := truncate(msg)
	var out []model.PatternSignal

	if active >= spikeMinActive && float64(peak) > spikeFactor*avg && peak >= spikeMinPeak {
		severity := model.SeverityWarning
		if peak >= spikeCriticalPeak {
			severity = model.SeverityCritical
		}
		out = append(out, model.PatternSignal{
			Kind:        model.SignalSpike,
			Message:     display,
			Description: fmt.Sprintf("spiked to %d in one minute (baseline %.1f/min)", peak, avg),
			Severity:    severity,
			Count:       peak,
		})
	}

	if total >= burstMinTotal && active <= burstMaxBuckets && fraction < burstMaxFraction {
		out = append(out, model.PatternSignal{
			Kind:        model.SignalBurst,
			Message:     display,
			Description: fmt.Sprintf("%d occurrences concentrated in %d of %d minutes", total, active, seriesBuckets),
			Severity:    model.SeverityWarning,
			Count:       total,
		})
	}

	if total >= recurringMinTotal && fraction > recurringFraction && active >= recurringMinActive {
		out = append(out, model.PatternSignal{
			Kind:        model.SignalRecurring,
			Message:     display,
			Description: fmt.Sprintf("%d occurrences recurring across %d of %d minutes", total, active, seriesBuckets),
			Severity:    model.SeverityWarning,
			Count:       total,
		})
	}

	if active >= increasingMinBkts {
		buckets := make([]string, 0, active)
		for b := range trend {
			buckets = append(buckets, b)
		}
		sort.Strings(buckets)
		mid := len(buckets) / 2
		first, second := 0, 0
		for i, b := range buckets {
			if i < mid {
				first += trend[b]
			} else {
				second += trend[b]
			}
		}
		if second > 2*first && second >= increasingMinHalf {
			out = append(out, model.PatternSignal{
				Kind:        model.SignalIncreasing,
				Message:     display,
				Description: fmt.Sprintf("rate increasing: %d early vs %d late occurrences", first, second),
				Severity:    model.SeverityWarning,
				Count:       total,
			})
		}
	}

	return out
}

func truncate(msg string) string {
	if len(msg) <= model.DefaultMessagePreviewLen {
		return msg
	}
	runes := []rune(msg)
	if len(runes) <= model.DefaultMessagePreviewLen {
		return msg
	}
	return string(runes[:model.DefaultMessagePreviewLen-3]) + "..."
}
