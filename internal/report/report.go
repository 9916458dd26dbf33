// Package report renders an analysis run as a self-contained HTML page.
// Charts are drawn client-side with chart.js loaded from its CDN, so the
// output file has no local asset dependencies.
package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jlogtools/jlog/internal/aggregate"
	"github.com/jlogtools/jlog/internal/model"
)

// Data is everything the template needs, precomputed so the template stays
// free of logic beyond ranging and printing.
type Data struct {
	Title       string
	GeneratedAt string
	Source      string

	TotalEntries string
	ErrorCount   string
	WarningCount string
	ServiceCount int
	SignalCount  int

	PriorityLabels []string
	PriorityCounts []int

	ServiceLabels []string
	ServiceCounts []int

	SeriesLabels   []string
	SeriesTotals   []int
	SeriesErrors   []int
	SeriesWarnings []int

	TrendSets []TrendSet

	Signals  []Signal
	Messages []aggregate.Count
}

// TrendSet is one message's per-bucket counts aligned to SeriesLabels.
type TrendSet struct {
	Label  string
	Counts []int
}

// Signal mirrors model.PatternSignal with presentation fields resolved.
type Signal struct {
	Label       string
	Message     string
	Description string
	Critical    bool
	Count       int
}

const trendSetLimit = 5

// Build assembles template data from a finished (or in-progress) run.
func Build(source string, agg *aggregate.Aggregator, signals []model.PatternSignal) Data {
	d := Data{
		Title:        "Log Analysis Report",
		GeneratedAt:  time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		Source:       source,
		TotalEntries: humanize.Comma(int64(agg.TotalEntries)),
		ServiceCount: len(agg.CountsByService),
		SignalCount:  len(signals),
		Messages:     agg.TopMessages(model.DefaultTopN),
	}

	errs := agg.CountsByPriority[0] + agg.CountsByPriority[1] + agg.CountsByPriority[2] + agg.CountsByPriority[3]
	d.ErrorCount = humanize.Comma(int64(errs))
	d.WarningCount = humanize.Comma(int64(agg.CountsByPriority[4]))

	for p, count := range agg.CountsByPriority {
		if count == 0 {
			continue
		}
		d.PriorityLabels = append(d.PriorityLabels, model.PriorityName(p))
		d.PriorityCounts = append(d.PriorityCounts, count)
	}

	for _, svc := range agg.TopServices(model.DefaultTopN) {
		d.ServiceLabels = append(d.ServiceLabels, svc.Name)
		d.ServiceCounts = append(d.ServiceCounts, svc.Count)
	}

	series := agg.SortedTimeSeries()
	for _, bc := range series {
		d.SeriesLabels = append(d.SeriesLabels, bc.Bucket)
		d.SeriesTotals = append(d.SeriesTotals, bc.Total)
		d.SeriesErrors = append(d.SeriesErrors, bc.Errors)
		d.SeriesWarnings = append(d.SeriesWarnings, bc.Warnings)
	}

	seriesIndex := make(map[string]int, len(d.SeriesLabels))
	for i, bucket := range d.SeriesLabels {
		seriesIndex[bucket] = i
	}
	for _, msg := range agg.TopMessages(trendSetLimit) {
		trend := agg.TrendFor(msg.Name)
		if len(trend) == 0 {
			continue
		}
		// Trend counts are sparse; align them to the full series axis.
		counts := make([]int, len(d.SeriesLabels))
		for _, bc := range trend {
			if i, ok := seriesIndex[bc.Name]; ok {
				counts[i] = bc.Count
			}
		}
		d.TrendSets = append(d.TrendSets, TrendSet{Label: msg.Name, Counts: counts})
	}

	for _, sig := range signals {
		d.Signals = append(d.Signals, Signal{
			Label:       sig.Kind.Label(),
			Message:     sig.Message,
			Description: sig.Description,
			Critical:    sig.Severity == model.SeverityCritical,
			Count:       sig.Count,
		})
	}

	return d
}

// Render writes the HTML page for d.
func Render(w io.Writer, d Data) error {
	if err := page.Execute(w, d); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}

// WriteFile renders the report to path.
func WriteFile(path string, d Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create: %w", err)
	}
	if err := Render(f, d); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("report: close: %w", err)
	}
	return nil
}

var page = template.Must(template.New("report").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 0; background: #13161c; color: #dde3ec; }
header { padding: 24px 32px; border-bottom: 1px solid #262c38; }
header h1 { margin: 0 0 4px; font-size: 22px; }
header .meta { color: #8893a6; font-size: 13px; }
main { padding: 24px 32px; max-width: 1100px; margin: 0 auto; }
.cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(170px, 1fr)); gap: 14px; margin-bottom: 28px; }
.card { background: #1a1f29; border: 1px solid #262c38; border-radius: 8px; padding: 16px 18px; }
.card .value { font-size: 26px; font-weight: 600; }
.card .label { color: #8893a6; font-size: 12px; text-transform: uppercase; letter-spacing: .06em; margin-top: 4px; }
section { margin-bottom: 32px; }
section h2 { font-size: 15px; text-transform: uppercase; letter-spacing: .06em; color: #8893a6; border-bottom: 1px solid #262c38; padding-bottom: 8px; }
.chart { background: #1a1f29; border: 1px solid #262c38; border-radius: 8px; padding: 16px; }
.row { display: grid; grid-template-columns: 1fr 1fr; gap: 14px; }
.signal { background: #1a1f29; border-left: 4px solid #e0a93e; border-radius: 6px; padding: 12px 16px; margin-bottom: 10px; }
.signal.critical { border-left-color: #e05555; }
.signal .kind { font-size: 12px; text-transform: uppercase; letter-spacing: .06em; color: #8893a6; }
.signal .msg { font-family: ui-monospace, monospace; font-size: 13px; margin: 4px 0; }
.signal .desc { color: #aab4c4; font-size: 13px; }
table { width: 100%; border-collapse: collapse; font-size: 13px; }
th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid #262c38; }
th { color: #8893a6; font-weight: 500; }
td.count { text-align: right; font-variant-numeric: tabular-nums; }
td.msg { font-family: ui-monospace, monospace; }
.empty { color: #8893a6; font-size: 13px; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<div class="meta">{{.Source}} &middot; generated {{.GeneratedAt}}</div>
</header>
<main>
<div class="cards">
<div class="card"><div class="value">{{.TotalEntries}}</div><div class="label">Entries</div></div>
<div class="card"><div class="value">{{.ErrorCount}}</div><div class="label">Errors</div></div>
<div class="card"><div class="value">{{.WarningCount}}</div><div class="label">Warnings</div></div>
<div class="card"><div class="value">{{.ServiceCount}}</div><div class="label">Services</div></div>
<div class="card"><div class="value">{{.SignalCount}}</div><div class="label">Patterns</div></div>
</div>

<section>
<h2>Detected Patterns</h2>
{{if .Signals}}{{range .Signals}}
<div class="signal{{if .Critical}} critical{{end}}">
<div class="kind">{{.Label}} &middot; {{.Count}}</div>
<div class="msg">{{.Message}}</div>
<div class="desc">{{.Description}}</div>
</div>
{{end}}{{else}}<p class="empty">No anomalous patterns detected.</p>{{end}}
</section>

<section>
<h2>Volume Over Time</h2>
<div class="chart"><canvas id="series"></canvas></div>
</section>

<div class="row">
<section>
<h2>Priorities</h2>
<div class="chart"><canvas id="priorities"></canvas></div>
</section>
<section>
<h2>Top Services</h2>
<div class="chart"><canvas id="services"></canvas></div>
</section>
</div>

<section>
<h2>Message Trends</h2>
<div class="chart"><canvas id="trends"></canvas></div>
</section>

<section>
<h2>Top Error / Warning Messages</h2>
{{if .Messages}}<table>
<tr><th>Message</th><th style="text-align:right">Count</th></tr>
{{range .Messages}}<tr><td class="msg">{{.Name}}</td><td class="count">{{.Count}}</td></tr>
{{end}}</table>{{else}}<p class="empty">No error or warning traffic.</p>{{end}}
</section>
</main>
<script>
const palette = ["#5b8def","#e05555","#e0a93e","#4fbf8b","#a873e8","#50b8d8","#d87ab0","#c2c94f"];
new Chart(document.getElementById("series"), {
  type: "line",
  data: {
    labels: {{.SeriesLabels}},
    datasets: [
      {label: "Total", data: {{.SeriesTotals}}, borderColor: "#5b8def", tension: .3},
      {label: "Errors", data: {{.SeriesErrors}}, borderColor: "#e05555", tension: .3},
      {label: "Warnings", data: {{.SeriesWarnings}}, borderColor: "#e0a93e", tension: .3}
    ]
  },
  options: {scales: {y: {beginAtZero: true}}}
});
new Chart(document.getElementById("priorities"), {
  type: "doughnut",
  data: {labels: {{.PriorityLabels}}, datasets: [{data: {{.PriorityCounts}}, backgroundColor: palette}]}
});
new Chart(document.getElementById("services"), {
  type: "bar",
  data: {labels: {{.ServiceLabels}}, datasets: [{label: "Entries", data: {{.ServiceCounts}}, backgroundColor: "#5b8def"}]},
  options: {indexAxis: "y", scales: {x: {beginAtZero: true}}}
});
new Chart(document.getElementById("trends"), {
  type: "line",
  data: {
    labels: {{.SeriesLabels}},
    datasets: [{{range $i, $t := .TrendSets}}{{if $i}},{{end}}{label: {{$t.Label}}, data: {{$t.Counts}}, borderColor: palette[{{$i}} % palette.length], tension: .3}{{end}}]
  },
  options: {scales: {y: {beginAtZero: true}}}
});
</script>
</body>
</html>
`
