package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jlogtools/jlog/internal/aggregate"
	"github.com/jlogtools/jlog/internal/model"
)

const (
	summaryBarWidth  = 30
	seriesTailLength = 20
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8893A6"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8893A6"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E05555"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0A93E"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#4FBF8B"))
	criticalBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#E05555")).Padding(0, 1)
	warningBadge  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#13161C")).Background(lipgloss.Color("#E0A93E")).Padding(0, 1)
)

// printSummary renders the end-of-run terminal report.
func printSummary(sourceTag string, agg *aggregate.Aggregator, signals []model.PatternSignal, topN int) {
	fmt.Println(headerStyle.Render("Analysis: " + sourceTag))

	errs := agg.CountsByPriority[0] + agg.CountsByPriority[1] + agg.CountsByPriority[2] + agg.CountsByPriority[3]
	warns := agg.CountsByPriority[4]
	fmt.Printf("%s entries  %s  %s  %d services\n\n",
		humanize.Comma(int64(agg.TotalEntries)),
		errorStyle.Render(humanize.Comma(int64(errs))+" errors"),
		warnStyle.Render(humanize.Comma(int64(warns))+" warnings"),
		len(agg.CountsByService))

	printPriorities(agg)
	printTop("Top Services", agg.TopServices(topN))
	printTop("Top Error/Warning Messages", agg.TopMessages(topN))
	printSeries(agg)
	printSignals(signals)
}

func printPriorities(agg *aggregate.Aggregator) {
	max := 0
	for _, c := range agg.CountsByPriority {
		if c > max {
			max = c
		}
	}
	if max == 0 {
		return
	}
	fmt.Println(sectionStyle.Render("Priorities"))
	for p, count := range agg.CountsByPriority {
		if count == 0 {
			continue
		}
		bar := strings.Repeat("█", scaleBar(count, max))
		style := dimStyle
		if p <= 3 {
			style = errorStyle
		} else if p == 4 {
			style = warnStyle
		}
		fmt.Printf("  %-7s %8s %s\n", model.PriorityName(p), humanize.Comma(int64(count)), style.Render(bar))
	}
	fmt.Println()
}

func printTop(title string, counts []aggregate.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Println(sectionStyle.Render(title))
	for _, c := range counts {
		name := c.Name
		if len(name) > 70 {
			name = name[:67] + "..."
		}
		fmt.Printf("  %8s  %s\n", humanize.Comma(int64(c.Count)), name)
	}
	fmt.Println()
}

func printSeries(agg *aggregate.Aggregator) {
	series := agg.SortedTimeSeries()
	if len(series) == 0 {
		return
	}
	if len(series) > seriesTailLength {
		series = series[len(series)-seriesTailLength:]
	}
	max := 0
	for _, bc := range series {
		if bc.Total > max {
			max = bc.Total
		}
	}
	fmt.Println(sectionStyle.Render("Volume by Minute"))
	for _, bc := range series {
		errPart := scaleBar(bc.Errors, max)
		warnPart := scaleBar(bc.Warnings, max)
		rest := scaleBar(bc.Total, max) - errPart - warnPart
		if rest < 0 {
			rest = 0
		}
		bar := errorStyle.Render(strings.Repeat("█", errPart)) +
			warnStyle.Render(strings.Repeat("█", warnPart)) +
			okStyle.Render(strings.Repeat("█", rest))
		fmt.Printf("  %s %6d %s\n", bc.Bucket, bc.Total, bar)
	}
	fmt.Println()
}

func printSignals(signals []model.PatternSignal) {
	fmt.Println(sectionStyle.Render("Detected Patterns"))
	if len(signals) == 0 {
		fmt.Println(dimStyle.Render("  none"))
		return
	}
	for _, sig := range signals {
		badge := warningBadge
		if sig.Severity == model.SeverityCritical {
			badge = criticalBadge
		}
		fmt.Printf("  %s %s\n", badge.Render(sig.Kind.Label()), sig.Message)
		fmt.Printf("    %s\n", dimStyle.Render(sig.Description))
	}
	fmt.Println()
}

func scaleBar(value, max int) int {
	if max == 0 || value == 0 {
		return 0
	}
	n := value * summaryBarWidth / max
	if n == 0 {
		n = 1
	}
	return n
}
