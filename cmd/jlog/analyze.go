package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jlogtools/jlog/internal/export"
	"github.com/jlogtools/jlog/internal/model"
	"github.com/jlogtools/jlog/internal/report"
	"github.com/jlogtools/jlog/internal/source"
)

var analyzeFlags struct {
	filterFlags
	reportPath string
	savePath   string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a log file and print a summary",
	Long: `Analyze reads a syslog file, a journalctl -o json capture, or a file
previously saved with --save, applies the filter criteria, and prints the
aggregate summary with any detected anomaly patterns. Pass - to read from
standard input.

Examples:
  # Full file with default criteria
  jlog analyze /var/log/syslog

  # Errors only, for one service, with an HTML report
  jlog analyze --priority 3 --service sshd --report out.html journal.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeFlags.register(analyzeCmd, model.DefaultMaxPriority)
	analyzeCmd.Flags().StringVar(&analyzeFlags.reportPath, "report", "", "write an HTML report to this path")
	analyzeCmd.Flags().StringVar(&analyzeFlags.savePath, "save", "", "write admitted entries to this path")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cmd.Flags().Changed("priority") {
		analyzeFlags.maxPriority = cfg.MaxPriority
	}

	criteria, err := analyzeFlags.criteria()
	if err != nil {
		return err
	}

	var sink func(*model.LogEntry)
	var writer *export.Writer
	if analyzeFlags.savePath != "" {
		format, err := export.ParseFormat(cfg.ExportFormat)
		if err != nil {
			return err
		}
		writer, err = export.Open(analyzeFlags.savePath, format)
		if err != nil {
			return err
		}
		defer writer.Close()
		sink = func(e *model.LogEntry) { writer.Write(e) }
	}

	path := args[0]
	var prod producer
	if path == "-" {
		path = "stdin"
		prod = source.NewStdinReader(os.Stdin)
	} else {
		prod = source.NewFileReader(path, source.ModeOneShot)
	}
	r := newRunner(path, prod, criteria, sink)

	status := r.runToCompletion()
	if status.Err != "" {
		return fmt.Errorf("reading %s: %s", path, status.Err)
	}

	printSummary(path, r.agg, r.signals, cfg.TopN)
	if status.ParseErrors > 0 {
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d lines could not be parsed", status.ParseErrors)))
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			return err
		}
		fmt.Printf("saved %d entries to %s\n", writer.Count(), analyzeFlags.savePath)
	}

	if analyzeFlags.reportPath != "" {
		data := report.Build(path, r.agg, r.signals)
		if err := report.WriteFile(analyzeFlags.reportPath, data); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", analyzeFlags.reportPath)
	}
	return nil
}
