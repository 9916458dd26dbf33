package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlogtools/jlog/internal/export"
	"github.com/jlogtools/jlog/internal/model"
	"github.com/jlogtools/jlog/internal/source"
)

var monitorFlags struct {
	filterFlags
	serveAddr string
	savePath  string
	fromStart bool
}

var monitorCmd = &cobra.Command{
	Use:   "monitor <file>",
	Short: "Follow a log file live",
	Long: `Monitor tails a log file, aggregating new entries as they arrive.
With --serve the live report is available over HTTP while the tail runs.
Interrupt with Ctrl-C to stop and print the final summary.

Examples:
  # Follow syslog, errors and warnings only
  jlog monitor --priority 4 /var/log/syslog

  # Follow with a live web report and save admitted entries
  jlog monitor --serve --save capture.json /var/log/syslog`,
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorFlags.register(monitorCmd, model.DefaultMaxPriority)
	monitorCmd.Flags().StringVar(&monitorFlags.serveAddr, "serve", "", "serve the live report; --serve=addr overrides the configured address")
	monitorCmd.Flags().Lookup("serve").NoOptDefVal = "config"
	monitorCmd.Flags().StringVar(&monitorFlags.savePath, "save", "", "write admitted entries to this path")
	monitorCmd.Flags().BoolVar(&monitorFlags.fromStart, "from-start", false, "read the existing file content before tailing")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cmd.Flags().Changed("priority") {
		monitorFlags.maxPriority = cfg.MaxPriority
	}

	criteria, err := monitorFlags.criteria()
	if err != nil {
		return err
	}

	var sink func(*model.LogEntry)
	var writer *export.Writer
	if monitorFlags.savePath != "" {
		format, err := export.ParseFormat(cfg.ExportFormat)
		if err != nil {
			return err
		}
		writer, err = export.Open(monitorFlags.savePath, format)
		if err != nil {
			return err
		}
		defer writer.Close()
		sink = func(e *model.LogEntry) { writer.Write(e) }
	}

	path := args[0]
	mode := source.ModeTail
	if monitorFlags.fromStart {
		mode = source.ModeOneShot
	}
	if monitorFlags.serveAddr == "config" {
		monitorFlags.serveAddr = cfg.ServeAddr
	}

	prod := source.NewFileReader(path, mode)
	r := newRunner(path, prod, criteria, sink)

	if err := runLive(r, prod, cfg, monitorFlags.serveAddr); err != nil {
		return err
	}

	snap := r.Snapshot()
	printSummary(path, r.agg, snap.Signals, cfg.TopN)
	if snap.Status.Err != "" {
		return fmt.Errorf("reading %s: %s", path, snap.Status.Err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			return err
		}
		fmt.Printf("saved %d entries to %s\n", writer.Count(), monitorFlags.savePath)
	}
	return nil
}
