package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jlogtools/jlog/internal/export"
	"github.com/jlogtools/jlog/internal/model"
	"github.com/jlogtools/jlog/internal/source"
)

var remoteFlags struct {
	filterFlags
	port      int
	user      string
	keyFile   string
	command   string
	serveAddr string
	savePath  string
}

var remoteCmd = &cobra.Command{
	Use:   "remote <[user@]host>",
	Short: "Stream the journal from a remote host over SSH",
	Long: `Remote connects to a host over SSH, runs a journal command (by default
journalctl following the last 10000 entries as JSON), and aggregates the
stream live. Password auth uses the JLOG_SSH_PASSWORD environment variable;
otherwise the key file or a running ssh-agent is used.

Examples:
  # Follow the journal of a remote host
  jlog remote admin@db1.internal

  # Custom command and live web report
  jlog remote --command "journalctl -u nginx -o json -f" --serve=:8844 web1`,
	Args: cobra.ExactArgs(1),
	RunE: runRemote,
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteFlags.register(remoteCmd, model.DefaultMaxPriority)
	remoteCmd.Flags().IntVar(&remoteFlags.port, "port", 0, "ssh port (default from config, else 22)")
	remoteCmd.Flags().StringVarP(&remoteFlags.user, "user", "u", "", "ssh user (default from config, else $USER)")
	remoteCmd.Flags().StringVarP(&remoteFlags.keyFile, "key", "i", "", "ssh private key file")
	remoteCmd.Flags().StringVar(&remoteFlags.command, "command", "", "remote command producing log lines")
	remoteCmd.Flags().StringVar(&remoteFlags.serveAddr, "serve", "", "serve the live report; --serve=addr overrides the configured address")
	remoteCmd.Flags().Lookup("serve").NoOptDefVal = "config"
	remoteCmd.Flags().StringVar(&remoteFlags.savePath, "save", "", "write admitted entries to this path")
}

func runRemote(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cmd.Flags().Changed("priority") {
		remoteFlags.maxPriority = cfg.MaxPriority
	}

	criteria, err := remoteFlags.criteria()
	if err != nil {
		return err
	}

	host := args[0]
	user := remoteFlags.user
	if at := strings.IndexByte(host, '@'); at >= 0 {
		user, host = host[:at], host[at+1:]
	}
	if user == "" {
		user = cfg.SSHUser
	}
	if user == "" {
		user = os.Getenv("USER")
	}
	if user == "" {
		return fmt.Errorf("no ssh user: pass --user or set ssh-user in config")
	}

	port := remoteFlags.port
	if port == 0 {
		port = cfg.SSHPort
	}
	keyFile := remoteFlags.keyFile
	if keyFile == "" {
		keyFile = cfg.SSHKeyFile
	}
	command := remoteFlags.command
	if command == "" {
		command = cfg.SSHCommand
	}

	var sink func(*model.LogEntry)
	var writer *export.Writer
	if remoteFlags.savePath != "" {
		format, err := export.ParseFormat(cfg.ExportFormat)
		if err != nil {
			return err
		}
		writer, err = export.Open(remoteFlags.savePath, format)
		if err != nil {
			return err
		}
		defer writer.Close()
		sink = func(e *model.LogEntry) { writer.Write(e) }
	}

	if remoteFlags.serveAddr == "config" {
		remoteFlags.serveAddr = cfg.ServeAddr
	}

	prod := source.NewSSHReader(source.SSHConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: os.Getenv("JLOG_SSH_PASSWORD"),
		KeyFile:  keyFile,
		Command:  command,
	})

	tag := fmt.Sprintf("%s@%s", user, host)
	r := newRunner(tag, prod, criteria, sink)

	if err := runLive(r, prod, cfg, remoteFlags.serveAddr); err != nil {
		return err
	}

	snap := r.Snapshot()
	printSummary(tag, r.agg, snap.Signals, cfg.TopN)
	if snap.Status.Err != "" {
		return fmt.Errorf("remote %s: %s", tag, snap.Status.Err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			return err
		}
		fmt.Printf("saved %d entries to %s\n", writer.Count(), remoteFlags.savePath)
	}
	return nil
}
