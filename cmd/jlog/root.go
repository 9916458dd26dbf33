package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "jlog",
	Short: "Analyze journalctl and syslog output for patterns and anomalies",
	Long: `jlog parses systemd journal exports, syslog files, and live remote
streams, groups error traffic by normalized message shape, and surfaces
temporal anomalies like spikes, bursts, and recurring failures.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/jlog/config.yml)")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jlog - journal and syslog analyzer\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", runtime.Version())
	},
}
