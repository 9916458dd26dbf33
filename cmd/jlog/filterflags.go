package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlogtools/jlog/internal/filter"
)

// filterFlags are the criteria flags shared by every command that reads logs.
type filterFlags struct {
	maxPriority int
	services    []string
	pattern     string
	pattern2    string
	mode        string
}

func (f *filterFlags) register(cmd *cobra.Command, defaultMaxPriority int) {
	cmd.Flags().IntVarP(&f.maxPriority, "priority", "p", defaultMaxPriority, "maximum priority to admit (0=emerg .. 7=debug)")
	cmd.Flags().StringSliceVarP(&f.services, "service", "s", nil, "admit only these services (exact match, repeatable)")
	cmd.Flags().StringVarP(&f.pattern, "grep", "g", "", "message regex")
	cmd.Flags().StringVar(&f.pattern2, "grep2", "", "second message regex, combined per --mode")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "match", "pattern combine mode: match, and, or, not")
}

func (f *filterFlags) criteria() (*filter.Criteria, error) {
	c := filter.NewCriteria()

	if f.maxPriority < 0 || f.maxPriority > 7 {
		return nil, fmt.Errorf("invalid --priority %d: must be 0..7", f.maxPriority)
	}
	c.SetMaxPriority(f.maxPriority)
	c.SetServices(f.services...)

	mode, err := filter.ParseCombineMode(f.mode)
	if err != nil {
		return nil, err
	}
	c.SetMode(mode)

	if err := c.SetPattern(f.pattern); err != nil {
		return nil, fmt.Errorf("invalid --grep: %w", err)
	}
	if err := c.SetPattern2(f.pattern2); err != nil {
		return nil, fmt.Errorf("invalid --grep2: %w", err)
	}
	return c, nil
}
