// Package filter implements the composable per-entry predicate: a priority
// ceiling, service-set membership, and up to two regular expressions merged
// by a combine mode.
package filter

import (
	"fmt"
	"regexp"

	"github.com/jlogtools/jlog/internal/model"
)

// CombineMode selects how the primary and secondary patterns merge.
type CombineMode int

const (
	ModeMatch CombineMode = iota // primary must match (absent = pass)
	ModeAnd                      // both configured patterns must match
	ModeOr                       // either configured pattern may match
	ModeNot                      // primary must not match
)

func (m CombineMode) String() string {
	switch m {
	case ModeAnd:
		return "and"
	case ModeOr:
		return "or"
	case ModeNot:
		return "not"
	default:
		return "match"
	}
}

// ParseCombineMode maps a user-supplied mode name to a CombineMode.
func ParseCombineMode(s string) (CombineMode, error) {
	switch s {
	case "", "match":
		return ModeMatch, nil
	case "and":
		return ModeAnd, nil
	case "or":
		return ModeOr, nil
	case "not":
		return ModeNot, nil
	}
	return ModeMatch, fmt.Errorf("unknown combine mode %q", s)
}

// Criteria is the predicate evaluated per entry. It is constructed from
// user input, replaced wholesale on every filter change, and read-only
// during evaluation.
type Criteria struct {
	services    map[string]struct{}
	maxPriority int
	pattern     *regexp.Regexp
	pattern2    *regexp.Regexp
	mode        CombineMode
}

// NewCriteria returns the default criteria: every service, priority up to
// debug, no patterns, mode Match. The default admits every entry.
func NewCriteria() *Criteria {
	return &Criteria{
		services:    map[string]struct{}{},
		maxPriority: model.DefaultMaxPriority,
	}
}

// SetMaxPriority sets the inclusive priority ceiling. Lower numeric
// priority means higher severity, so this is a severity floor in human
// terms.
func (c *Criteria) SetMaxPriority(p int) {
	c.maxPriority = p
}

// SetServices replaces the allowed-service set. An empty set matches all
// services.
func (c *Criteria) SetServices(services ...string) {
	c.services = make(map[string]struct{}, len(services))
	for _, s := range services {
		if s != "" {
			c.services[s] = struct{}{}
		}
	}
}

// SetMode sets the pattern combine mode.
func (c *Criteria) SetMode(mode CombineMode) {
	c.mode = mode
}

// SetPattern compiles and installs the primary pattern. An invalid
// expression fails the call and leaves the previous pattern in place; an
// empty expression clears it.
func (c *Criteria) SetPattern(expr string) error {
	re, err := compilePattern(expr)
	if err != nil {
		return err
	}
	c.pattern = re
	return nil
}

// SetPattern2 compiles and installs the secondary pattern, with the same
// error contract as SetPattern.
func (c *Criteria) SetPattern2(expr string) error {
	re, err := compilePattern(expr)
	if err != nil {
		return err
	}
	c.pattern2 = re
	return nil
}

func compilePattern(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter pattern %q: %w", expr, err)
	}
	return re, nil
}

// Matches reports whether the entry passes priority, service, and pattern
// checks, in that order.
func (c *Criteria) Matches(e *model.LogEntry) bool {
	if e.Priority > c.maxPriority {
		return false
	}

	if len(c.services) > 0 {
		if _, ok := c.services[e.Service]; !ok {
			return false
		}
	}

	return c.matchesPatterns(e.Message)
}

func (c *Criteria) matchesPatterns(msg string) bool {
	switch c.mode {
	case ModeAnd:
		// A pattern not configured is trivially satisfied for its slot.
		if c.pattern != nil && !c.pattern.MatchString(msg) {
			return false
		}
		if c.pattern2 != nil && !c.pattern2.MatchString(msg) {
			return false
		}
		return true
	case ModeOr:
		if c.pattern == nil && c.pattern2 == nil {
			return true
		}
		if c.pattern != nil && c.pattern.MatchString(msg) {
			return true
		}
		if c.pattern2 != nil && c.pattern2.MatchString(msg) {
			return true
		}
		return false
	case ModeNot:
		if c.pattern == nil {
			return true
		}
		return !c.pattern.MatchString(msg)
	default: // ModeMatch
		if c.pattern == nil {
			return true
		}
		return c.pattern.MatchString(msg)
	}
}
