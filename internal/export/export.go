// Package export persists filtered entries to disk in formats the parser
// can read back, so a saved capture can be re-analyzed later.
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jlogtools/jlog/internal/model"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

// Format selects the on-disk representation.
type Format int

const (
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = iota
	// FormatText writes "TIMESTAMP service[priority]: message" lines.
	FormatText
)

// ParseFormat maps a config string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "text", "txt", "plain":
		return FormatText, nil
	}
	return FormatJSON, fmt.Errorf("export: unknown format %q", s)
}

type record struct {
	Line      int    `json:"line"`
	Timestamp string `json:"timestamp"`
	Priority  int    `json:"priority"`
	Service   string `json:"service"`
	Message   string `json:"message"`
}

// Writer appends entries to a single output file. It is safe for use from
// the consumer sink while a progress reporter reads Count concurrently.
type Writer struct {
	mu     sync.Mutex
	path   string
	format Format
	file   *os.File
	buf    *bufio.Writer
	count  int
}

// Open creates or truncates the output file.
func Open(path string, format Format) (*Writer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("export: path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return nil, fmt.Errorf("export: mkdir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return nil, fmt.Errorf("export: open: %w", err)
	}
	return &Writer{path: path, format: format, file: f, buf: bufio.NewWriter(f)}, nil
}

// Write appends one entry.
func (w *Writer) Write(e *model.LogEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	switch w.format {
	case FormatText:
		_, err = fmt.Fprintf(w.buf, "%s %s[%d]: %s\n", e.Timestamp, e.Service, e.Priority, e.Message)
	default:
		var data []byte
		data, err = json.Marshal(record{
			Line:      e.LineNum,
			Timestamp: e.Timestamp,
			Priority:  e.Priority,
			Service:   e.Service,
			Message:   e.Message,
		})
		if err == nil {
			data = append(data, '\n')
			_, err = w.buf.Write(data)
		}
	}
	if err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	w.count++
	return nil
}

// Count reports how many entries have been written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes buffered output and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return fmt.Errorf("export: flush: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("export: close: %w", closeErr)
	}
	return nil
}
