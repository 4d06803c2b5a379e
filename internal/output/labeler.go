// Package output labels raw byte streams line by line and writes them to shared destinations.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mogproject/color-ssh/internal/palette"
)

const (
	// DefaultSeparator sits between the label and the line content on stdout streams.
	DefaultSeparator = "|"

	// StderrSeparator marks lines that came from a stderr stream.
	StderrSeparator = "+"
)

// Prefix builds the bytes written before every line.
// With an empty label only the color is emitted.
func Prefix(label string, c palette.Color, separator string) string {
	if label == "" {
		return string(c)
	}
	return string(palette.Inverse) + string(c) + label + string(palette.Reset) +
		separator + string(palette.Reset) + string(c)
}

// Labeler copies input to an output, decorating each line with a fixed prefix.
type Labeler struct {
	prefix []byte
}

// NewLabeler creates a labeler for label. An empty color derives one from the label.
func NewLabeler(label, separator string, c palette.Color) *Labeler {
	if c == "" {
		c = palette.FromLabel(label)
	}
	return &Labeler{prefix: []byte(Prefix(label, c, separator))}
}

// Prefix returns the prefix written before every line.
func (l *Labeler) Prefix() string {
	return string(l.prefix)
}

type flusher interface {
	Flush() error
}

// Copy reads r until EOF and writes every line to w as prefix + line + reset.
// Each labeled line goes out in a single Write call so concurrent labelers
// sharing w interleave at line granularity. A trailing line without a
// terminator is still labeled.
func (l *Labeler) Copy(w io.Writer, r io.Reader) error {
	br := bufio.NewReader(r)
	f, canFlush := w.(flusher)
	for {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			buf := make([]byte, 0, len(l.prefix)+len(line)+len(palette.Reset))
			buf = append(buf, l.prefix...)
			buf = append(buf, line...)
			buf = append(buf, palette.Reset...)
			if _, err := w.Write(buf); err != nil {
				return fmt.Errorf("write line: %w", err)
			}
			if canFlush {
				if err := f.Flush(); err != nil {
					return fmt.Errorf("flush line: %w", err)
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("read line: %w", readErr)
		}
	}
}

// Cat labels every source in order. An empty path list reads stdin, which is never closed here.
// The first source that cannot be opened or read aborts the whole run.
func (l *Labeler) Cat(w io.Writer, stdin io.Reader, paths []string) error {
	if len(paths) == 0 {
		return l.Copy(w, stdin)
	}
	for _, path := range paths {
		if err := l.catFile(w, path); err != nil {
			return err
		}
	}
	return nil
}

func (l *Labeler) catFile(w io.Writer, path string) error {
	f, err := os.Open(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return err
	}
	defer f.Close()
	return l.Copy(w, f)
}

// SyncWriter serializes writes to a shared destination so lines from
// different goroutines never interleave mid-line.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

// Write writes p to the underlying writer while holding the lock.
func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
