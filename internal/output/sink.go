package output

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Sink is one labeled stream. Child processes write raw output into Input;
// Close signals end of stream and returns once everything has been written out.
type Sink interface {
	// Input returns the write end handed to child processes.
	Input() *os.File

	// Close closes the input and waits for the labeler to drain it.
	Close() error
}

// SinkFactory opens labeled sinks that write to dst.
type SinkFactory interface {
	Open(label, separator string, dst io.Writer) (Sink, error)
}

// PipeSinkFactory labels streams in-process.
type PipeSinkFactory struct{}

// Open starts a goroutine copying a fresh pipe through a Labeler into dst.
func (PipeSinkFactory) Open(label, separator string, dst io.Writer) (Sink, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}

	s := &pipeSink{r: r, w: w, done: make(chan struct{})}
	labeler := NewLabeler(label, separator, "")
	go func() {
		defer close(s.done)
		if copyErr := labeler.Copy(dst, r); copyErr != nil {
			s.copyErr = copyErr
			// keep draining so writers never block on a full pipe
			_, _ = io.Copy(io.Discard, r)
		}
	}()
	return s, nil
}

type pipeSink struct {
	r, w    *os.File
	done    chan struct{}
	copyErr error
	once    sync.Once
}

func (s *pipeSink) Input() *os.File {
	return s.w
}

func (s *pipeSink) Close() error {
	s.once.Do(func() {
		s.w.Close()
		<-s.done
		s.r.Close()
	})
	return s.copyErr
}

// CommandSinkFactory labels streams by running an external labeler executable,
// invoked as `<Path> -l <label>` for stdout and `<Path> -l <label> -s +` for stderr.
type CommandSinkFactory struct {
	Path   string
	Stderr io.Writer // diagnostics of the labeler process itself
}

// Open starts the labeler process with a fresh pipe as its stdin.
func (f CommandSinkFactory) Open(label, separator string, dst io.Writer) (Sink, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}

	args := []string{"-l", label}
	if separator != DefaultSeparator {
		args = append(args, "-s", separator)
	}

	cmd := exec.Command(f.Path, args...) //nolint:gosec // labeler path comes from configuration
	cmd.Stdin = r
	cmd.Stdout = dst
	cmd.Stderr = f.Stderr
	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("start labeler: %w", err)
	}
	// the child holds its own copy of the read end
	r.Close()

	return &commandSink{cmd: cmd, w: w}, nil
}

type commandSink struct {
	cmd  *exec.Cmd
	w    *os.File
	once sync.Once
	err  error
}

func (s *commandSink) Input() *os.File {
	return s.w
}

func (s *commandSink) Close() error {
	s.once.Do(func() {
		s.w.Close()
		if err := s.cmd.Wait(); err != nil {
			s.err = fmt.Errorf("labeler wait: %w", err)
		}
	})
	return s.err
}
