package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// waitDelay bounds how long Wait blocks on pipes after the process is killed
	waitDelay = 2 * time.Second
	// maxStderr caps the stderr kept for error reporting
	maxStderr = 64 * 1024
)

var (
	// ErrAlreadyStarted is returned when Start is called twice on the same Stream
	ErrAlreadyStarted = errors.New("stream already started")
	// ErrTerminated is reported by Err after Terminate stopped the process
	ErrTerminated = errors.New("process was terminated")
)

// ExecutionFailedError reports a non-zero exit
type ExecutionFailedError struct {
	ExitCode int
	Stderr   string
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("process exited with code %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Stream owns one helper process and exposes its stdout as lines.
// A Stream can be started once; construct a new one to restart.
type Stream struct {
	logger *zap.Logger

	mu         sync.Mutex
	started    bool
	terminated bool
	cancel     context.CancelFunc
	err        error
	done       chan struct{}
}

// NewStream creates an unstarted stream
func NewStream(logger *zap.Logger) *Stream {
	return &Stream{
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches executable and returns a channel of its stdout lines.
// Lines are delivered in read order; empty lines are skipped and a trailing
// line without terminator is flushed at exit. The channel is closed when the
// process exits or is terminated, after which Err reports the outcome.
func (s *Stream) Start(ctx context.Context, executable string, args ...string) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil, ErrAlreadyStarted
	}
	s.started = true

	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, executable, args...)
	cmd.WaitDelay = waitDelay

	// exec copies the OS pipe into pw, so WaitDelay can force it closed
	// when a grandchild keeps stdout open after the helper was killed
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	stderr := &limitedBuffer{max: maxStderr}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		s.err = err
		close(s.done)
		return nil, fmt.Errorf("failed to start %s: %w", executable, err)
	}
	s.cancel = cancel

	s.logger.Debug("Helper process started",
		zap.String("executable", executable),
		zap.Strings("args", args),
		zap.Int("pid", cmd.Process.Pid))

	waitDone := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		_ = pw.Close()
		waitDone <- err
	}()

	lines := make(chan string)
	go s.pump(procCtx, pr, waitDone, stderr, lines)

	return lines, nil
}

// pump reads stdout until EOF, forwards lines, then collects the exit status
func (s *Stream) pump(ctx context.Context, stdout *io.PipeReader, waitDone <-chan error, stderr *limitedBuffer, lines chan<- string) {
	defer close(s.done)
	defer close(lines)

	reader := bufio.NewReader(stdout)
	for {
		line, readErr := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			select {
			case lines <- line:
			case <-ctx.Done():
				readErr = ctx.Err()
			}
		}
		if readErr != nil {
			break
		}
	}
	// Unblock the copier when we stopped reading early
	_ = stdout.Close()

	waitErr := <-waitDone

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()

	switch {
	case s.terminated:
		s.err = ErrTerminated
	case waitErr == nil:
		s.err = nil
	default:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			s.err = &ExecutionFailedError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		} else {
			s.err = waitErr
		}
	}
}

// Terminate kills the process and stops line delivery. Safe to call repeatedly
// and before Start.
func (s *Stream) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil || s.terminated {
		return
	}
	s.terminated = true
	s.cancel()
}

// Done is closed once the process has been reaped
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the termination outcome: nil for a clean exit,
// *ExecutionFailedError for a non-zero exit, ErrTerminated after Terminate.
// It is only meaningful once Done is closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// limitedBuffer keeps the first max bytes written to it
type limitedBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
