// Package stdio provides a Transport implementation that uses standard input/output.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/localrivet/iotmcp/logx"
)

// ErrClosed is returned by Send and ReceiveWithContext after Close.
var ErrClosed = errors.New("stdio: transport is closed")

// StdioTransport implements the Transport interface using newline-delimited
// messages. It reads messages from stdin and writes messages to stdout.
type StdioTransport struct {
	reader     *bufio.Reader
	writer     io.Writer
	writeMutex sync.Mutex
	logger     logx.Logger

	startRead sync.Once
	lines     chan result

	closed      bool
	closeMutex  sync.Mutex
	done        chan struct{}
	streamsOnce sync.Once
	closeErr    error

	// Store original streams for closing
	rawReader io.Reader
	rawWriter io.Writer
}

type result struct {
	data []byte
	err  error
}

// NewStdioTransport creates a StdioTransport over os.Stdin and os.Stdout.
func NewStdioTransport(logger logx.Logger) *StdioTransport {
	return NewStdioTransportWithReadWriter(os.Stdin, os.Stdout, logger)
}

// NewStdioTransportWithReadWriter creates a new StdioTransport using the provided reader/writer.
func NewStdioTransportWithReadWriter(reader io.Reader, writer io.Writer, logger logx.Logger) *StdioTransport {
	if logger == nil {
		logger = logx.Nop()
	}
	return &StdioTransport{
		reader:    bufio.NewReader(reader),
		writer:    writer,
		logger:    logger.With("component", "stdio"),
		lines:     make(chan result),
		done:      make(chan struct{}),
		rawReader: reader,
		rawWriter: writer,
	}
}

func (t *StdioTransport) isClosed() bool {
	t.closeMutex.Lock()
	defer t.closeMutex.Unlock()
	return t.closed
}

// Send writes a message followed by exactly one newline. Concurrent calls
// never interleave.
func (t *StdioTransport) Send(data []byte) error {
	if t.isClosed() {
		return ErrClosed
	}
	data = bytes.TrimRight(data, "\r\n")
	if len(data) == 0 {
		return fmt.Errorf("stdio: cannot send empty message")
	}
	if bytes.IndexByte(data, '\n') >= 0 {
		return fmt.Errorf("stdio: message contains a newline")
	}

	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	t.logger.Debug("send", "bytes", len(data))
	buf := make([]byte, 0, len(data)+1)
	buf = append(append(buf, data...), '\n')
	if _, err := t.writer.Write(buf); err != nil {
		if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
			t.logger.Warn("write to closed pipe", "error", err)
			_ = t.Close()
		}
		return fmt.Errorf("stdio: failed to write message: %w", err)
	}

	if flusher, ok := t.writer.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil {
			return fmt.Errorf("stdio: failed to flush: %w", err)
		}
	}
	return nil
}

// readLoop is the only reader of the underlying stream. Blank lines are
// skipped; a final line without a newline is still delivered.
func (t *StdioTransport) readLoop() {
	for {
		line, err := t.reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			select {
			case t.lines <- result{data: trimmed}:
			case <-t.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				err = fmt.Errorf("stdio: failed to read message line: %w", err)
			}
			select {
			case t.lines <- result{err: err}:
			case <-t.done:
			}
			return
		}
	}
}

// ReceiveWithContext returns the next non-blank line. It returns io.EOF once
// the input is exhausted and ctx.Err() if ctx is done first. Lines are not
// validated here; the server answers malformed JSON with a parse error.
func (t *StdioTransport) ReceiveWithContext(ctx context.Context) ([]byte, error) {
	if t.isClosed() {
		return nil, ErrClosed
	}
	t.startRead.Do(func() { go t.readLoop() })

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, ErrClosed
	case res := <-t.lines:
		if res.err != nil {
			// The stream is finished; later calls return ErrClosed.
			t.closeMutex.Lock()
			if !t.closed {
				t.closed = true
				close(t.done)
			}
			t.closeMutex.Unlock()
			return nil, res.err
		}
		t.logger.Debug("receive", "bytes", len(res.data))
		return res.data, nil
	}
}

// Close closes the underlying reader and writer if they implement
// io.Closer. It is idempotent.
func (t *StdioTransport) Close() error {
	t.closeMutex.Lock()
	if !t.closed {
		t.closed = true
		close(t.done)
	}
	t.closeMutex.Unlock()

	t.streamsOnce.Do(func() { t.closeErr = t.closeStreams() })
	return t.closeErr
}

func (t *StdioTransport) closeStreams() error {
	t.logger.Debug("closing")

	var firstErr error
	for _, s := range []interface{}{t.rawWriter, t.rawReader} {
		closer, ok := s.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, os.ErrClosed) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
