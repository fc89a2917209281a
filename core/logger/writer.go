package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// writeOp is either a log line or, when ack is set, a flush request.
type writeOp struct {
	line []byte
	ack  chan error
}

// asyncWriter serializes lines from all goroutines onto the configured sinks.
// Output is flushed whenever the queue drains.
type asyncWriter struct {
	ops  chan writeOp
	done chan struct{}
	out  *bufio.Writer

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(sinks []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	live := make([]io.Writer, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	w := &asyncWriter{
		ops:  make(chan writeOp, 256),
		done: make(chan struct{}),
		out:  bufio.NewWriterSize(io.MultiWriter(live...), bufSize),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for op := range w.ops {
		if op.ack != nil {
			op.ack <- w.out.Flush()
			continue
		}
		if _, err := w.out.Write(op.line); err != nil {
			w.fail(err)
			continue
		}
		if len(w.ops) == 0 {
			if err := w.out.Flush(); err != nil {
				w.fail(err)
			}
		}
	}
	if err := w.out.Flush(); err != nil {
		w.fail(err)
	}
}

// Write queues a copy of p. It blocks while the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.ops <- writeOp{line: append([]byte(nil), p...)}
	return nil
}

// Flush waits until every line queued before the call reaches the sinks.
func (w *asyncWriter) Flush() error {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return w.Err()
	}
	ack := make(chan error, 1)
	w.ops <- writeOp{ack: ack}
	w.mu.RUnlock()
	if err := <-ack; err != nil {
		return err
	}
	return w.Err()
}

// Close drains the queue and returns the first write error.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ops)
	}
	w.mu.Unlock()
	<-w.done
	return w.Err()
}

// Err reports the first write error seen by the writer.
func (w *asyncWriter) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *asyncWriter) fail(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
