package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/yllada/deskshell/common"
)

// maxLineSize bounds one encoded message.
const maxLineSize = 1 << 20

// Conn is one end of a host ↔ surface channel.
// Send is safe for concurrent use; Receive must be called from one goroutine.
type Conn struct {
	scanner *bufio.Scanner

	wmu sync.Mutex
	w   io.Writer

	closers   []io.Closer
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// NewConn wraps a reader/writer pair. closers are closed by Close, in order.
func NewConn(r io.Reader, w io.Writer, closers ...io.Closer) *Conn {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	return &Conn{
		scanner: scanner,
		w:       w,
		closers: closers,
		done:    make(chan struct{}),
	}
}

// Pipe returns two connected in-memory ends.
func Pipe() (*Conn, *Conn) {
	aR, bW := io.Pipe()
	bR, aW := io.Pipe()
	a := NewConn(aR, aW, aW, aR)
	b := NewConn(bR, bW, bW, bR)
	return a, b
}

// Send writes one message. Messages from concurrent callers never interleave.
func (c *Conn) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidMessage, err)
	}
	data = append(data, '\n')

	c.wmu.Lock()
	defer c.wmu.Unlock()

	select {
	case <-c.done:
		return common.ErrChannelClosed
	default:
	}

	if _, err := c.w.Write(data); err != nil {
		return fmt.Errorf("%w: %v", common.ErrChannelClosed, err)
	}
	return nil
}

// Receive blocks for the next message. It returns ErrChannelClosed once the
// peer or this end has closed.
func (c *Conn) Receive() (Message, error) {
	for c.scanner.Scan() {
		line := c.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			return Message{}, fmt.Errorf("%w: %v", common.ErrInvalidMessage, err)
		}
		return msg, nil
	}

	err := c.scanner.Err()
	if err == nil || errors.Is(err, io.ErrClosedPipe) {
		return Message{}, common.ErrChannelClosed
	}
	return Message{}, fmt.Errorf("%w: %v", common.ErrChannelClosed, err)
}

// Close closes both directions. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		var errs []error
		for _, closer := range c.closers {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}

// Done is closed when Close has been called.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}
