package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/ipc"
)

// eventQueueSize bounds broadcasts waiting for subscribers.
const eventQueueSize = 64

// Bridge multiplexes requests, commands and host events over one channel.
type Bridge struct {
	conn *ipc.Conn

	mu      sync.Mutex
	pending map[string]chan ipc.Message
	subs    map[ipc.Channel]map[int]func(json.RawMessage)
	nextID  int

	events chan ipc.Message
	done   chan struct{}
	once   sync.Once
	err    error
}

// New starts reading conn. The bridge owns conn from now on.
func New(conn *ipc.Conn) *Bridge {
	b := &Bridge{
		conn:    conn,
		pending: make(map[string]chan ipc.Message),
		subs:    make(map[ipc.Channel]map[int]func(json.RawMessage)),
		events:  make(chan ipc.Message, eventQueueSize),
		done:    make(chan struct{}),
	}
	go b.readLoop()
	go b.dispatchLoop()
	return b
}

// Done is closed once the host channel is gone.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Err returns why the channel ended, nil while it is open.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Close closes the channel. Pending requests fail with common.ErrChannelClosed.
func (b *Bridge) Close() error {
	err := b.conn.Close()
	b.shutdown(common.ErrChannelClosed)
	return err
}

func (b *Bridge) shutdown(err error) {
	b.once.Do(func() {
		b.mu.Lock()
		b.err = err
		b.pending = make(map[string]chan ipc.Message)
		b.mu.Unlock()
		close(b.done)
	})
}

func (b *Bridge) readLoop() {
	defer close(b.events)
	for {
		msg, err := b.conn.Receive()
		if err != nil {
			if !errors.Is(err, common.ErrChannelClosed) {
				b.conn.Close()
			}
			b.shutdown(common.ErrChannelClosed)
			return
		}

		switch msg.Kind {
		case ipc.KindReply:
			b.mu.Lock()
			ch, ok := b.pending[msg.ID]
			delete(b.pending, msg.ID)
			b.mu.Unlock()
			if ok {
				ch <- msg
			}
		case ipc.KindBroadcast:
			select {
			case b.events <- msg:
			case <-b.done:
				return
			}
		}
	}
}

// dispatchLoop runs subscribers off the reader goroutine, so a subscriber
// may issue requests of its own.
func (b *Bridge) dispatchLoop() {
	for msg := range b.events {
		b.mu.Lock()
		fns := make([]func(json.RawMessage), 0, len(b.subs[msg.Channel]))
		for _, fn := range b.subs[msg.Channel] {
			fns = append(fns, fn)
		}
		b.mu.Unlock()

		for _, fn := range fns {
			fn(msg.Payload)
		}
	}
}

func (b *Bridge) command(ch ipc.Channel, payload any) error {
	msg, err := ipc.NewCommand(ch, payload)
	if err != nil {
		return err
	}
	return b.conn.Send(msg)
}

// request sends on ch and decodes the reply into out.
func (b *Bridge) request(ctx context.Context, ch ipc.Channel, payload, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, common.RequestTimeout)
		defer cancel()
	}

	msg, err := ipc.NewRequest(ch, payload)
	if err != nil {
		return err
	}

	reply := make(chan ipc.Message, 1)
	b.mu.Lock()
	if b.err != nil {
		b.mu.Unlock()
		return b.err
	}
	b.pending[msg.ID] = reply
	b.mu.Unlock()

	forget := func() {
		b.mu.Lock()
		delete(b.pending, msg.ID)
		b.mu.Unlock()
	}

	if err := b.conn.Send(msg); err != nil {
		forget()
		return err
	}

	select {
	case r := <-reply:
		if r.Error != "" {
			return fmt.Errorf("%w: %s: %s", common.ErrRequestFailed, ch, r.Error)
		}
		return r.Decode(out)
	case <-ctx.Done():
		forget()
		return fmt.Errorf("%s: %w", ch, ctx.Err())
	case <-b.done:
		return fmt.Errorf("%s: %w", ch, common.ErrChannelClosed)
	}
}

// subscribe registers fn for broadcasts on ch.
func (b *Bridge) subscribe(ch ipc.Channel, fn func(json.RawMessage)) (dispose func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[ch] == nil {
		b.subs[ch] = make(map[int]func(json.RawMessage))
	}
	id := b.nextID
	b.nextID++
	b.subs[ch][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[ch], id)
	}
}

// subscribeBool decodes boolean broadcasts.
func (b *Bridge) subscribeBool(ch ipc.Channel, fn func(bool)) func() {
	return b.subscribe(ch, func(payload json.RawMessage) {
		var v bool
		if err := json.Unmarshal(payload, &v); err != nil {
			return
		}
		fn(v)
	})
}
